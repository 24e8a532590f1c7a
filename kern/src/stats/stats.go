package stats

import "reflect"
import "sort"
import "strconv"
import "strings"
import "sync/atomic"
import "time"

import "github.com/google/pprof/profile"

/// Counter_t is a statistical counter.
type Counter_t int64

/// Cycles_t accumulates elapsed nanoseconds.
type Cycles_t int64

/// Inc increments the counter.
func (c *Counter_t) Inc() {
	atomic.AddInt64((*int64)(c), 1)
}

/// Addn adds n to the counter.
func (c *Counter_t) Addn(n int) {
	atomic.AddInt64((*int64)(c), int64(n))
}

/// Get returns the current value.
func (c *Counter_t) Get() int64 {
	return atomic.LoadInt64((*int64)(c))
}

/// Add adds the time elapsed since m.
func (c *Cycles_t) Add(m time.Time) {
	atomic.AddInt64((*int64)(c), int64(time.Since(m)))
}

/// Get returns the accumulated nanoseconds.
func (c *Cycles_t) Get() int64 {
	return atomic.LoadInt64((*int64)(c))
}

/// Snapshot reads every Counter_t and Cycles_t field of the struct
/// pointed to by st, keyed by field name.
func Snapshot(st interface{}) map[string]int64 {
	v := reflect.ValueOf(st)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	ret := make(map[string]int64)
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if !v.Type().Field(i).IsExported() || !f.CanAddr() {
			continue
		}
		switch p := f.Addr().Interface().(type) {
		case *Counter_t:
			ret[v.Type().Field(i).Name] = p.Get()
		case *Cycles_t:
			ret[v.Type().Field(i).Name] = p.Get()
		}
	}
	return ret
}

func sortedkeys(m map[string]int64) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

/// Stats2String converts a struct of counters to a printable string.
func Stats2String(st interface{}) string {
	m := Snapshot(st)
	var s strings.Builder
	for _, k := range sortedkeys(m) {
		s.WriteString("\n\t#" + k + ": " + strconv.FormatInt(m[k], 10))
	}
	return s.String() + "\n"
}

/// Profile exports counters as a pprof profile with one sample per
/// counter. Each sample's stack is [counter name, owner], so the pprof
/// tools group counters under the device that produced them.
func Profile(owners map[string]interface{}) *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "events", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "events", Unit: "count"},
		Period:     1,
		TimeNanos:  time.Now().UnixNano(),
	}
	fns := make(map[string]*profile.Location)
	loc := func(name string) *profile.Location {
		if l, ok := fns[name]; ok {
			return l
		}
		id := uint64(len(fns) + 1)
		f := &profile.Function{ID: id, Name: name, SystemName: name}
		l := &profile.Location{ID: id, Line: []profile.Line{{Function: f}}}
		p.Function = append(p.Function, f)
		p.Location = append(p.Location, l)
		fns[name] = l
		return l
	}
	onames := make([]string, 0, len(owners))
	for o := range owners {
		onames = append(onames, o)
	}
	sort.Strings(onames)
	for _, o := range onames {
		m := Snapshot(owners[o])
		for _, k := range sortedkeys(m) {
			s := &profile.Sample{
				Value:    []int64{m[k]},
				Location: []*profile.Location{loc(o + "." + k), loc(o)},
				Label:    map[string][]string{"owner": {o}},
			}
			p.Sample = append(p.Sample, s)
		}
	}
	return p
}
