package limits

import "sync/atomic"
import "time"

/// Sysatomic_t is a numeric limit that can be atomically updated.
type Sysatomic_t int64

/// Wdlimit_t holds the disk driver's tunables. The retry budgets bound
/// every hardware wait; no loop in the driver polls without one.
type Wdlimit_t struct {
	// status polls waiting for BSY to clear before a command is sent,
	// and again for DRDY after the registers are programmed
	Busyretries int
	// polls waiting for a sent command to complete
	Cmdretries int
	// polls waiting for BSY clear / DRQ set before a data transfer
	Xferretries int
	// sleep between two polls
	Polldelay time.Duration
	// settle time while soft reset is asserted
	Resetdelay time.Duration
	// BSD disklabel partition slots examined
	Maxparts int
	// devices the driver may publish
	Devs Sysatomic_t
}

/// Wdlimit describes the default driver limits.
var Wdlimit *Wdlimit_t = MkWdLimit()

/// MkWdLimit returns a pointer to the default set of limits.
func MkWdLimit() *Wdlimit_t {
	return &Wdlimit_t{
		Busyretries: 15,
		Cmdretries:  3000,
		Xferretries: 3000,
		Polldelay:   time.Millisecond,
		Resetdelay:  100 * time.Millisecond,
		Maxparts:    8,
		// 4 raw disks, each with at most 8 label and 4 DOS partitions
		Devs: 4 * (1 + 8 + 4),
	}
}

/// Copy returns an independent copy, so a driver instance can be tuned
/// without touching the global defaults.
func (l *Wdlimit_t) Copy() *Wdlimit_t {
	n := &Wdlimit_t{}
	n.Busyretries = l.Busyretries
	n.Cmdretries = l.Cmdretries
	n.Xferretries = l.Xferretries
	n.Polldelay = l.Polldelay
	n.Resetdelay = l.Resetdelay
	n.Maxparts = l.Maxparts
	n.Devs = Sysatomic_t(atomic.LoadInt64((*int64)(&l.Devs)))
	return n
}

func (s *Sysatomic_t) _aptr() *int64 {
	return (*int64)(s)
}

/// Given increases the limit by the provided amount.
func (s *Sysatomic_t) Given(_n uint) {
	n := int64(_n)
	if n < 0 {
		panic("too mighty")
	}
	atomic.AddInt64(s._aptr(), n)
}

/// Taken tries to decrement the limit by the provided amount.
/// It returns true on success.
func (s *Sysatomic_t) Taken(_n uint) bool {
	n := int64(_n)
	if n < 0 {
		panic("too mighty")
	}
	g := atomic.AddInt64(s._aptr(), -n)
	if g >= 0 {
		return true
	}
	atomic.AddInt64(s._aptr(), n)
	return false
}

/// Take decrements the limit and reports whether it succeeded.
func (s *Sysatomic_t) Take() bool {
	return s.Taken(1)
}

/// Give increments the limit by one.
func (s *Sysatomic_t) Give() {
	s.Given(1)
}
