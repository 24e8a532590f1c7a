package devsw

import "hash/fnv"
import "sync"
import "sync/atomic"

// A name table with a lock-free get; writers lock the bucket.

type elem_t struct {
	key     string
	value   *Dev_t
	keyHash uint32
	next    atomic.Pointer[elem_t]
}

type bucket_t struct {
	sync.Mutex
	first atomic.Pointer[elem_t]
}

/// hashtable_t maps device names to devices.
type hashtable_t struct {
	table []*bucket_t
}

func mkhash(size int) *hashtable_t {
	ht := &hashtable_t{}
	ht.table = make([]*bucket_t, size)
	for i := range ht.table {
		ht.table[i] = &bucket_t{}
	}
	return ht
}

func khash(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return uint32(2654435761) * h.Sum32()
}

func (ht *hashtable_t) bucket(kh uint32) *bucket_t {
	return ht.table[kh%uint32(len(ht.table))]
}

func (ht *hashtable_t) get(key string) (*Dev_t, bool) {
	kh := khash(key)
	b := ht.bucket(kh)
	for e := b.first.Load(); e != nil; e = e.next.Load() {
		if e.keyHash == kh && e.key == key {
			return e.value, true
		}
	}
	return nil, false
}

/// set inserts key unless present. On collision it returns the existing
/// value and false. Chains are kept sorted by hash.
func (ht *hashtable_t) set(key string, value *Dev_t) (*Dev_t, bool) {
	kh := khash(key)
	b := ht.bucket(kh)
	b.Lock()
	defer b.Unlock()

	add := func(last *elem_t) {
		n := &elem_t{key: key, value: value, keyHash: kh}
		if last == nil {
			n.next.Store(b.first.Load())
			b.first.Store(n)
		} else {
			n.next.Store(last.next.Load())
			last.next.Store(n)
		}
	}

	var last *elem_t
	for e := b.first.Load(); e != nil; e = e.next.Load() {
		if e.keyHash == kh && e.key == key {
			return e.value, false
		}
		if kh < e.keyHash {
			add(last)
			return value, true
		}
		last = e
	}
	add(last)
	return value, true
}

/// del removes key and reports whether it was present.
func (ht *hashtable_t) del(key string) bool {
	kh := khash(key)
	b := ht.bucket(kh)
	b.Lock()
	defer b.Unlock()

	var last *elem_t
	for e := b.first.Load(); e != nil; e = e.next.Load() {
		if e.keyHash == kh && e.key == key {
			if last == nil {
				b.first.Store(e.next.Load())
			} else {
				last.next.Store(e.next.Load())
			}
			return true
		}
		if kh < e.keyHash {
			return false
		}
		last = e
	}
	return false
}

func (ht *hashtable_t) iter(f func(string, *Dev_t)) {
	for _, b := range ht.table {
		for e := b.first.Load(); e != nil; e = e.next.Load() {
			f(e.key, e.value)
		}
	}
}
