package klog

/// circbuf_t is a byte ring holding the most recent console output.
/// Writes never fail: when the ring is full the oldest bytes are dropped.
/// Not safe for concurrent use; Klog_t serializes access.
type circbuf_t struct {
	buf   []uint8
	bufsz int
	head  int /// write position
	tail  int /// read position
}

func (cb *circbuf_t) cb_init(sz int) {
	if sz <= 0 {
		panic("bad circbuf size")
	}
	cb.buf = make([]uint8, sz)
	cb.bufsz = sz
	cb.head, cb.tail = 0, 0
}

func (cb *circbuf_t) full() bool {
	return cb.head-cb.tail == cb.bufsz
}

func (cb *circbuf_t) empty() bool {
	return cb.head == cb.tail
}

func (cb *circbuf_t) used() int {
	return cb.head - cb.tail
}

/// copyin appends src, evicting old bytes as needed.
func (cb *circbuf_t) copyin(src []uint8) {
	if len(src) > cb.bufsz {
		src = src[len(src)-cb.bufsz:]
	}
	if over := cb.used() + len(src) - cb.bufsz; over > 0 {
		cb.advtail(over)
	}
	for len(src) != 0 {
		hi := cb.head % cb.bufsz
		n := copy(cb.buf[hi:], src)
		cb.head += n
		src = src[n:]
	}
}

/// copyout returns the buffered bytes, oldest first, without consuming
/// them.
func (cb *circbuf_t) copyout() []uint8 {
	ret := make([]uint8, 0, cb.used())
	if cb.empty() {
		return ret
	}
	hi := cb.head % cb.bufsz
	ti := cb.tail % cb.bufsz
	// wraparound?
	if hi <= ti {
		ret = append(ret, cb.buf[ti:]...)
		ret = append(ret, cb.buf[:hi]...)
	} else {
		ret = append(ret, cb.buf[ti:hi]...)
	}
	return ret
}

func (cb *circbuf_t) advtail(sz int) {
	if sz != 0 && (cb.empty() || cb.used() < sz) {
		panic("advancing empty cb")
	}
	cb.tail += sz
}
