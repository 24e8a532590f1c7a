// Package res arbitrates I/O port ranges and interrupt lines between
// drivers.
package res

import "sync"

type portrange_t struct {
	n     int
	owner string
}

/// Ports_t tracks reserved I/O port ranges.
type Ports_t struct {
	sync.Mutex
	held map[uint16]portrange_t
}

/// MkPorts returns an empty port map.
func MkPorts() *Ports_t {
	return &Ports_t{held: make(map[uint16]portrange_t)}
}

/// Reserve claims n ports starting at base for owner. It fails if any
/// port in the range is already held.
func (p *Ports_t) Reserve(base uint16, n int, owner string) bool {
	if n <= 0 || int(base)+n > 0x10000 {
		return false
	}
	p.Lock()
	defer p.Unlock()

	lo, hi := int(base), int(base)+n
	for b, r := range p.held {
		if lo < int(b)+r.n && int(b) < hi {
			return false
		}
	}
	p.held[base] = portrange_t{n: n, owner: owner}
	return true
}

/// Release frees the range starting at base.
func (p *Ports_t) Release(base uint16) {
	p.Lock()
	defer p.Unlock()

	if _, ok := p.held[base]; !ok {
		panic("release of unreserved ports")
	}
	delete(p.held, base)
}

/// Owner reports who holds port, if anyone.
func (p *Ports_t) Owner(port uint16) (string, bool) {
	p.Lock()
	defer p.Unlock()

	for b, r := range p.held {
		if port >= b && int(port) < int(b)+r.n {
			return r.owner, true
		}
	}
	return "", false
}

type irqent_t struct {
	h     func()
	owner string
}

/// Irqs_t tracks interrupt line ownership and dispatches interrupts.
type Irqs_t struct {
	sync.Mutex
	lines map[int]irqent_t
	// Nstray counts interrupts raised on lines with no handler.
	Nstray int
}

/// MkIrqs returns an interrupt table with no handlers.
func MkIrqs() *Irqs_t {
	return &Irqs_t{lines: make(map[int]irqent_t)}
}

/// Register installs h for irq. Lines are not shared.
func (ir *Irqs_t) Register(irq int, h func(), owner string) bool {
	if h == nil {
		panic("nil handler")
	}
	ir.Lock()
	defer ir.Unlock()

	if _, ok := ir.lines[irq]; ok {
		return false
	}
	ir.lines[irq] = irqent_t{h: h, owner: owner}
	return true
}

/// Unregister removes the handler for irq.
func (ir *Irqs_t) Unregister(irq int) {
	ir.Lock()
	defer ir.Unlock()

	if _, ok := ir.lines[irq]; !ok {
		panic("unregister of free irq")
	}
	delete(ir.lines, irq)
}

/// Raise delivers an interrupt on irq. The handler runs without the
/// table lock held. It reports whether a handler was installed.
func (ir *Irqs_t) Raise(irq int) bool {
	ir.Lock()
	e, ok := ir.lines[irq]
	if !ok {
		ir.Nstray++
	}
	ir.Unlock()
	if !ok {
		return false
	}
	e.h()
	return true
}

/// Owner reports who holds irq, if anyone.
func (ir *Irqs_t) Owner(irq int) (string, bool) {
	ir.Lock()
	defer ir.Unlock()
	e, ok := ir.lines[irq]
	return e.owner, ok
}
