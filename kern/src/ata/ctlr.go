package ata

import "sync"
import "sync/atomic"
import "time"

import "wdkern/kern/src/klog"
import "wdkern/kern/src/limits"

/// Pio_i is programmed I/O access to the controller's ports.
type Pio_i interface {
	Inb(port uint16) uint8
	Outb(port uint16, v uint8)
	Inw(port uint16) uint16
}

/// Ctlrdesc_t names a controller and the resources it decodes.
type Ctlrdesc_t struct {
	Name string
	Base uint16 /// command block
	Ctl  uint16 /// device control / alternate status
	Irq  int
}

/// Wdctlrs are the two legacy ISA controllers.
var Wdctlrs = [2]Ctlrdesc_t{
	{Name: "wdc0", Base: 0x1f0, Ctl: 0x3f6, Irq: 14},
	{Name: "wdc1", Base: 0x170, Ctl: 0x376, Irq: 15},
}

/// Ctlr_t is one controller with its two drive slots. The mutex is held
/// from register programming through the end of the data transfer, so
/// at most one command per controller is in flight.
type Ctlr_t struct {
	sync.Mutex
	Ctlrdesc_t
	Idx int
	// Drives holds the identification of each slot; nil means no drive.
	// Written during probe only.
	Drives [2]*Ident_t

	pio Pio_i
	lim *limits.Wdlimit_t
	log klog.Logger_i
	st  *Wdstats_t

	// set while a command awaits its interrupt
	expect atomic.Bool
	done   chan struct{}
	// resources held
	haveports bool
	haveirq   bool
}

func mkctlr(idx int, desc Ctlrdesc_t, pio Pio_i, lim *limits.Wdlimit_t,
	log klog.Logger_i, st *Wdstats_t) *Ctlr_t {
	c := &Ctlr_t{}
	c.Ctlrdesc_t = desc
	c.Idx = idx
	c.pio = pio
	c.lim = lim
	c.log = log
	c.st = st
	c.done = make(chan struct{}, 1)
	return c
}

func (c *Ctlr_t) inb(reg uint16) uint8 {
	return c.pio.Inb(c.Base + reg)
}

func (c *Ctlr_t) outb(reg uint16, v uint8) {
	c.pio.Outb(c.Base+reg, v)
}

func (c *Ctlr_t) outctl(v uint8) {
	c.pio.Outb(c.Ctl, v)
}

/// nap waits one poll interval, returning early if the interrupt
/// handler signals completion.
func (c *Ctlr_t) nap() {
	d := c.lim.Polldelay
	if d <= 0 {
		select {
		case <-c.done:
		default:
		}
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-c.done:
	case <-t.C:
	}
}

func (c *Ctlr_t) delay(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}

/// Present reports whether slot holds an identified drive.
func (c *Ctlr_t) Present(slot int) bool {
	return c.Drives[slot] != nil
}

func (c *Ctlr_t) ndrives() int {
	n := 0
	for _, d := range c.Drives {
		if d != nil {
			n++
		}
	}
	return n
}
