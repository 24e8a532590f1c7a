// Package ata is the PIO driver for ATA/IDE disk controllers. At boot it
// identifies the drives on both legacy controllers, publishes a raw block
// device per drive and one device per partition found on it.
package ata

import "fmt"

import "golang.org/x/sync/errgroup"

import "wdkern/kern/src/defs"
import "wdkern/kern/src/devsw"
import "wdkern/kern/src/klog"
import "wdkern/kern/src/limits"

/// Ports_i reserves I/O port ranges.
type Ports_i interface {
	Reserve(base uint16, n int, owner string) bool
	Release(base uint16)
}

/// Irqs_i installs interrupt handlers.
type Irqs_i interface {
	Register(irq int, h func(), owner string) bool
	Unregister(irq int)
}

/// Wdconf_t wires the driver to the rest of the kernel. Zero fields take
/// the system defaults.
type Wdconf_t struct {
	Pio   Pio_i
	Ports Ports_i
	Irqs  Irqs_i
	Reg   Devreg_i          /// devsw.Devices
	Lim   *limits.Wdlimit_t /// a copy of limits.Wdlimit
	Log   klog.Logger_i     /// klog.Console
	Ctlrs []Ctlrdesc_t      /// Wdctlrs
}

/// Wd_t is the driver instance.
type Wd_t struct {
	Ctlrs []*Ctlr_t
	// Disks lists every identified drive in unit order, registered or
	// not.
	Disks []*Disk_t
	Stats Wdstats_t

	ports Ports_i
	irqs  Irqs_i
	reg   Devreg_i
	lim   *limits.Wdlimit_t
	log   klog.Logger_i

	published []string
	active    bool
}

/// MkWd builds a driver from conf. Nothing touches the hardware until
/// Init.
func MkWd(conf Wdconf_t) *Wd_t {
	if conf.Pio == nil || conf.Ports == nil || conf.Irqs == nil {
		panic("wd: incomplete configuration")
	}
	wd := &Wd_t{}
	wd.ports = conf.Ports
	wd.irqs = conf.Irqs
	wd.reg = conf.Reg
	if wd.reg == nil {
		wd.reg = devsw.Devices
	}
	wd.lim = conf.Lim
	if wd.lim == nil {
		wd.lim = limits.Wdlimit.Copy()
	}
	wd.log = conf.Log
	if wd.log == nil {
		wd.log = klog.Console
	}
	descs := conf.Ctlrs
	if descs == nil {
		descs = Wdctlrs[:]
	}
	for i, desc := range descs {
		c := mkctlr(i, desc, conf.Pio, wd.lim, wd.log, &wd.Stats)
		wd.Ctlrs = append(wd.Ctlrs, c)
	}
	return wd
}

/// Init claims the controllers' resources, probes all drive slots and
/// publishes devices for what it finds. A controller without drives
/// gives its resources back. If no drive is found at all the driver
/// stays inactive and Init returns -ENODEV; the kernel boots regardless.
func (wd *Wd_t) Init() defs.Err_t {
	if wd.active {
		return -defs.EBUSY
	}
	for _, c := range wd.Ctlrs {
		if !wd.irqs.Register(c.Irq, c.Intr, wdowner) {
			wd.log.Printf("%s: irq %d unavailable", c.Name, c.Irq)
			continue
		}
		c.haveirq = true
	}
	for _, c := range wd.Ctlrs {
		if !c.haveirq {
			continue
		}
		if !wd.ports.Reserve(c.Base, WD_NPORTS, wdowner) {
			wd.log.Printf("%s: ports %#x-%#x unavailable", c.Name, c.Base,
				c.Base+WD_NPORTS-1)
			continue
		}
		if !wd.ports.Reserve(c.Ctl, 1, wdowner) {
			wd.log.Printf("%s: port %#x unavailable", c.Name, c.Ctl)
			wd.ports.Release(c.Base)
			continue
		}
		c.haveports = true
	}

	// controllers have independent locks, so they are probed in parallel
	var g errgroup.Group
	for _, c := range wd.Ctlrs {
		if !c.haveports {
			continue
		}
		g.Go(func() error {
			for slot := range c.Drives {
				c.Drives[slot] = c.probe(slot)
			}
			return nil
		})
	}
	g.Wait()

	found := 0
	for _, c := range wd.Ctlrs {
		n := c.ndrives()
		if n == 0 {
			wd.release(c)
		}
		found += n
	}
	if found == 0 {
		wd.log.Printf("wd: no drives found")
		return -defs.ENODEV
	}
	wd.active = true

	// partition discovery reads through the raw device, so it follows
	// the raw registration
	for _, c := range wd.Ctlrs {
		for slot := range c.Drives {
			if !c.Present(slot) {
				continue
			}
			name := fmt.Sprintf("wd%d", c.Idx*2+slot)
			d, _ := wd.register_raw(name, c, slot, DEV_BSIZE)
			wd.partitions(d)
		}
	}
	return 0
}

func (wd *Wd_t) release(c *Ctlr_t) {
	if c.haveports {
		wd.ports.Release(c.Base)
		wd.ports.Release(c.Ctl)
		c.haveports = false
	}
	if c.haveirq {
		wd.irqs.Unregister(c.Irq)
		c.haveirq = false
	}
}

/// Teardown withdraws every device the driver published and releases
/// its ports and interrupt lines.
func (wd *Wd_t) Teardown() {
	for i := len(wd.published) - 1; i >= 0; i-- {
		if wd.reg.Unregister(wd.published[i]) {
			wd.lim.Devs.Give()
		}
	}
	wd.published = nil
	for _, c := range wd.Ctlrs {
		wd.release(c)
		c.Drives = [2]*Ident_t{}
	}
	wd.Disks = nil
	wd.active = false
}

/// Active reports whether Init found any drive.
func (wd *Wd_t) Active() bool {
	return wd.active
}

/// Published lists the names this driver registered, in order.
func (wd *Wd_t) Published() []string {
	return append([]string(nil), wd.published...)
}

/// Disk finds a drive by its raw device name.
func (wd *Wd_t) Disk(name string) (*Disk_t, bool) {
	for _, d := range wd.Disks {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}
