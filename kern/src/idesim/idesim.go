// Package idesim emulates legacy IDE channels at the register level.
// Drives are backed by disk images and addressed with CHS; reads and
// IDENTIFY are supported, which is all the wd driver issues.
package idesim

import "io"
import "sync"

const (
	r_data   = 0
	r_error  = 1
	r_seccnt = 2
	r_sector = 3
	r_cyllo  = 4
	r_cylhi  = 5
	r_sdh    = 6
	r_status = 7

	st_bsy  = 0x80
	st_drdy = 0x40
	st_dsc  = 0x10
	st_drq  = 0x08
	st_err  = 0x01

	er_unc  = 0x40
	er_idnf = 0x10
	er_abrt = 0x04

	ctl_srst = 0x04
	ctl_nien = 0x02

	cmd_read        = 0x20
	cmd_readnoretry = 0x21
	cmd_identify    = 0xec

	secsz = 512
)

/// Drive_t is an emulated drive.
type Drive_t struct {
	Img    io.ReaderAt
	Cyls   int
	Heads  int
	Spt    int
	Model  string
	Serial string
	Fw     string
	// Bufsecs is the cache size in 512-byte units.
	Bufsecs int
}

/// Nblocks is the drive's CHS capacity.
func (d *Drive_t) Nblocks() int {
	return d.Cyls * d.Heads * d.Spt
}

func putstr(w []uint16, s string) {
	b := make([]uint8, 2*len(w))
	for i := range b {
		b[i] = ' '
	}
	copy(b, s)
	for i := range w {
		w[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
}

/// Identify builds the drive's identify record.
func (d *Drive_t) Identify() [256]uint16 {
	var w [256]uint16
	w[0] = 0x0040 // fixed disk
	w[1] = uint16(d.Cyls)
	w[3] = uint16(d.Heads)
	w[4] = uint16(d.Spt * secsz)
	w[5] = secsz
	w[6] = uint16(d.Spt)
	putstr(w[0x0a:0x14], d.Serial)
	w[0x14] = 3 // dual ported, read-ahead cache
	w[0x15] = uint16(d.Bufsecs)
	putstr(w[0x17:0x1b], d.Fw)
	putstr(w[0x1b:0x2f], d.Model)
	return w
}

/// Chan_t is one channel: a command block, a control port and two drive
/// slots.
type Chan_t struct {
	sync.Mutex
	Base   uint16
	Ctl    uint16
	Drives [2]*Drive_t
	// Intr raises the channel's interrupt line. It is called without the
	// channel lock held.
	Intr func()

	// Stuckbusy keeps BSY asserted forever.
	Stuckbusy bool
	// Noirq suppresses completion interrupts.
	Noirq bool
	// Nodrq completes reads without ever offering data.
	Nodrq bool
	// Stickybusy leaves BSY set after a command is accepted.
	Stickybusy bool

	// Cmds records every command byte written.
	Cmds []uint8

	regs   [8]uint8
	devctl uint8
	status [2]uint8
	errs   [2]uint8
	buf    []uint8
}

/// MkChan returns a channel with the given ports and no drives.
func MkChan(base, ctl uint16) *Chan_t {
	ch := &Chan_t{Base: base, Ctl: ctl}
	ch.status = [2]uint8{st_drdy | st_dsc, st_drdy | st_dsc}
	return ch
}

func (ch *Chan_t) sel() int {
	return int(ch.regs[r_sdh]>>4) & 1
}

func (ch *Chan_t) empty() bool {
	return ch.Drives[0] == nil && ch.Drives[1] == nil
}

/// status reads the status of the selected drive. The caller holds the
/// lock.
func (ch *Chan_t) rstatus() uint8 {
	if ch.empty() {
		// nothing drives the bus
		return 0xff
	}
	if ch.Stuckbusy || ch.devctl&ctl_srst != 0 {
		return st_bsy
	}
	s := ch.sel()
	if ch.Drives[s] == nil {
		return 0
	}
	return ch.status[s]
}

func (ch *Chan_t) inb(port uint16) uint8 {
	ch.Lock()
	defer ch.Unlock()

	if port == ch.Ctl {
		return ch.rstatus()
	}
	switch port - ch.Base {
	case r_status:
		return ch.rstatus()
	case r_error:
		return ch.errs[ch.sel()]
	case r_data:
		w := ch.inw()
		return uint8(w)
	default:
		return ch.regs[port-ch.Base]
	}
}

/// inw pops one data word. The caller holds the lock.
func (ch *Chan_t) inw() uint16 {
	if len(ch.buf) < 2 {
		return 0xffff
	}
	w := uint16(ch.buf[0]) | uint16(ch.buf[1])<<8
	ch.buf = ch.buf[2:]
	if len(ch.buf) == 0 {
		ch.status[ch.sel()] &^= st_drq
	}
	return w
}

func (ch *Chan_t) outb(port uint16, v uint8) {
	raise := false
	ch.Lock()
	if port == ch.Ctl {
		ch.wctl(v)
	} else {
		r := port - ch.Base
		switch r {
		case r_status:
			ch.Cmds = append(ch.Cmds, v)
			raise = ch.command(v)
		case r_data:
		default:
			ch.regs[r] = v
		}
	}
	intr := ch.Intr
	ch.Unlock()
	if raise && intr != nil {
		intr()
	}
}

func (ch *Chan_t) wctl(v uint8) {
	was := ch.devctl
	ch.devctl = v
	if v&ctl_srst != 0 && was&ctl_srst == 0 {
		ch.buf = nil
		for s := range ch.status {
			ch.status[s] = st_drdy | st_dsc
			// diagnostic code: no error
			ch.errs[s] = 0x01
		}
	}
}

/// command executes cmd on the selected drive and reports whether an
/// interrupt should be raised. The caller holds the lock.
func (ch *Chan_t) command(cmd uint8) bool {
	s := ch.sel()
	d := ch.Drives[s]
	if d == nil || ch.Stuckbusy {
		return false
	}
	ch.errs[s] = 0
	ch.buf = nil
	switch cmd {
	case cmd_identify:
		w := d.Identify()
		ch.buf = make([]uint8, 0, secsz)
		for _, x := range w {
			ch.buf = append(ch.buf, uint8(x), uint8(x>>8))
		}
		ch.status[s] = st_drdy | st_dsc | st_drq
	case cmd_read, cmd_readnoretry:
		ch.read(s, d)
	default:
		ch.fail(s, er_abrt)
	}
	if ch.Stickybusy {
		ch.status[s] |= st_bsy
	}
	return !ch.Noirq && ch.devctl&ctl_nien == 0
}

func (ch *Chan_t) fail(s int, er uint8) {
	ch.errs[s] = er
	ch.status[s] = st_drdy | st_err
	ch.buf = nil
}

func (ch *Chan_t) read(s int, d *Drive_t) {
	cnt := int(ch.regs[r_seccnt])
	if cnt == 0 {
		cnt = 256
	}
	cyl := int(ch.regs[r_cyllo]) | int(ch.regs[r_cylhi])<<8
	head := int(ch.regs[r_sdh] & 0xf)
	sec := int(ch.regs[r_sector])
	if sec < 1 || sec > d.Spt || head >= d.Heads || cyl >= d.Cyls {
		ch.fail(s, er_idnf)
		return
	}
	lba := (cyl*d.Heads+head)*d.Spt + sec - 1
	if lba+cnt > d.Nblocks() {
		ch.fail(s, er_idnf)
		return
	}
	b := make([]uint8, cnt*secsz)
	// past the end of a short image reads as zeros
	if _, err := d.Img.ReadAt(b, int64(lba)*secsz); err != nil && err != io.EOF {
		ch.fail(s, er_unc)
		return
	}
	if ch.Nodrq {
		ch.status[s] = st_drdy | st_dsc
		return
	}
	ch.buf = b
	ch.status[s] = st_drdy | st_dsc | st_drq
}

/// Bus_t routes port accesses to channels. Unclaimed ports float high.
type Bus_t struct {
	chans []*Chan_t
}

/// Attach adds ch to the bus. Channels must be attached before the bus
/// is used.
func (b *Bus_t) Attach(ch *Chan_t) {
	b.chans = append(b.chans, ch)
}

func (b *Bus_t) route(port uint16) *Chan_t {
	for _, ch := range b.chans {
		if port == ch.Ctl || (port >= ch.Base && port < ch.Base+8) {
			return ch
		}
	}
	return nil
}

func (b *Bus_t) Inb(port uint16) uint8 {
	ch := b.route(port)
	if ch == nil {
		return 0xff
	}
	return ch.inb(port)
}

func (b *Bus_t) Outb(port uint16, v uint8) {
	if ch := b.route(port); ch != nil {
		ch.outb(port, v)
	}
}

func (b *Bus_t) Inw(port uint16) uint16 {
	ch := b.route(port)
	if ch == nil || port != ch.Base+r_data {
		return 0xffff
	}
	ch.Lock()
	defer ch.Unlock()
	return ch.inw()
}
