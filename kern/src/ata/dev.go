package ata

import "fmt"
import "time"

import "wdkern/kern/src/defs"
import "wdkern/kern/src/devsw"

/// Devreg_i is the device registry the driver publishes into.
type Devreg_i interface {
	Allocate(name, owner string, kind defs.Devkind_t, mode uint, uid, gid,
		bsize int) *devsw.Dev_t
	Register(*devsw.Dev_t) defs.Err_t
	Free(*devsw.Dev_t)
	Unregister(name string) bool
}

const (
	wdowner = "wd"
	wdmode  = 0640
	// minors per raw disk: the disk itself plus one per partition letter
	wdminors = 16
)

/// Disk_t is a raw drive.
type Disk_t struct {
	wd   *Wd_t
	ctlr *Ctlr_t
	slot int
	Unit int
	Name string
	// Dev is nil if the name could not be registered.
	Dev   *devsw.Dev_t
	Parts []*Part_t
}

/// Ident returns the drive's identification.
func (d *Disk_t) Ident() *Ident_t {
	return d.ctlr.Drives[d.slot]
}

/// Ctlr returns the controller and slot the drive sits on.
func (d *Disk_t) Ctlr() (*Ctlr_t, int) {
	return d.ctlr, d.slot
}

/// Read reads cnt sectors at blkno.
func (d *Disk_t) Read(blkno, cnt int, dst []uint8) defs.Err_t {
	t := time.Now()
	err := d.ctlr.readsectors(d.slot, blkno, cnt, dst)
	d.wd.Stats.Iotime.Add(t)
	return err
}

func (d *Disk_t) readahead(blkno, cnt int) {
	d.wd.Stats.Nreadahead.Inc()
}

/// Part_t is a partition of a raw drive: a window of Size sectors
/// starting at Start.
type Part_t struct {
	Raw    *Disk_t
	Start  int
	Size   int
	Letter byte
	Name   string
	Dev    *devsw.Dev_t
}

/// Read reads cnt sectors at blkno relative to the partition start.
/// Requests reaching past the end of the partition fail with -EINVAL.
func (p *Part_t) Read(blkno, cnt int, dst []uint8) defs.Err_t {
	if blkno < 0 || cnt <= 0 || blkno+cnt > p.Size {
		return -defs.EINVAL
	}
	return p.Raw.Read(p.Start+blkno, cnt, dst)
}

func opennop() defs.Err_t {
	return 0
}

/// publish hands dev to the registry. A failure is logged and the record
/// freed; the caller carries on without the device.
func (wd *Wd_t) publish(dev *devsw.Dev_t) defs.Err_t {
	if !wd.lim.Devs.Take() {
		wd.log.Printf("%s: device limit reached", dev.Name)
		wd.reg.Free(dev)
		return -defs.ENOMEM
	}
	if err := wd.reg.Register(dev); err != 0 {
		if err == -defs.EEXIST {
			wd.Stats.Ncollide.Inc()
		}
		wd.log.Printf("%s: cannot register: %v", dev.Name, err)
		wd.lim.Devs.Give()
		wd.reg.Free(dev)
		return err
	}
	wd.published = append(wd.published, dev.Name)
	return 0
}

/// register_raw creates the raw device for the drive in slot of c.
func (wd *Wd_t) register_raw(name string, c *Ctlr_t, slot, bsize int) (*Disk_t, defs.Err_t) {
	d := &Disk_t{wd: wd, ctlr: c, slot: slot, Unit: c.Idx*2 + slot, Name: name}
	id := d.Ident()
	wd.log.Printf("%s at %s slot %d: <%s> %s, %d/%d/%d, %d sectors, %s cache",
		name, c.Name, slot, id.Model(), id.Firmware(), id.Cyls(), id.Heads(),
		id.Spt(), id.Capacity(), id.Bufsize())

	dev := wd.reg.Allocate(name, wdowner, defs.DK_BLOCK, wdmode, 0, 0, bsize)
	dev.Rdev = defs.Mkdev(defs.D_WD, d.Unit*wdminors)
	dev.Size = id.Capacity()
	dev.Priv = d
	dev.Ops = devsw.Devsw_t{
		Open:  opennop,
		Close: opennop,
		Read:  d.Read,
		Write: func(int, int, []uint8) defs.Err_t {
			return -defs.ENODEV
		},
		Seek: func(int) defs.Err_t {
			return -defs.EINVAL
		},
		Ioctl: func(int, int) defs.Err_t {
			return -defs.ENOTTY
		},
		Readahead: d.readahead,
	}
	wd.Disks = append(wd.Disks, d)
	if err := wd.publish(dev); err != 0 {
		return d, err
	}
	d.Dev = dev
	return d, 0
}

/// register_part creates partition letter of raw.
func (wd *Wd_t) register_part(raw *Disk_t, start, size int, letter byte) (*Part_t, defs.Err_t) {
	if letter < 'a' || int(letter-'a') >= wdminors-1 {
		return nil, -defs.EINVAL
	}
	p := &Part_t{Raw: raw, Start: start, Size: size, Letter: letter}
	p.Name = fmt.Sprintf("%s%c", raw.Name, letter)

	dev := wd.reg.Allocate(p.Name, wdowner, defs.DK_BLOCK, wdmode, 0, 0,
		DEV_BSIZE)
	dev.Rdev = defs.Mkdev(defs.D_WD, raw.Unit*wdminors+1+int(letter-'a'))
	dev.Size = size
	dev.Priv = p
	// writes, seeks and ioctls go to the raw device
	dev.Ops = devsw.Devsw_t{
		Open:  opennop,
		Close: opennop,
		Read:  p.Read,
	}
	raw.Parts = append(raw.Parts, p)
	if err := wd.publish(dev); err != 0 {
		return p, err
	}
	p.Dev = dev
	wd.log.Printf("%s: start %d, %d sectors", p.Name, start, size)
	return p, 0
}

/// partitions discovers raw's partitions and registers a device for
/// each.
func (wd *Wd_t) partitions(raw *Disk_t) []Partent_t {
	ents := Discover(raw.Name, raw.Read, wd.lim.Maxparts, wd.log)
	for _, e := range ents {
		wd.register_part(raw, e.Start, e.Size, e.Letter)
	}
	return ents
}
