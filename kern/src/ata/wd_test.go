package ata

import "testing"

import "wdkern/kern/src/defs"
import "wdkern/kern/src/devsw"
import "wdkern/kern/src/idesim"
import "wdkern/kern/src/res"

/// rig_t is a machine with both legacy channels on an emulated bus.
type rig_t struct {
	bus   *idesim.Bus_t
	chans [2]*idesim.Chan_t
	ports *res.Ports_t
	irqs  *res.Irqs_t
	reg   *devsw.Registry_t
	log   *tlog_t
	wd    *Wd_t
}

/// mkrig attaches drives by unit number: unit 2*c+s is slot s of
/// channel c.
func mkrig(drives map[int]*idesim.Drive_t) *rig_t {
	r := &rig_t{bus: &idesim.Bus_t{}, reg: devsw.MkRegistry()}
	for i, desc := range Wdctlrs {
		ch := idesim.MkChan(desc.Base, desc.Ctl)
		irq := desc.Irq
		ch.Intr = func() {
			r.irqs.Raise(irq)
		}
		for s := 0; s < 2; s++ {
			ch.Drives[s] = drives[2*i+s]
		}
		r.chans[i] = ch
		r.bus.Attach(ch)
	}
	r.boot()
	return r
}

/// boot makes a fresh driver instance with its own port and interrupt
/// tables, sharing the bus and the device registry.
func (r *rig_t) boot() {
	r.ports = res.MkPorts()
	r.irqs = res.MkIrqs()
	r.log = &tlog_t{}
	r.wd = MkWd(Wdconf_t{Pio: r.bus, Ports: r.ports, Irqs: r.irqs,
		Reg: r.reg, Lim: testlim(), Log: r.log})
}

func mkdrive(im *spimg_t) *idesim.Drive_t {
	return &idesim.Drive_t{Img: im, Cyls: 300, Heads: 16, Spt: 63,
		Model: "SIM DISK", Serial: "0001", Fw: "1.0", Bufsecs: 128}
}

func (r *rig_t) dev(t *testing.T, name string) *devsw.Dev_t {
	d, ok := r.reg.Lookup(name)
	if !ok {
		t.Fatalf("%s not registered; have %v", name, r.reg.Names())
	}
	return d
}

func names(t *testing.T, r *rig_t, want ...string) {
	got := r.reg.Names()
	if len(got) != len(want) {
		t.Fatalf("names %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("names %v, want %v", got, want)
		}
	}
}

func TestInitPlainDOS(t *testing.T) {
	im := mkspimg()
	im.dospart(0, 0x83, 2048, 204800)
	im.stamp(2048 + 5)
	im.stamp(2048 + 6)
	im.stamp(2048 + 7)
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(im)})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	names(t, r, "wd0", "wd0i")

	raw := r.dev(t, "wd0")
	if raw.Size != 300*16*63 || raw.Bsize != DEV_BSIZE || raw.Kind != defs.DK_BLOCK {
		t.Fatalf("raw %+v", raw)
	}
	if raw.Rdev != defs.Mkdev(defs.D_WD, 0) {
		t.Fatalf("rdev %#x", raw.Rdev)
	}
	d := raw.Priv.(*Disk_t)
	if d.Ident().Model() != "SIM DISK" || d.Ident().Bufsize() != "64KB" {
		t.Fatalf("ident %q %q", d.Ident().Model(), d.Ident().Bufsize())
	}

	pd := r.dev(t, "wd0i")
	p := pd.Priv.(*Part_t)
	if p.Start != 2048 || p.Size != 204800 || pd.Size != 204800 {
		t.Fatalf("part %+v", p)
	}
	if pd.Rdev != defs.Mkdev(defs.D_WD, 1+8) {
		t.Fatalf("rdev %#x", pd.Rdev)
	}
	buf := make([]uint8, 3*DEV_BSIZE)
	if err := pd.CallRead(5, 3, buf); err != 0 {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if !stamped(buf[i*DEV_BSIZE:], 2048+5+i) {
			t.Fatalf("sector %d not stamped", i)
		}
	}
	if err := raw.CallRead(2048+6, 1, buf); err != 0 || !stamped(buf, 2048+6) {
		t.Fatalf("raw read %v", err)
	}
	if r.log.has("wd0 at wdc0 slot 0: <SIM DISK> 1.0, 300/16/63") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
	// sector 0, the label sector of the partition, then the reads above
	if r.wd.Stats.Nsect.Get() != 1+1+3+1 {
		t.Fatalf("nsect %d", r.wd.Stats.Nsect.Get())
	}
}

func TestInitDisklabel(t *testing.T) {
	im := mkspimg()
	im.dospart(0, 0xa5, 63, 100000)
	im.label(64, []Lpart_t{{Offset: 63, Size: 50000}, {Offset: 50063, Size: 20000}})
	im.stamp(50063)
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(im)})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	names(t, r, "wd0", "wd0a", "wd0b")
	b := r.dev(t, "wd0b")
	if b.Rdev != defs.Mkdev(defs.D_WD, 2) {
		t.Fatalf("rdev %#x", b.Rdev)
	}
	buf := make([]uint8, DEV_BSIZE)
	if err := b.CallRead(0, 1, buf); err != 0 || !stamped(buf, 50063) {
		t.Fatalf("read %v", err)
	}
}

func TestInitUnitNames(t *testing.T) {
	r := mkrig(map[int]*idesim.Drive_t{
		1: mkdrive(mkspimg()),
		2: mkdrive(mkspimg()),
	})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	names(t, r, "wd1", "wd2")
	if r.dev(t, "wd1").Rdev != defs.Mkdev(defs.D_WD, 16) ||
		r.dev(t, "wd2").Rdev != defs.Mkdev(defs.D_WD, 32) {
		t.Fatal("rdev")
	}
	d, ok := r.wd.Disk("wd2")
	if !ok {
		t.Fatal("no wd2")
	}
	if c, slot := d.Ctlr(); c.Name != "wdc1" || slot != 0 {
		t.Fatalf("%s slot %d", c.Name, slot)
	}
	// two drives without partition tables
	if r.log.has("no boot signature") != 2 {
		t.Fatalf("log %v", r.log.lines)
	}
}

func TestInitNoDrives(t *testing.T) {
	r := mkrig(nil)
	if err := r.wd.Init(); err != -defs.ENODEV {
		t.Fatalf("init %v", err)
	}
	if r.wd.Active() || r.reg.Len() != 0 {
		t.Fatal("driver active")
	}
	for _, desc := range Wdctlrs {
		if _, ok := r.ports.Owner(desc.Base); ok {
			t.Fatalf("%s ports held", desc.Name)
		}
		if _, ok := r.ports.Owner(desc.Ctl); ok {
			t.Fatalf("%s control port held", desc.Name)
		}
		if _, ok := r.irqs.Owner(desc.Irq); ok {
			t.Fatalf("%s irq held", desc.Name)
		}
	}
	if r.log.has("wd: no drives found") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
}

func TestInitReleasesEmptyController(t *testing.T) {
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(mkspimg())})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	if o, ok := r.ports.Owner(0x1f7); !ok || o != "wd" {
		t.Fatal("wdc0 ports released")
	}
	if _, ok := r.irqs.Owner(14); !ok {
		t.Fatal("wdc0 irq released")
	}
	if _, ok := r.ports.Owner(0x170); ok {
		t.Fatal("wdc1 ports held")
	}
	if _, ok := r.irqs.Owner(15); ok {
		t.Fatal("wdc1 irq held")
	}
	if err := r.wd.Init(); err != -defs.EBUSY {
		t.Fatalf("second init %v", err)
	}
}

func TestInitPortsTaken(t *testing.T) {
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(mkspimg()), 2: mkdrive(mkspimg())})
	r.ports.Reserve(0x1f4, 1, "other")
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	names(t, r, "wd2")
	if _, ok := r.irqs.Owner(14); ok {
		t.Fatal("wdc0 irq held")
	}
	if r.log.has("wdc0: ports 0x1f0-0x1f7 unavailable") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
}

func TestReinitCollides(t *testing.T) {
	im := mkspimg()
	im.dospart(0, 0x83, 2048, 204800)
	im.dospart(1, 0x06, 206848, 50000)
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(im)})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	first := r.wd
	pub := first.Published()
	if len(pub) != 3 {
		t.Fatalf("published %v", pub)
	}
	orig := r.dev(t, "wd0i")

	r.boot()
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	if n := r.wd.Stats.Ncollide.Get(); n != int64(len(pub)) {
		t.Fatalf("%d collisions", n)
	}
	if len(r.wd.Published()) != 0 {
		t.Fatalf("second driver published %v", r.wd.Published())
	}
	names(t, r, "wd0", "wd0i", "wd0j")
	if d := r.dev(t, "wd0i"); d != orig || d.Priv.(*Part_t).Raw.wd != first {
		t.Fatal("registration replaced")
	}
	if r.log.has("wd0i: cannot register") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
	// the second driver's disk still reads
	d, _ := r.wd.Disk("wd0")
	if d.Dev != nil {
		t.Fatal("unregistered disk has a device")
	}
	buf := make([]uint8, DEV_BSIZE)
	if err := d.Read(0, 1, buf); err != 0 {
		t.Fatal(err)
	}
}

func TestTeardown(t *testing.T) {
	im := mkspimg()
	im.dospart(0, 0x83, 2048, 204800)
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(im)})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	raw := r.dev(t, "wd0")
	r.wd.Teardown()
	if r.reg.Len() != 0 || raw.Registered() || r.wd.Active() {
		t.Fatal("devices left")
	}
	if _, ok := r.ports.Owner(0x1f0); ok {
		t.Fatal("ports held")
	}
	if _, ok := r.irqs.Owner(14); ok {
		t.Fatal("irq held")
	}
	// resources are free again, so the driver can come back
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	names(t, r, "wd0", "wd0i")
}

func TestDeviceLimit(t *testing.T) {
	im := mkspimg()
	im.dospart(0, 0x83, 100, 100)
	im.dospart(1, 0x83, 200, 100)
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(im)})
	r.wd.lim.Devs = 2
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	names(t, r, "wd0", "wd0i")
	if r.log.has("wd0j: device limit reached") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
	r.wd.Teardown()
	if r.wd.lim.Devs != 2 {
		t.Fatalf("budget %d", r.wd.lim.Devs)
	}
}

func TestEntryPoints(t *testing.T) {
	im := mkspimg()
	im.dospart(0, 0x83, 2048, 100)
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(im)})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	raw := r.dev(t, "wd0")
	part := r.dev(t, "wd0i")
	buf := make([]uint8, DEV_BSIZE)
	if raw.Ops.Open() != 0 || raw.Ops.Close() != 0 || part.Ops.Open() != 0 {
		t.Fatal("open")
	}
	if raw.CallWrite(0, 1, buf) != -defs.ENODEV {
		t.Fatal("raw write")
	}
	if raw.CallSeek(0) != -defs.EINVAL {
		t.Fatal("raw seek")
	}
	if raw.CallIoctl(0, 0) != -defs.ENOTTY {
		t.Fatal("raw ioctl")
	}
	if part.CallWrite(0, 1, buf) != -defs.ENODEV || part.CallSeek(0) != -defs.ENODEV ||
		part.CallIoctl(0, 0) != -defs.ENODEV {
		t.Fatal("partition entry points bound")
	}
	if part.Ops.Readahead != nil {
		t.Fatal("partition readahead bound")
	}
	raw.Ops.Readahead(0, 8)
	if r.wd.Stats.Nreadahead.Get() != 1 {
		t.Fatal("readahead")
	}

	for _, c := range [][2]int{{100, 1}, {99, 2}, {-1, 1}, {0, 0}} {
		if err := part.CallRead(c[0], c[1], buf); err != -defs.EINVAL {
			t.Errorf("part read %v: %v", c, err)
		}
	}
	if err := part.CallRead(99, 1, buf); err != 0 {
		t.Fatal(err)
	}
}

func TestReadErrors(t *testing.T) {
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(mkspimg())})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	d, _ := r.wd.Disk("wd0")
	ch := r.chans[0]
	buf := make([]uint8, 2*DEV_BSIZE)

	ncmds := len(ch.Cmds)
	if err := d.Read(300*16*63, 1, buf); err != -defs.EIO {
		t.Fatalf("past end %v", err)
	}
	if len(ch.Cmds) != ncmds {
		t.Fatal("command sent for unaddressable block")
	}
	if err := d.Read(0, 2, buf[:DEV_BSIZE]); err != -defs.EINVAL {
		t.Fatalf("short buffer %v", err)
	}
	if err := d.Read(0, MAXXFER+1, make([]uint8, (MAXXFER+1)*DEV_BSIZE)); err != -defs.EINVAL {
		t.Fatalf("long transfer %v", err)
	}

	// the drive accepts the command but never offers data
	ch.Nodrq = true
	if err := d.Read(0, 1, buf); err != -defs.ETIMEDOUT {
		t.Fatalf("nodrq %v", err)
	}
	ch.Nodrq = false
	if r.wd.Stats.Nxferto.Get() != 1 {
		t.Fatal("nxferto")
	}

	ch.Stickybusy = true
	if err := d.Read(0, 1, buf); err != -defs.ETIMEDOUT {
		t.Fatalf("sticky busy %v", err)
	}
	if r.wd.Stats.Nxferto.Get() != 2 {
		t.Fatal("nxferto")
	}
}

func TestReadNoInterrupt(t *testing.T) {
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(mkspimg())})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	d, _ := r.wd.Disk("wd0")
	ch := r.chans[0]
	ch.Noirq = true
	buf := make([]uint8, DEV_BSIZE)
	// BSY clears, so polling completes the command without an interrupt
	if err := d.Read(0, 1, buf); err != 0 {
		t.Fatal(err)
	}
	ch.Stickybusy = true
	if err := d.Read(0, 1, buf); err != -defs.EIO {
		t.Fatalf("no interrupt %v", err)
	}
	if r.wd.Stats.Nnointr.Get() != 1 || r.log.has("wdc0: slot 0: read 0: command timed out") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
}

func TestReadBusyController(t *testing.T) {
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(mkspimg())})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	d, _ := r.wd.Disk("wd0")
	// the empty wdc1 timed out twice during the probe
	nbusy := r.wd.Stats.Nbusyto.Get()
	r.chans[0].Stuckbusy = true
	buf := make([]uint8, DEV_BSIZE)
	if err := d.Read(0, 1, buf); err != -defs.EIO {
		t.Fatalf("busy %v", err)
	}
	if r.wd.Stats.Nbusyto.Get() != nbusy+1 || r.log.has("wdc0: slot 0: read 0: controller busy") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
}

func TestStrayAfterInit(t *testing.T) {
	r := mkrig(map[int]*idesim.Drive_t{0: mkdrive(mkspimg())})
	if err := r.wd.Init(); err != 0 {
		t.Fatal(err)
	}
	if !r.irqs.Raise(14) {
		t.Fatal("no handler")
	}
	if r.wd.Stats.Nstray.Get() != 1 || r.log.has("wdc0: stray interrupt") != 1 {
		t.Fatalf("log %v", r.log.lines)
	}
	if r.irqs.Raise(15) || r.irqs.Nstray != 1 {
		t.Fatal("wdc1 line handled")
	}
}
