package main

import "fmt"
import "strconv"
import "strings"

import "github.com/golang/glog"
import "github.com/pkg/errors"
import "github.com/urfave/cli/v2"

import "wdkern/kern/src/ata"
import "wdkern/kern/src/defs"
import "wdkern/kern/src/devsw"
import "wdkern/kern/src/idesim"
import "wdkern/kern/src/klog"
import "wdkern/kern/src/limits"
import "wdkern/kern/src/res"

/// default translation for images without an explicit geometry
const (
	defheads = 16
	defspt   = 63
	maxcyls  = 0xffff
)

/// diskspec_t is one parsed --disk argument.
type diskspec_t struct {
	unit int
	path string
	// zero means derive from the image size
	geom ata.Geom_t
}

/// parsedisk parses "wdN=PATH[:C/H/S]".
func parsedisk(s string) (diskspec_t, error) {
	var ds diskspec_t
	name, path, ok := strings.Cut(s, "=")
	if !ok || path == "" {
		return ds, errors.Errorf("bad disk %q: want wdN=PATH", s)
	}
	u, err := strconv.Atoi(strings.TrimPrefix(name, "wd"))
	if err != nil || !strings.HasPrefix(name, "wd") || u < 0 || u >= 2*len(ata.Wdctlrs) {
		return ds, errors.Errorf("bad disk name %q", name)
	}
	ds.unit = u
	ds.path = path
	if i := strings.LastIndexByte(path, ':'); i >= 0 {
		if g, ok := parsegeom(path[i+1:]); ok {
			ds.path = path[:i]
			ds.geom = g
		}
	}
	if ds.geom != (ata.Geom_t{}) {
		g := ds.geom
		if g.Cyls < 1 || g.Cyls > maxcyls || g.Heads < 1 || g.Heads > 16 ||
			g.Spt < 1 || g.Spt > 255 {
			return ds, errors.Errorf("bad geometry %d/%d/%d", g.Cyls,
				g.Heads, g.Spt)
		}
	}
	return ds, nil
}

func parsegeom(s string) (ata.Geom_t, bool) {
	f := strings.Split(s, "/")
	if len(f) != 3 {
		return ata.Geom_t{}, false
	}
	var n [3]int
	for i := range f {
		v, err := strconv.Atoi(f[i])
		if err != nil {
			return ata.Geom_t{}, false
		}
		n[i] = v
	}
	return ata.Geom_t{Cyls: n[0], Heads: n[1], Spt: n[2]}, true
}

/// machine_t is the emulated PC: two channels on a bus, the resource
/// tables and a device registry, with the driver booted on top.
type machine_t struct {
	bus   *idesim.Bus_t
	chans []*idesim.Chan_t
	ports *res.Ports_t
	irqs  *res.Irqs_t
	reg   *devsw.Registry_t
	log   *klog.Klog_t
	wd    *ata.Wd_t
	imgs  []*image_t
	// result of the driver's Init
	initerr defs.Err_t
}

/// boot attaches the images and initializes the driver.
func boot(specs []diskspec_t, lim *limits.Wdlimit_t, fwd bool) (*machine_t, error) {
	m := &machine_t{bus: &idesim.Bus_t{}, ports: res.MkPorts(),
		irqs: res.MkIrqs(), reg: devsw.MkRegistry(), log: klog.MkKlog(1 << 14)}
	if fwd {
		m.log.Fwd = func(s string) {
			glog.Info(s)
		}
	}
	for _, desc := range ata.Wdctlrs {
		ch := idesim.MkChan(desc.Base, desc.Ctl)
		irq := desc.Irq
		ch.Intr = func() {
			m.irqs.Raise(irq)
		}
		m.chans = append(m.chans, ch)
		m.bus.Attach(ch)
	}
	for _, ds := range specs {
		ch := m.chans[ds.unit/2]
		if ch.Drives[ds.unit%2] != nil {
			m.close()
			return nil, errors.Errorf("wd%d attached twice", ds.unit)
		}
		im, err := openimage(ds.path)
		if err != nil {
			m.close()
			return nil, err
		}
		m.imgs = append(m.imgs, im)
		g := ds.geom
		if g == (ata.Geom_t{}) {
			g = ata.Geom_t{Heads: defheads, Spt: defspt}
			g.Cyls = int(im.size / (defheads * defspt * ata.DEV_BSIZE))
			if g.Cyls > maxcyls {
				g.Cyls = maxcyls
			}
			if g.Cyls == 0 {
				m.close()
				return nil, errors.Errorf("%s: image smaller than one cylinder",
					ds.path)
			}
		}
		ch.Drives[ds.unit%2] = &idesim.Drive_t{Img: im, Cyls: g.Cyls,
			Heads: g.Heads, Spt: g.Spt, Model: "WDCTL " + basename(ds.path),
			Serial: fmt.Sprintf("%08x", im.size), Fw: "1.0", Bufsecs: 256}
	}
	m.wd = ata.MkWd(ata.Wdconf_t{Pio: m.bus, Ports: m.ports, Irqs: m.irqs,
		Reg: m.reg, Lim: lim, Log: m.log})
	m.initerr = m.wd.Init()
	return m, nil
}

func basename(p string) string {
	if i := strings.LastIndexAny(p, `/\`); i >= 0 {
		p = p[i+1:]
	}
	return p
}

func (m *machine_t) close() {
	if m.wd != nil {
		m.wd.Teardown()
	}
	for _, im := range m.imgs {
		im.Close()
	}
	m.imgs = nil
}

/// dev finds a registered device by name.
func (m *machine_t) dev(name string) (*devsw.Dev_t, error) {
	d, ok := m.reg.Lookup(name)
	if !ok {
		return nil, errors.Errorf("%s: no such device", name)
	}
	return d, nil
}

/// bootctx boots the machine described by c's global flags.
func bootctx(c *cli.Context) (*machine_t, error) {
	var specs []diskspec_t
	for _, s := range c.StringSlice("disk") {
		ds, err := parsedisk(s)
		if err != nil {
			return nil, err
		}
		specs = append(specs, ds)
	}
	if len(specs) == 0 {
		return nil, errors.New("no disks attached; use --disk wdN=PATH")
	}
	lim := limits.Wdlimit.Copy()
	lim.Cmdretries = c.Int("cmd-retries")
	lim.Xferretries = c.Int("xfer-retries")
	lim.Polldelay = c.Duration("poll")
	lim.Resetdelay = c.Duration("reset-delay")
	return boot(specs, lim, c.Bool("verbose"))
}
