package main

import "encoding/hex"
import "fmt"
import "io"
import "os"
import "strconv"

import "github.com/pkg/errors"
import "github.com/urfave/cli/v2"
import "golang.org/x/arch/x86/x86asm"

import "wdkern/kern/src/ata"
import "wdkern/kern/src/defs"
import "wdkern/kern/src/stats"

/// boot code is loaded and entered at this address
const bootorg = 0x7c00

/// withmachine boots, runs f and tears the machine down again.
func withmachine(f func(*cli.Context, *machine_t) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		m, err := bootctx(c)
		if err != nil {
			return err
		}
		defer m.close()
		return f(c, m)
	}
}

/// active fails if the driver found nothing.
func (m *machine_t) active() error {
	if m.initerr != 0 {
		return errors.Wrap(m.initerr, "wd")
	}
	return nil
}

var lscmd = &cli.Command{
	Name:  "ls",
	Usage: "list the devices the driver registered",
	Action: withmachine(func(c *cli.Context, m *machine_t) error {
		if err := m.active(); err != nil {
			return err
		}
		w := c.App.Writer
		for _, name := range m.reg.Names() {
			d, _ := m.reg.Lookup(name)
			maj, min := defs.Unmkdev(d.Rdev)
			desc := ""
			switch p := d.Priv.(type) {
			case *ata.Disk_t:
				desc = "<" + p.Ident().Model() + ">"
			case *ata.Part_t:
				desc = fmt.Sprintf("start %d", p.Start)
			}
			fmt.Fprintf(w, "%-6s %3d,%-3d %10d  %s\n", name, maj, min,
				d.Size, desc)
		}
		return nil
	}),
}

var identcmd = &cli.Command{
	Name:      "ident",
	Usage:     "show a drive's identification",
	ArgsUsage: "wdN",
	Action: withmachine(func(c *cli.Context, m *machine_t) error {
		if err := m.active(); err != nil {
			return err
		}
		name := c.Args().First()
		d, ok := m.wd.Disk(name)
		if !ok {
			return errors.Errorf("%s: no such drive", name)
		}
		id := d.Ident()
		ct, slot := d.Ctlr()
		w := c.App.Writer
		fmt.Fprintf(w, "%s at %s slot %d\n", d.Name, ct.Name, slot)
		fmt.Fprintf(w, "model     %s\n", id.Model())
		fmt.Fprintf(w, "serial    %s\n", id.Serial())
		fmt.Fprintf(w, "firmware  %s\n", id.Firmware())
		fmt.Fprintf(w, "geometry  %d/%d/%d\n", id.Cyls(), id.Heads(), id.Spt())
		fmt.Fprintf(w, "sectors   %d\n", id.Capacity())
		fmt.Fprintf(w, "cache     %s\n", id.Bufsize())
		return nil
	}),
}

/// readdev reads cnt sectors at blkno from the named device.
func (m *machine_t) readdev(name string, blkno, cnt int) ([]uint8, error) {
	d, err := m.dev(name)
	if err != nil {
		return nil, err
	}
	buf := make([]uint8, cnt*ata.DEV_BSIZE)
	if err := d.CallRead(blkno, cnt, buf); err != 0 {
		return nil, errors.Wrapf(err, "read %s at %d", name, blkno)
	}
	return buf, nil
}

var readcmd = &cli.Command{
	Name:      "read",
	Usage:     "hex dump sectors of a device",
	ArgsUsage: "DEV LBA [COUNT]",
	Action: withmachine(func(c *cli.Context, m *machine_t) error {
		if err := m.active(); err != nil {
			return err
		}
		if c.NArg() < 2 {
			return errors.New("usage: read DEV LBA [COUNT]")
		}
		lba, err := strconv.Atoi(c.Args().Get(1))
		if err != nil {
			return errors.Wrap(err, "lba")
		}
		cnt := 1
		if c.NArg() > 2 {
			if cnt, err = strconv.Atoi(c.Args().Get(2)); err != nil {
				return errors.Wrap(err, "count")
			}
		}
		if cnt <= 0 || cnt > ata.MAXXFER {
			return errors.Errorf("count must be 1-%d", ata.MAXXFER)
		}
		buf, err := m.readdev(c.Args().First(), lba, cnt)
		if err != nil {
			return err
		}
		dw := hex.Dumper(c.App.Writer)
		dw.Write(buf)
		return dw.Close()
	}),
}

var mbrcmd = &cli.Command{
	Name:      "mbr",
	Usage:     "decode a drive's partition table and boot code",
	ArgsUsage: "wdN",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "n",
			Value: 8,
			Usage: "boot code instructions to disassemble",
		},
	},
	Action: withmachine(func(c *cli.Context, m *machine_t) error {
		if err := m.active(); err != nil {
			return err
		}
		sec, err := m.readdev(c.Args().First(), ata.DOSBBSECTOR, 1)
		if err != nil {
			return err
		}
		w := c.App.Writer
		dps, sig := ata.Parsembr(sec)
		if !sig {
			fmt.Fprintf(w, "no boot signature\n")
		}
		for i, dp := range dps {
			if dp.Typ == 0 {
				continue
			}
			x := ""
			if dp.Extended() {
				x = " (extended)"
			}
			fmt.Fprintf(w, "%d: %v%s\n", i, dp, x)
		}
		disasm(w, sec[:ata.DOSPARTOFF], c.Int("n"))
		return nil
	}),
}

/// disasm prints up to n real mode instructions from code.
func disasm(w io.Writer, code []uint8, n int) {
	off := 0
	for i := 0; i < n && off < len(code); i++ {
		inst, err := x86asm.Decode(code[off:], 16)
		if err != nil {
			fmt.Fprintf(w, "%#06x  (bad)\n", bootorg+off)
			return
		}
		pc := uint64(bootorg + off)
		fmt.Fprintf(w, "%#06x  %-16x %s\n", pc, code[off:off+inst.Len],
			x86asm.IntelSyntax(inst, pc, nil))
		off += inst.Len
	}
}

var dmesgcmd = &cli.Command{
	Name:  "dmesg",
	Usage: "print the driver's boot messages",
	Action: withmachine(func(c *cli.Context, m *machine_t) error {
		fmt.Fprint(c.App.Writer, m.log.Dmesg())
		return nil
	}),
}

var statscmd = &cli.Command{
	Name:  "stats",
	Usage: "print driver counters after boot",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "also write the counters as a pprof profile to `FILE`",
		},
	},
	Action: withmachine(func(c *cli.Context, m *machine_t) error {
		fmt.Fprint(c.App.Writer, m.wd.Stats.String())
		out := c.String("output")
		if out == "" {
			return nil
		}
		p := stats.Profile(map[string]interface{}{"wd": &m.wd.Stats})
		f, err := os.Create(out)
		if err != nil {
			return errors.Wrap(err, "profile")
		}
		if err := p.Write(f); err != nil {
			f.Close()
			return errors.Wrapf(err, "write %s", out)
		}
		return f.Close()
	}),
}
