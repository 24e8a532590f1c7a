package ata

import "fmt"
import "strings"

import "golang.org/x/text/encoding/charmap"

import "wdkern/kern/src/defs"

/// IDENT_WORDS is the length of the identify record.
const IDENT_WORDS = 256

/// Identify record word offsets.
const (
	ID_CYLS     = 0x01
	ID_HEADS    = 0x03
	ID_SPT      = 0x06
	ID_SERIAL   = 0x0a /// through 0x13
	ID_BUFSIZE  = 0x15 /// in 512-byte units
	ID_FIRMWARE = 0x17 /// through 0x1a
	ID_MODEL    = 0x1b /// through 0x2e
)

/// Ident_t is a typed view of a drive's identify record. The geometry is
/// checked once when the record is parsed.
type Ident_t struct {
	words [IDENT_WORDS]uint16
}

/// MkIdent parses an identify record. It fails with -EINVAL if the
/// record is short or the geometry cannot be addressed with CHS.
func MkIdent(w []uint16) (*Ident_t, defs.Err_t) {
	if len(w) != IDENT_WORDS {
		return nil, -defs.EINVAL
	}
	id := &Ident_t{}
	copy(id.words[:], w)
	g := id.Geom()
	// the head field is 4 bits, the sector register 8
	if g.Cyls <= 0 || g.Heads <= 0 || g.Heads > 16 || g.Spt <= 0 || g.Spt > 255 {
		return nil, -defs.EINVAL
	}
	return id, 0
}

/// Word returns raw word i of the record.
func (id *Ident_t) Word(i int) uint16 {
	return id.words[i]
}

func (id *Ident_t) Cyls() int  { return int(id.words[ID_CYLS]) }
func (id *Ident_t) Heads() int { return int(id.words[ID_HEADS]) }
func (id *Ident_t) Spt() int   { return int(id.words[ID_SPT]) }

/// Geom returns the drive's default CHS geometry.
func (id *Ident_t) Geom() Geom_t {
	return Geom_t{Cyls: id.Cyls(), Heads: id.Heads(), Spt: id.Spt()}
}

/// Capacity is the number of CHS addressable sectors.
func (id *Ident_t) Capacity() int {
	return id.Geom().Nblocks()
}

/// Bufsize formats the drive's buffer size in KB; the record counts
/// 512-byte units, so odd values end in ".5".
func (id *Ident_t) Bufsize() string {
	n := id.words[ID_BUFSIZE]
	half := ""
	if n&1 != 0 {
		half = ".5"
	}
	return fmt.Sprintf("%d%sKB", n/2, half)
}

func (id *Ident_t) Model() string    { return id.str(ID_MODEL, 0x2e) }
func (id *Ident_t) Serial() string   { return id.str(ID_SERIAL, 0x13) }
func (id *Ident_t) Firmware() string { return id.str(ID_FIRMWARE, 0x1a) }

/// str extracts words lo..hi inclusive as text. Each word holds two
/// characters, high byte first; trailing blanks and NULs are dropped.
func (id *Ident_t) str(lo, hi int) string {
	b := make([]uint8, 0, 2*(hi-lo+1))
	for i := lo; i <= hi; i++ {
		w := id.words[i]
		b = append(b, uint8(w>>8), uint8(w))
	}
	n := len(b)
	for n > 0 && (b[n-1] == ' ' || b[n-1] == 0) {
		n--
	}
	// drive firmware strings are in the PC's code page
	s, err := charmap.CodePage437.NewDecoder().Bytes(b[:n])
	if err != nil {
		return string(b[:n])
	}
	return strings.TrimRight(string(s), " \x00")
}

/// softreset pulses SRST and waits for the drives to settle. The caller
/// holds c's lock.
func (c *Ctlr_t) softreset() {
	c.outctl(CTL_HD15 | CTL_SRST)
	c.delay(c.lim.Resetdelay)
	c.outctl(CTL_HD15)
}

/// probe identifies the drive in slot. It returns nil if the slot is
/// empty or the drive does not answer; that is not an error.
func (c *Ctlr_t) probe(slot int) *Ident_t {
	c.Lock()
	defer c.Unlock()

	c.softreset()
	if o := c.sendcmd(slot, 0, 0, 0, 0, WDCC_IDENTIFY); o != OK {
		c.log.Printf("%s: slot %d: no drive (%v)", c.Name, slot, o)
		return nil
	}
	var w [IDENT_WORDS]uint16
	for i := range w {
		w[i] = c.pio.Inw(c.Base + WD_DATA)
	}
	c.softreset()

	id, err := MkIdent(w[:])
	if err != 0 {
		c.log.Printf("%s: slot %d: unusable geometry %d/%d/%d", c.Name,
			slot, w[ID_CYLS], w[ID_HEADS], w[ID_SPT])
		return nil
	}
	return id
}
