package ata

import "fmt"

import "wdkern/kern/src/defs"
import "wdkern/kern/src/klog"
import "wdkern/kern/src/util"

/// DOS partition table layout in sector 0.
const (
	DOSBBSECTOR = 0
	DOSPARTOFF  = 0x1be
	DOSPARTSIZE = 16
	NDOSPART    = 4
	DOSMAGICOFF = 0x1fe
	DOSMAGIC    = 0xaa55
)

/// DOS partition types treated as extended; their contents are not
/// walked.
const (
	DOSPTYP_EXT      = 0x05
	DOSPTYP_EXTLBA   = 0x0f
	DOSPTYP_LINUXEXT = 0x85
)

/// BSD disklabel placement within a DOS partition and its layout.
const (
	LABELSECTOR   = 1
	LABELOFFSET   = 0
	DISKMAGIC     = 0x82564557
	MAXPARTITIONS = 8
	DL_MAGIC      = 0   /// d_magic
	DL_NPARTS     = 138 /// d_npartitions
	DL_PARTS      = 148 /// d_partitions[]
	DL_PARTSIZE   = 16
)

/// Dospart_t is one entry of the DOS partition table.
type Dospart_t struct {
	Flag  uint8
	Shd   uint8
	Ssect uint8
	Scyl  uint8
	Typ   uint8
	Ehd   uint8
	Esect uint8
	Ecyl  uint8
	Start uint32
	Size  uint32
}

/// Extended reports whether the entry is an extended partition.
func (dp *Dospart_t) Extended() bool {
	switch dp.Typ {
	case DOSPTYP_EXT, DOSPTYP_EXTLBA, DOSPTYP_LINUXEXT:
		return true
	}
	return false
}

func (dp Dospart_t) String() string {
	return fmt.Sprintf("flag %#02x typ %#02x start %d size %d", dp.Flag,
		dp.Typ, dp.Start, dp.Size)
}

/// Parsembr decodes the partition table in sector 0. The second result
/// reports whether the boot signature is present.
func Parsembr(sec []uint8) ([NDOSPART]Dospart_t, bool) {
	var ret [NDOSPART]Dospart_t
	if len(sec) < DEV_BSIZE {
		return ret, false
	}
	for i := range ret {
		e := sec[DOSPARTOFF+i*DOSPARTSIZE:]
		dp := &ret[i]
		dp.Flag = e[0]
		dp.Shd = e[1]
		dp.Ssect = e[2]
		dp.Scyl = e[3]
		dp.Typ = e[4]
		dp.Ehd = e[5]
		dp.Esect = e[6]
		dp.Ecyl = e[7]
		dp.Start = uint32(util.Readn(e, 4, 8))
		dp.Size = uint32(util.Readn(e, 4, 12))
	}
	return ret, util.Readn(sec, 2, DOSMAGICOFF) == DOSMAGIC
}

/// Lpart_t is one disklabel partition slot. Offsets are absolute sector
/// numbers on the disk.
type Lpart_t struct {
	Size   uint32
	Offset uint32
	Fstype uint8
}

/// Parselabel decodes a disklabel from the label sector. It returns
/// false if the magic is absent.
func Parselabel(sec []uint8, nslots int) ([]Lpart_t, bool) {
	off := LABELOFFSET
	if len(sec) < off+DL_PARTS+MAXPARTITIONS*DL_PARTSIZE {
		return nil, false
	}
	if uint32(util.Readn(sec, 4, off+DL_MAGIC)) != DISKMAGIC {
		return nil, false
	}
	nslots = util.Min(nslots, MAXPARTITIONS)
	ret := make([]Lpart_t, nslots)
	for i := range ret {
		p := off + DL_PARTS + i*DL_PARTSIZE
		ret[i].Size = uint32(util.Readn(sec, 4, p))
		ret[i].Offset = uint32(util.Readn(sec, 4, p+4))
		ret[i].Fstype = uint8(util.Readn(sec, 1, p+12))
	}
	return ret, true
}

/// Partent_t describes a discovered partition device.
type Partent_t struct {
	Typ    uint8 /// DOS type of the containing partition
	Start  int
	Size   int
	Letter byte
	// Label is set when the entry came from a disklabel slot.
	Label bool
}

/// Namer_t carries partition naming state through one disk's
/// discovery. Label slots are lettered by index; whole DOS partitions
/// take letters from 'i' on.
type Namer_t struct {
	next     byte
	labelled bool
}

/// MkNamer returns the naming state for a fresh disk.
func MkNamer() Namer_t {
	return Namer_t{next: 'a' + MAXPARTITIONS}
}

func (n *Namer_t) dosletter() byte {
	l := n.next
	n.next++
	return l
}

/// Sectread_f reads cnt sectors at blkno.
type Sectread_f func(blkno, cnt int, dst []uint8) defs.Err_t

/// Discover reads the partition table through rd and returns the
/// partitions in discovery order: DOS slots 0..3, label slots in index
/// order. name prefixes diagnostics.
func Discover(name string, rd Sectread_f, maxparts int, log klog.Logger_i) []Partent_t {
	sec := make([]uint8, DEV_BSIZE)
	if err := rd(DOSBBSECTOR, 1, sec); err != 0 {
		log.Printf("%s: cannot read partition table: %v", name, err)
		return nil
	}
	dps, sig := Parsembr(sec)
	if !sig {
		log.Printf("%s: no boot signature", name)
	}

	var ret []Partent_t
	nm := MkNamer()
	lsec := make([]uint8, DEV_BSIZE)
	for i := range dps {
		dp := &dps[i]
		if dp.Typ == 0 {
			continue
		}
		if dp.Extended() {
			log.Printf("%s: contains extended partitions (unsupported)", name)
			continue
		}
		start, size := int(dp.Start), int(dp.Size)
		var lps []Lpart_t
		haslabel := false
		if size > LABELSECTOR {
			if err := rd(start+LABELSECTOR, 1, lsec); err != 0 {
				log.Printf("%s: cannot read label sector of partition %d: %v",
					name, i, err)
			} else {
				lps, haslabel = Parselabel(lsec, maxparts)
			}
		}
		if haslabel && !nm.labelled {
			nm.labelled = true
			for j, lp := range lps {
				if lp.Size == 0 {
					continue
				}
				ret = append(ret, Partent_t{Typ: dp.Typ,
					Start: int(lp.Offset), Size: int(lp.Size),
					Letter: byte('a' + j), Label: true})
			}
			continue
		}
		if haslabel {
			log.Printf("%s: multiple disklabels, using the first", name)
		}
		ret = append(ret, Partent_t{Typ: dp.Typ, Start: start, Size: size,
			Letter: nm.dosletter()})
	}
	return ret
}
