package defs

/// Device majors used by the disk subsystem.
const (
	D_CONSOLE int = 1 /// console device
	D_RAWDISK     = 5 /// raw disk interface
	D_WD          = 8 /// ATA/IDE disks and their partitions
	D_FIRST       = D_CONSOLE
	D_LAST        = D_WD
)

/// Devkind_t distinguishes block and character devices in the registry.
type Devkind_t int

const (
	DK_BLOCK Devkind_t = 1
	DK_CHAR            = 2
)

/// Mkdev encodes a major and minor device number into a 64-bit identifier.
func Mkdev(_maj, _min int) uint {
	maj := uint(_maj)
	min := uint(_min)
	if min > 0xff {
		panic("bad minor")
	}
	m := maj<<8 | min
	return uint(m << 32)
}

/// Unmkdev returns the major and minor components of a device number.
func Unmkdev(d uint) (int, int) {
	return int(d >> 40), int(uint8(d >> 32))
}
