package ata

/// Geom_t is a drive's reported geometry.
type Geom_t struct {
	Cyls  int
	Heads int
	Spt   int /// sectors per track
}

/// Chs_t is a cylinder/head/sector address. Sectors count from 1.
type Chs_t struct {
	Cyl  int
	Head int
	Sec  int
}

/// Block2chs converts a logical block number to CHS. The second result
/// is false when the block lies past the drive's last cylinder or the
/// geometry is unusable.
func Block2chs(lba int, g Geom_t) (Chs_t, bool) {
	if g.Heads <= 0 || g.Spt <= 0 || lba < 0 {
		return Chs_t{}, false
	}
	var c Chs_t
	c.Sec = lba%g.Spt + 1
	c.Head = (lba / g.Spt) % g.Heads
	c.Cyl = lba / g.Spt / g.Heads
	return c, c.Cyl < g.Cyls
}

/// Chs2block is the inverse of Block2chs.
func Chs2block(c Chs_t, g Geom_t) int {
	return (c.Cyl*g.Heads+c.Head)*g.Spt + c.Sec - 1
}

/// Nblocks is the drive's capacity in sectors.
func (g Geom_t) Nblocks() int {
	return g.Cyls * g.Heads * g.Spt
}
