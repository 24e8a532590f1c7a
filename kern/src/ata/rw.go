package ata

import "wdkern/kern/src/defs"

/// waitdata polls until the drive asserts DRQ for the next sector. A
/// drive fault or error ends the wait with -EIO; exhausting the budget
/// yields -ETIMEDOUT.
func (c *Ctlr_t) waitdata() defs.Err_t {
	for i := 0; i < c.lim.Xferretries; i++ {
		st := c.inb(WD_STATUS)
		switch {
		case st&ST_BSY != 0:
		case st&(ST_ERR|ST_DF) != 0:
			c.log.Printf("%s: status %#x error %#x", c.Name, st,
				c.inb(WD_ERROR))
			return -defs.EIO
		case st&ST_DRQ != 0:
			return 0
		}
		c.delay(c.lim.Polldelay)
	}
	c.st.Nxferto.Inc()
	return -defs.ETIMEDOUT
}

/// readsectors reads cnt sectors starting at lba from the drive in slot
/// into dst.
func (c *Ctlr_t) readsectors(slot, lba, cnt int, dst []uint8) defs.Err_t {
	id := c.Drives[slot]
	if id == nil {
		return -defs.ENXIO
	}
	if cnt <= 0 || cnt > MAXXFER || len(dst) < cnt*DEV_BSIZE {
		return -defs.EINVAL
	}
	chs, ok := Block2chs(lba, id.Geom())
	if !ok {
		c.st.Nrerr.Inc()
		return -defs.EIO
	}

	c.Lock()
	defer c.Unlock()

	o := c.sendcmd(slot, chs.Head, chs.Cyl, chs.Sec, cnt, WDCC_READ)
	if o != OK {
		c.log.Printf("%s: slot %d: read %d: %v", c.Name, slot, lba, o)
		c.st.Nrerr.Inc()
		return -defs.EIO
	}
	for s := 0; s < cnt; s++ {
		if err := c.waitdata(); err != 0 {
			c.st.Nrerr.Inc()
			return err
		}
		sec := dst[s*DEV_BSIZE : (s+1)*DEV_BSIZE]
		for i := 0; i < DEV_BSIZE; i += 2 {
			w := c.pio.Inw(c.Base + WD_DATA)
			sec[i] = uint8(w)
			sec[i+1] = uint8(w >> 8)
		}
	}
	c.st.Nsect.Addn(cnt)
	return 0
}
