package ata

/// Outcome_t is the result of issuing a command.
type Outcome_t int

const (
	OK          Outcome_t = iota
	BUSYTIMEOUT           /// BSY never cleared; nothing was sent
	NOTREADY              /// drive never became ready after selection
	NOINTR                /// command sent but never completed
)

func (o Outcome_t) String() string {
	switch o {
	case OK:
		return "ok"
	case BUSYTIMEOUT:
		return "controller busy"
	case NOTREADY:
		return "drive not ready"
	case NOINTR:
		return "command timed out"
	}
	return "bad outcome"
}

/// waitstatus polls the status register until (st & mask) == want, at
/// most n times.
func (c *Ctlr_t) waitstatus(mask, want uint8, n int) bool {
	for i := 0; i < n; i++ {
		if c.inb(WD_STATUS)&mask == want {
			return true
		}
		c.nap()
	}
	return false
}

/// sendcmd programs the task file and issues cmd to drive. Each phase
/// has its own retry budget and nothing is retried on failure. The
/// caller holds c's lock.
func (c *Ctlr_t) sendcmd(drive, head, cyl, sec, cnt int, cmd uint8) Outcome_t {
	c.st.Ncmd.Inc()
	if !c.waitstatus(ST_BSY, 0, c.lim.Busyretries) {
		c.st.Nbusyto.Inc()
		return BUSYTIMEOUT
	}

	sdh := uint8(SDH_IBM | head&0xf)
	if drive != 0 {
		sdh |= SDH_SLAVE
	}
	c.outb(WD_SDH, sdh)
	c.outb(WD_SECCNT, uint8(cnt))
	c.outb(WD_SECTOR, uint8(sec))
	c.outb(WD_CYL_LO, uint8(cyl))
	c.outb(WD_CYL_HI, uint8(cyl>>8))
	// reset released, interrupts enabled
	c.outctl(CTL_HD15)

	if !c.waitstatus(ST_BSY|ST_DRDY, ST_DRDY, c.lim.Busyretries) {
		c.st.Nnotready.Inc()
		return NOTREADY
	}

	c.arm()
	c.outb(WD_COMMAND, cmd)

	for i := 0; i < c.lim.Cmdretries; i++ {
		if !c.expect.Load() {
			return OK
		}
		if c.inb(WD_STATUS)&ST_BSY == 0 {
			return OK
		}
		c.nap()
	}
	if c.expect.CompareAndSwap(true, false) {
		c.st.Nnointr.Inc()
		return NOINTR
	}
	// the interrupt raced the last poll
	return OK
}
