package ata

/// arm marks a command as awaiting its interrupt. A completion left
/// over from an earlier command is discarded first.
func (c *Ctlr_t) arm() {
	select {
	case <-c.done:
	default:
	}
	c.expect.Store(true)
}

/// Intr is the controller's interrupt handler. It never touches the
/// controller's registers and never blocks.
func (c *Ctlr_t) Intr() {
	if !c.expect.CompareAndSwap(true, false) {
		c.st.Nstray.Inc()
		c.log.Printf("%s: stray interrupt", c.Name)
		return
	}
	select {
	case c.done <- struct{}{}:
	default:
	}
}
