package ata

import "wdkern/kern/src/stats"

/// Wdstats_t counts driver events across all controllers.
type Wdstats_t struct {
	Ncmd       stats.Counter_t /// commands attempted
	Nbusyto    stats.Counter_t
	Nnotready  stats.Counter_t
	Nnointr    stats.Counter_t
	Nxferto    stats.Counter_t /// data phase timeouts
	Nstray     stats.Counter_t /// interrupts with no command waiting
	Nsect      stats.Counter_t /// sectors transferred
	Nrerr      stats.Counter_t /// failed reads
	Nreadahead stats.Counter_t
	Ncollide   stats.Counter_t /// device names already taken
	Iotime     stats.Cycles_t
}

/// String dumps the counters.
func (st *Wdstats_t) String() string {
	return stats.Stats2String(st)
}
