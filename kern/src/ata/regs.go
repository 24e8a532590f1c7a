package ata

/// Command block registers, as offsets from a controller's port base.
const (
	WD_DATA     = 0 /// 16-bit data port
	WD_ERROR    = 1 /// error register (read)
	WD_FEATURES = 1 /// features (write)
	WD_SECCNT   = 2 /// sector count
	WD_SECTOR   = 3 /// first sector number
	WD_CYL_LO   = 4 /// cylinder low byte
	WD_CYL_HI   = 5 /// cylinder high byte
	WD_SDH      = 6 /// size/drive/head
	WD_STATUS   = 7 /// status (read)
	WD_COMMAND  = 7 /// command (write)
	WD_NPORTS   = 8
)

/// Status register bits.
const (
	ST_BSY  = 0x80 /// controller busy
	ST_DRDY = 0x40 /// drive ready
	ST_DF   = 0x20 /// drive fault
	ST_DSC  = 0x10 /// seek complete
	ST_DRQ  = 0x08 /// data request
	ST_CORR = 0x04 /// corrected data
	ST_IDX  = 0x02
	ST_ERR  = 0x01 /// see the error register
)

/// Error register bits.
const (
	ER_BBK   = 0x80
	ER_UNC   = 0x40 /// uncorrectable data
	ER_IDNF  = 0x10 /// sector id not found
	ER_ABRT  = 0x04 /// command aborted
	ER_TK0NF = 0x02
	ER_AMNF  = 0x01
)

/// Device control register bits.
const (
	CTL_HD15 = 0x08 /// always written set
	CTL_SRST = 0x04 /// soft reset
	CTL_NIEN = 0x02 /// interrupts disabled
)

/// Size/drive/head register.
const (
	SDH_IBM   = 0xa0 /// 512-byte sectors, CHS addressing
	SDH_SLAVE = 0x10
)

/// Commands.
const (
	WDCC_READ         = 0x20 /// read sectors with retry
	WDCC_READ_NORETRY = 0x21
	WDCC_IDENTIFY     = 0xec
)

/// DEV_BSIZE is the sector size; every transfer moves whole sectors.
const DEV_BSIZE = 512

/// MAXXFER is the most sectors one command moves (a sector count of 0
/// means 256).
const MAXXFER = 256
