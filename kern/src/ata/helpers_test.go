package ata

import "fmt"
import "strings"
import "sync"

import "wdkern/kern/src/defs"
import "wdkern/kern/src/limits"
import "wdkern/kern/src/util"

/// tlog_t captures driver diagnostics.
type tlog_t struct {
	sync.Mutex
	lines []string
}

func (l *tlog_t) Printf(f string, args ...interface{}) {
	l.Lock()
	l.lines = append(l.lines, fmt.Sprintf(f, args...))
	l.Unlock()
}

func (l *tlog_t) has(sub string) int {
	l.Lock()
	defer l.Unlock()
	n := 0
	for _, s := range l.lines {
		if strings.Contains(s, sub) {
			n++
		}
	}
	return n
}

func testlim() *limits.Wdlimit_t {
	l := limits.MkWdLimit()
	l.Polldelay = 0
	l.Resetdelay = 0
	l.Cmdretries = 50
	l.Xferretries = 50
	return l
}

/// spimg_t is a sparse disk image; unwritten sectors read as zeros.
type spimg_t struct {
	secs map[int][]uint8
}

func mkspimg() *spimg_t {
	return &spimg_t{secs: make(map[int][]uint8)}
}

func (im *spimg_t) sector(n int) []uint8 {
	s, ok := im.secs[n]
	if !ok {
		s = make([]uint8, DEV_BSIZE)
		im.secs[n] = s
	}
	return s
}

func (im *spimg_t) ReadAt(p []byte, off int64) (int, error) {
	for i := range p {
		o := int(off) + i
		if s, ok := im.secs[o/DEV_BSIZE]; ok {
			p[i] = s[o%DEV_BSIZE]
		} else {
			p[i] = 0
		}
	}
	return len(p), nil
}

func (im *spimg_t) read(blkno, cnt int, dst []uint8) defs.Err_t {
	im.ReadAt(dst[:cnt*DEV_BSIZE], int64(blkno)*DEV_BSIZE)
	return 0
}

func (im *spimg_t) dospart(slot int, typ uint8, start, size int) {
	s := im.sector(0)
	e := s[DOSPARTOFF+slot*DOSPARTSIZE:]
	e[4] = typ
	util.Writen(e, 4, 8, start)
	util.Writen(e, 4, 12, size)
	util.Writen(s, 2, DOSMAGICOFF, DOSMAGIC)
}

func (im *spimg_t) label(sector int, parts []Lpart_t) {
	s := im.sector(sector)
	util.Writen(s, 4, LABELOFFSET+DL_MAGIC, DISKMAGIC)
	util.Writen(s, 2, LABELOFFSET+DL_NPARTS, len(parts))
	for i, p := range parts {
		o := LABELOFFSET + DL_PARTS + i*DL_PARTSIZE
		util.Writen(s, 4, o, int(p.Size))
		util.Writen(s, 4, o+4, int(p.Offset))
		s[o+12] = p.Fstype
	}
}

/// stamp marks a sector so reads can be checked.
func (im *spimg_t) stamp(n int) {
	s := im.sector(n)
	util.Writen(s, 4, 0, n)
	util.Writen(s, 4, DEV_BSIZE-4, ^n)
}

func stamped(b []uint8, n int) bool {
	return uint32(util.Readn(b, 4, 0)) == uint32(n) &&
		uint32(util.Readn(b, 4, DEV_BSIZE-4)) == ^uint32(n)
}
