//go:build unix

package main

import "io"

import "github.com/pkg/errors"
import "golang.org/x/sys/unix"

/// ReadAt reads with pread(2) so concurrent channels share the
/// descriptor without a seek offset.
func (im *image_t) ReadAt(p []byte, off int64) (int, error) {
	fd := int(im.f.Fd())
	tot := 0
	for tot < len(p) {
		n, err := unix.Pread(fd, p[tot:], off+int64(tot))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return tot, errors.Wrapf(err, "pread %s at %d", im.path, off)
		}
		if n == 0 {
			return tot, io.EOF
		}
		tot += n
	}
	return tot, nil
}
