package defs

import "strconv"

/// Err_t is a kernel error code. Zero means success; failures are the
/// negated errno value.
type Err_t int

const (
	EPERM     Err_t = 1
	ENOENT    Err_t = 2
	EIO       Err_t = 5
	ENXIO     Err_t = 6
	ENOMEM    Err_t = 12
	EBUSY     Err_t = 16
	EEXIST    Err_t = 17
	ENODEV    Err_t = 19
	EINVAL    Err_t = 22
	ENOTTY    Err_t = 25
	ETIMEDOUT Err_t = 110
)

var errnames = map[Err_t]string{
	EPERM:     "operation not permitted",
	ENOENT:    "no such file or directory",
	EIO:       "input/output error",
	ENXIO:     "no such device or address",
	ENOMEM:    "cannot allocate memory",
	EBUSY:     "device or resource busy",
	EEXIST:    "file exists",
	ENODEV:    "no such device",
	EINVAL:    "invalid argument",
	ENOTTY:    "inappropriate ioctl for device",
	ETIMEDOUT: "connection timed out",
}

/// Error lets an Err_t travel as a Go error outside the kernel.
func (e Err_t) Error() string {
	n := e
	if n < 0 {
		n = -n
	}
	if s, ok := errnames[n]; ok {
		return s
	}
	return "errno " + strconv.Itoa(int(n))
}
