// Package klog is the kernel's diagnostic sink. Every driver message goes
// through Printf; the text is kept in a ring so it can be dumped later and
// is optionally forwarded line by line.
package klog

import "fmt"
import "strings"
import "sync"

/// Logger_i is the formatted diagnostic sink drivers log through.
type Logger_i interface {
	Printf(format string, args ...interface{})
}

/// Klog_t keeps the most recent console output.
type Klog_t struct {
	sync.Mutex
	cb circbuf_t
	// Fwd, when set, receives each message without its trailing newline.
	Fwd func(string)
}

/// Console is the system-wide sink.
var Console = MkKlog(1 << 14)

/// MkKlog allocates a sink retaining at most sz bytes.
func MkKlog(sz int) *Klog_t {
	k := &Klog_t{}
	k.cb.cb_init(sz)
	return k
}

/// Printf formats a message and appends it to the ring. A newline is
/// added if the message lacks one.
func (k *Klog_t) Printf(format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	k.Lock()
	k.cb.copyin([]uint8(s))
	fwd := k.Fwd
	k.Unlock()
	if fwd != nil {
		fwd(strings.TrimSuffix(s, "\n"))
	}
}

/// Dmesg returns the retained text, oldest first.
func (k *Klog_t) Dmesg() string {
	k.Lock()
	defer k.Unlock()
	return string(k.cb.copyout())
}

/// Lines returns the retained messages. A message whose start was
/// evicted from the ring is returned truncated.
func (k *Klog_t) Lines() []string {
	s := strings.TrimSuffix(k.Dmesg(), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

/// Printf logs to the Console.
func Printf(format string, args ...interface{}) {
	Console.Printf(format, args...)
}
