// Package devsw is the kernel's device registry. Drivers allocate a
// device record, bind their entry points and publish it under a unique
// name.
package devsw

import "sort"
import "sync/atomic"

import "wdkern/kern/src/defs"

/// Devsw_t holds a device's entry points. A nil entry is unbound and
/// callers must not invoke it; Call* helpers return -ENODEV for those.
type Devsw_t struct {
	Open  func() defs.Err_t
	Close func() defs.Err_t
	// Read transfers cnt blocks starting at blkno into dst.
	Read  func(blkno, cnt int, dst []uint8) defs.Err_t
	Write func(blkno, cnt int, src []uint8) defs.Err_t
	Seek  func(off int) defs.Err_t
	Ioctl func(cmd, arg int) defs.Err_t
	// Readahead is an optional hint that blocks will be read soon.
	Readahead func(blkno, cnt int)
}

/// Dev_t is one registry entry.
type Dev_t struct {
	Name  string
	Owner string
	Kind  defs.Devkind_t
	Mode  uint
	Uid   int
	Gid   int
	Bsize int
	// Rdev is the device number, Mkdev(major, minor).
	Rdev uint
	// Size in blocks; 0 if unknown.
	Size int
	Ops  Devsw_t
	// Priv is driver-private state.
	Priv interface{}

	registered atomic.Bool
}

/// Registry_t is a set of uniquely named devices.
type Registry_t struct {
	names *hashtable_t
}

/// MkRegistry returns an empty registry.
func MkRegistry() *Registry_t {
	return &Registry_t{names: mkhash(64)}
}

/// Devices is the system-wide registry.
var Devices = MkRegistry()

/// Allocate returns a fresh, unpublished device record.
func (r *Registry_t) Allocate(name, owner string, kind defs.Devkind_t,
	mode uint, uid, gid, bsize int) *Dev_t {
	d := &Dev_t{}
	d.Name = name
	d.Owner = owner
	d.Kind = kind
	d.Mode = mode
	d.Uid = uid
	d.Gid = gid
	d.Bsize = bsize
	return d
}

/// Register publishes d. A name collision yields -EEXIST and leaves the
/// existing device untouched.
func (r *Registry_t) Register(d *Dev_t) defs.Err_t {
	if d.Name == "" || d.Bsize <= 0 {
		return -defs.EINVAL
	}
	if d.registered.Load() {
		return -defs.EBUSY
	}
	if _, ok := r.names.set(d.Name, d); !ok {
		return -defs.EEXIST
	}
	d.registered.Store(true)
	return 0
}

/// Free releases a record that never made it into the registry.
func (r *Registry_t) Free(d *Dev_t) {
	if d.registered.Load() {
		panic("free of registered device")
	}
	d.Ops = Devsw_t{}
	d.Priv = nil
}

/// Unregister removes the named device and reports whether it existed.
func (r *Registry_t) Unregister(name string) bool {
	d, ok := r.names.get(name)
	if !ok {
		return false
	}
	if !r.names.del(name) {
		return false
	}
	d.registered.Store(false)
	return true
}

/// Lookup finds a device by name.
func (r *Registry_t) Lookup(name string) (*Dev_t, bool) {
	return r.names.get(name)
}

/// Names returns every registered name in sorted order.
func (r *Registry_t) Names() []string {
	var ret []string
	r.names.iter(func(k string, _ *Dev_t) {
		ret = append(ret, k)
	})
	sort.Strings(ret)
	return ret
}

/// Len returns the number of registered devices.
func (r *Registry_t) Len() int {
	n := 0
	r.names.iter(func(string, *Dev_t) { n++ })
	return n
}

/// Registered reports whether d is currently published.
func (d *Dev_t) Registered() bool {
	return d.registered.Load()
}

/// CallRead invokes the read entry point, or fails with -ENODEV if it is
/// unbound.
func (d *Dev_t) CallRead(blkno, cnt int, dst []uint8) defs.Err_t {
	if d.Ops.Read == nil {
		return -defs.ENODEV
	}
	return d.Ops.Read(blkno, cnt, dst)
}

/// CallWrite invokes the write entry point, or fails with -ENODEV.
func (d *Dev_t) CallWrite(blkno, cnt int, src []uint8) defs.Err_t {
	if d.Ops.Write == nil {
		return -defs.ENODEV
	}
	return d.Ops.Write(blkno, cnt, src)
}

/// CallSeek invokes the seek entry point, or fails with -ENODEV.
func (d *Dev_t) CallSeek(off int) defs.Err_t {
	if d.Ops.Seek == nil {
		return -defs.ENODEV
	}
	return d.Ops.Seek(off)
}

/// CallIoctl invokes the ioctl entry point, or fails with -ENODEV.
func (d *Dev_t) CallIoctl(cmd, arg int) defs.Err_t {
	if d.Ops.Ioctl == nil {
		return -defs.ENODEV
	}
	return d.Ops.Ioctl(cmd, arg)
}
