// Package util contains helper functions used across the kernel.
package util

import "encoding/binary"

// Int is satisfied by all built-in integer types.
type Int interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Min returns the smaller of a and b.
func Min[T Int](a, b T) T {
	if a < b {
		return a
	}
	return b
}

// Rounddown aligns v down to the nearest multiple of b.
func Rounddown[T Int](v, b T) T {
	return v - (v % b)
}

// Roundup aligns v up to the nearest multiple of b.
func Roundup[T Int](v, b T) T {
	return Rounddown(v+b-1, b)
}

// Readn reads an n byte little-endian value from a at off. On-disk
// structures (MBR, disklabel) are little-endian regardless of host.
// It panics if the requested region is out of bounds or the size is unsupported.
func Readn(a []uint8, n int, off int) int {
	if off < 0 || off+n > len(a) {
		panic("Readn out of bounds")
	}
	b := a[off : off+n]
	var ret int
	switch n {
	case 8:
		ret = int(binary.LittleEndian.Uint64(b))
	case 4:
		ret = int(binary.LittleEndian.Uint32(b))
	case 2:
		ret = int(binary.LittleEndian.Uint16(b))
	case 1:
		ret = int(b[0])
	default:
		panic("unsupported size")
	}
	return ret
}

// Writen writes val little-endian using sz bytes into a starting at off.
// It panics if the destination is out of bounds or the size is unsupported.
func Writen(a []uint8, sz int, off int, val int) {
	if off < 0 || off+sz > len(a) {
		panic("Writen out of bounds")
	}
	b := a[off : off+sz]
	switch sz {
	case 8:
		binary.LittleEndian.PutUint64(b, uint64(val))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(val))
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(val))
	case 1:
		b[0] = uint8(val)
	default:
		panic("unsupported size")
	}
}
