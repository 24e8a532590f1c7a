//go:build !unix

package main

func (im *image_t) ReadAt(p []byte, off int64) (int, error) {
	return im.f.ReadAt(p, off)
}
