package main

import "os"

import "github.com/pkg/errors"

/// image_t is a disk image file backing an emulated drive.
type image_t struct {
	f    *os.File
	path string
	size int64
}

func openimage(path string) (*image_t, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open image")
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	return &image_t{f: f, path: path, size: fi.Size()}, nil
}

func (im *image_t) Close() error {
	return im.f.Close()
}
