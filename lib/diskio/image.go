// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package diskio provides the read-only, physical-address-indexed view of
// an image file that the rest of the tool reads through.
package diskio

import (
	"fmt"
	"os"

	"btrfswalk/lib/btrfsvol"
)

// Image is a read-only random-access view of a btrfs image, addressed by
// physical byte offset. This tool never writes to an image.
type Image interface {
	// ReadAt reads exactly len(dst) bytes starting at off, or returns an
	// error. Unlike io.ReaderAt, a short read is always an error: callers
	// decode fixed-size structures and have no use for partial reads.
	ReadAt(dst []byte, off btrfsvol.PhysicalAddr) error
	Size() btrfsvol.PhysicalAddr
	Close() error
}

// OSImage is an Image backed by an *os.File.
type OSImage struct {
	f    *os.File
	size btrfsvol.PhysicalAddr
}

var _ Image = (*OSImage)(nil)

// OpenOSImage opens path for reading and wraps it as an Image.
func OpenOSImage(path string) (*OSImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open image: %w", err)
	}
	return &OSImage{f: f, size: btrfsvol.PhysicalAddr(info.Size())}, nil
}

func (img *OSImage) Size() btrfsvol.PhysicalAddr { return img.size }

func (img *OSImage) ReadAt(dst []byte, off btrfsvol.PhysicalAddr) error {
	n, err := img.f.ReadAt(dst, int64(off))
	if err != nil {
		return fmt.Errorf("read at %v: %w", off, err)
	}
	if n != len(dst) {
		return fmt.Errorf("read at %v: short read: got %d bytes, want %d", off, n, len(dst))
	}
	return nil
}

func (img *OSImage) Close() error {
	return img.f.Close()
}
