// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package binstruct decodes the packed, little-endian, unaligned records
// that make up the on-disk btrfs format.
//
// Unlike a reflection-driven `bin:"off=.."` struct-tag decoder, this package
// is a small set of manual helpers: the fixed set of structures this tool
// needs to decode is short enough that hand-written Decode* functions built
// on top of these primitives are more direct.
package binstruct

import (
	"encoding/binary"
	"fmt"
)

// NeedBytes returns an error if dat is shorter than n bytes.
func NeedBytes(dat []byte, n int) error {
	if len(dat) < n {
		return fmt.Errorf("binstruct: need at least %d bytes, only have %d", n, len(dat))
	}
	return nil
}

// Uint8 reads a single byte at dat[0].
func Uint8(dat []byte) (uint8, error) {
	if err := NeedBytes(dat, 1); err != nil {
		return 0, err
	}
	return dat[0], nil
}

// Uint16LE reads a little-endian uint16 at dat[0:2].
func Uint16LE(dat []byte) (uint16, error) {
	if err := NeedBytes(dat, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(dat), nil
}

// Uint32LE reads a little-endian uint32 at dat[0:4].
func Uint32LE(dat []byte) (uint32, error) {
	if err := NeedBytes(dat, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(dat), nil
}

// Uint64LE reads a little-endian uint64 at dat[0:8].
func Uint64LE(dat []byte) (uint64, error) {
	if err := NeedBytes(dat, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(dat), nil
}

// Bytes copies n bytes starting at dat[0] into a fresh slice, so the result
// outlives the (possibly reused/cached) backing buffer.
func Bytes(dat []byte, n int) ([]byte, error) {
	if err := NeedBytes(dat, n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, dat[:n])
	return out, nil
}
