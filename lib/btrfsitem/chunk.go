// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package btrfsitem decodes the leaf-item payloads this tool cares about:
// chunk items, root items, inode refs, and directory entries. The B-tree
// Walker hands visitors the raw (key, payload) pair; decoding the payload
// into one of these types is the visitor's job, keyed on key.ItemType.
package btrfsitem

import (
	"btrfswalk/lib/binstruct"
	"btrfswalk/lib/btrfsvol"
)

// SizeofStripe is the on-disk size of a ChunkStripe record.
const SizeofStripe = 32

// ChunkStripe is one physical backing of a Chunk's logical range.
type ChunkStripe struct {
	DeviceID   btrfsvol.DeviceID
	Offset     btrfsvol.PhysicalAddr
	DeviceUUID [16]byte
}

// SizeofChunkHeader is the on-disk size of ChunkHeader, through NumStripes
// and SubStripes (the fixed-size "chunk item" prefix, before the
// variable-length stripe array).
const SizeofChunkHeader = 48

// ChunkHeader is the fixed-size prefix of a Chunk item.
type ChunkHeader struct {
	Length     btrfsvol.AddrDelta // size of the logical range
	Owner      uint64
	StripeLen  uint64
	Type       uint64
	IOAlign    uint32
	IOWidth    uint32
	SectorSize uint32
	NumStripes uint16
	SubStripes uint16
}

// Chunk maps a logical range to one or more physical stripes. Only Length
// and the first stripe's Offset are consumed by this tool (single-device,
// single-stripe images); NumStripes > 1 is accepted with a warning and only
// stripe 0 is used.
type Chunk struct {
	Head    ChunkHeader
	Stripes []ChunkStripe
}

// DecodeChunkHeader decodes the fixed-size chunk item prefix.
func DecodeChunkHeader(dat []byte) (ChunkHeader, error) {
	if err := binstruct.NeedBytes(dat, SizeofChunkHeader); err != nil {
		return ChunkHeader{}, err
	}
	length, _ := binstruct.Uint64LE(dat[0:8])
	owner, _ := binstruct.Uint64LE(dat[8:16])
	stripeLen, _ := binstruct.Uint64LE(dat[16:24])
	typ, _ := binstruct.Uint64LE(dat[24:32])
	ioAlign, _ := binstruct.Uint32LE(dat[32:36])
	ioWidth, _ := binstruct.Uint32LE(dat[36:40])
	sectorSize, _ := binstruct.Uint32LE(dat[40:44])
	numStripes, _ := binstruct.Uint16LE(dat[44:46])
	subStripes, _ := binstruct.Uint16LE(dat[46:48])
	return ChunkHeader{
		Length:     btrfsvol.AddrDelta(length),
		Owner:      owner,
		StripeLen:  stripeLen,
		Type:       typ,
		IOAlign:    ioAlign,
		IOWidth:    ioWidth,
		SectorSize: sectorSize,
		NumStripes: numStripes,
		SubStripes: subStripes,
	}, nil
}

// DecodeChunkStripe decodes a single ChunkStripe record.
func DecodeChunkStripe(dat []byte) (ChunkStripe, error) {
	if err := binstruct.NeedBytes(dat, SizeofStripe); err != nil {
		return ChunkStripe{}, err
	}
	devID, _ := binstruct.Uint64LE(dat[0:8])
	offset, _ := binstruct.Uint64LE(dat[8:16])
	var uuid [16]byte
	copy(uuid[:], dat[16:32])
	return ChunkStripe{
		DeviceID:   btrfsvol.DeviceID(devID),
		Offset:     btrfsvol.PhysicalAddr(offset),
		DeviceUUID: uuid,
	}, nil
}

// DecodeChunk decodes the chunk header and its first stripe only; callers
// that need the full stripe array (none in this tool) should decode
// remaining stripes themselves using Head.NumStripes and SizeofStripe.
func DecodeChunk(dat []byte) (Chunk, error) {
	head, err := DecodeChunkHeader(dat)
	if err != nil {
		return Chunk{}, err
	}
	var stripes []ChunkStripe
	if head.NumStripes > 0 {
		stripe, err := DecodeChunkStripe(dat[SizeofChunkHeader:])
		if err != nil {
			return Chunk{}, err
		}
		stripes = []ChunkStripe{stripe}
	}
	return Chunk{Head: head, Stripes: stripes}, nil
}
