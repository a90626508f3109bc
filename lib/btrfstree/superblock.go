// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package btrfstree decodes the on-disk superblock and B-tree node formats,
// and provides the generic B-tree Walker used to descend any tree once the
// Chunk Map is available to translate its logical addresses.
package btrfstree

import (
	"fmt"

	"btrfswalk/lib/binstruct"
	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfsvol"
)

// SuperblockMagic is the 8-byte magic string of a valid superblock, stored
// at offset 0x40 within the block.
var SuperblockMagic = [8]byte{'_', 'B', 'H', 'R', 'f', 'S', '_', 'M'}

// SuperblockPhysOffset is the physical byte offset of the primary
// superblock copy. This tool only ever reads the primary copy; the two
// backup copies further into the device are out of scope.
const SuperblockPhysOffset = 0x10000

// sizeofSuperblock is the fixed on-disk size of everything this tool reads
// out of the superblock (through SysChunkArraySize at 0xa0, plus the
// 0x800-byte SysChunkArray starting at 0x32b).
const sizeofSuperblock = 0x32b + 0x800

// Superblock holds the fields of the btrfs superblock this tool consumes.
// Many on-disk fields (device items, backup roots, feature flags unrelated
// to the read path) are intentionally omitted.
type Superblock struct {
	Magic [8]byte

	NodeSize          uint32
	ChecksumType      uint16
	SysChunkArraySize uint32

	ChunkRootLogical btrfsvol.LogicalAddr
	ChunkRootLevel   uint8

	RootLogical btrfsvol.LogicalAddr
	RootLevel   uint8

	SysChunkArray []byte
}

// DecodeSuperblock decodes a Superblock from a buffer of at least
// sizeofSuperblock bytes that begins at SuperblockPhysOffset, and validates
// its magic.
func DecodeSuperblock(dat []byte) (Superblock, error) {
	if err := binstruct.NeedBytes(dat, sizeofSuperblock); err != nil {
		return Superblock{}, fmt.Errorf("superblock: %w", err)
	}

	var sb Superblock
	copy(sb.Magic[:], dat[0x40:0x48])
	if sb.Magic != SuperblockMagic {
		return Superblock{}, fmt.Errorf("%w: got %q, want %q", btrfsprim.ErrBadMagic, sb.Magic[:], SuperblockMagic[:])
	}

	rootLogical, _ := binstruct.Uint64LE(dat[0x50:0x58])
	chunkRootLogical, _ := binstruct.Uint64LE(dat[0x58:0x60])
	sb.RootLogical = btrfsvol.LogicalAddr(rootLogical)
	sb.ChunkRootLogical = btrfsvol.LogicalAddr(chunkRootLogical)

	nodeSize, _ := binstruct.Uint32LE(dat[0x94:0x98])
	sb.NodeSize = nodeSize

	sysChunkArraySize, _ := binstruct.Uint32LE(dat[0xa0:0xa4])
	sb.SysChunkArraySize = sysChunkArraySize

	checksumType, _ := binstruct.Uint16LE(dat[0xc4:0xc6])
	sb.ChecksumType = checksumType

	sb.RootLevel = dat[0xc6]
	sb.ChunkRootLevel = dat[0xc7]

	if sb.SysChunkArraySize > 0x800 {
		return Superblock{}, fmt.Errorf("%w: sys_chunk_array_size %d exceeds maximum 0x800", btrfsprim.ErrBadInvariant, sb.SysChunkArraySize)
	}
	sysChunkArray, err := binstruct.Bytes(dat[0x32b:], int(sb.SysChunkArraySize))
	if err != nil {
		return Superblock{}, fmt.Errorf("superblock: sys_chunk_array: %w", err)
	}
	sb.SysChunkArray = sysChunkArray

	return sb, nil
}

// RootTreeObjID and FSTreeObjID re-export the well-known object IDs for
// convenience at call sites that only have a Superblock in hand.
var (
	RootTreeObjID = btrfsprim.ROOT_TREE_OBJECTID
	FSTreeObjID   = btrfsprim.FS_TREE_OBJECTID
)
