// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsitem

import (
	"btrfswalk/lib/binstruct"
	"btrfswalk/lib/btrfsvol"
)

// sizeofRootByteNr is the byte offset of the ByteNr field within a Root
// item. The on-disk Root item is much larger (it embeds a full Inode plus
// timestamps, UUIDs, and transaction IDs), but only ByteNr is consumed here.
const sizeofRootByteNr = 0xb0

// Root is a ROOT_ITEM payload. Only ByteNr (the logical address of the
// referenced tree's root node) is consumed by this tool.
type Root struct {
	ByteNr btrfsvol.LogicalAddr
}

// DecodeRoot decodes the fields of a Root item this tool needs.
func DecodeRoot(dat []byte) (Root, error) {
	if err := binstruct.NeedBytes(dat, sizeofRootByteNr+8); err != nil {
		return Root{}, err
	}
	byteNr, _ := binstruct.Uint64LE(dat[sizeofRootByteNr : sizeofRootByteNr+8])
	return Root{ByteNr: btrfsvol.LogicalAddr(byteNr)}, nil
}
