// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsitem

import (
	"fmt"
	"unicode/utf8"

	"btrfswalk/lib/binstruct"
	"btrfswalk/lib/btrfsprim"
)

// sizeofInodeRefHeader is the size of the fixed part of an InodeRef item,
// before the variable-length name.
const sizeofInodeRefHeader = 0xa

// MaxNameLen is the largest name length this format allows (btrfs enforces
// this on write; used here only as a sanity bound on malformed input).
const MaxNameLen = 255

// InodeRef ties a child inode (the enclosing key's ObjectID) to its name
// within its parent directory (the enclosing key's Offset is the parent
// inode number).
type InodeRef struct {
	Index uint64
	Name  string
}

// DecodeInodeRef decodes an InodeRef item. The name is validated as UTF-8;
// invalid UTF-8 is a fatal error.
func DecodeInodeRef(dat []byte) (InodeRef, error) {
	if err := binstruct.NeedBytes(dat, sizeofInodeRefHeader); err != nil {
		return InodeRef{}, err
	}
	index, _ := binstruct.Uint64LE(dat[0:8])
	nameLen, _ := binstruct.Uint16LE(dat[8:10])
	if nameLen > MaxNameLen {
		return InodeRef{}, fmt.Errorf("inode ref: name length %d exceeds maximum %d", nameLen, MaxNameLen)
	}
	nameBytes, err := binstruct.Bytes(dat[sizeofInodeRefHeader:], int(nameLen))
	if err != nil {
		return InodeRef{}, fmt.Errorf("inode ref: %w", err)
	}
	if !utf8.Valid(nameBytes) {
		return InodeRef{}, fmt.Errorf("inode ref: %w: %q", btrfsprim.ErrBadUTF8Name, nameBytes)
	}
	return InodeRef{Index: index, Name: string(nameBytes)}, nil
}
