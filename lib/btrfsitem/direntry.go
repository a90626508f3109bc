// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsitem

import (
	"fmt"

	"btrfswalk/lib/binstruct"
	"btrfswalk/lib/btrfsprim"
)

// FileType is the directory-entry file-type byte.
type FileType uint8

// File types. Only FT_REG_FILE is consumed by this tool's scan, but the
// others are named for completeness/debug-dump readability.
const (
	FT_UNKNOWN  FileType = 0
	FT_REG_FILE FileType = 1
	FT_DIR      FileType = 2
	FT_CHRDEV   FileType = 3
	FT_BLKDEV   FileType = 4
	FT_FIFO     FileType = 5
	FT_SOCK     FileType = 6
	FT_SYMLINK  FileType = 7
	FT_XATTR    FileType = 8
)

func (ft FileType) String() string {
	names := [...]string{"UNKNOWN", "FILE", "DIR", "CHRDEV", "BLKDEV", "FIFO", "SOCK", "SYMLINK", "XATTR"}
	if int(ft) < len(names) {
		return names[ft]
	}
	return fmt.Sprintf("FILETYPE.%d", uint8(ft))
}

// sizeofDirEntryHeader is the size of the fixed part of a DirEntry item,
// before the variable-length name and data.
const sizeofDirEntryHeader = 0x1e

// DirEntry is a DIR_ITEM payload: a directory entry naming a target inode
// (Location.ObjectID) and its file type.
type DirEntry struct {
	Location btrfsprim.Key
	Type     FileType
}

// DecodeDirEntry decodes a DirEntry item.
func DecodeDirEntry(dat []byte) (DirEntry, error) {
	if err := binstruct.NeedBytes(dat, sizeofDirEntryHeader); err != nil {
		return DirEntry{}, err
	}
	location, _, err := btrfsprim.DecodeKey(dat[0:btrfsprim.SizeofKey])
	if err != nil {
		return DirEntry{}, fmt.Errorf("dir entry: %w", err)
	}
	// transID(8) + dataLen(2) + nameLen(2) follow the key; the file-type
	// byte is the last field of the fixed header.
	typ, _ := binstruct.Uint8(dat[sizeofDirEntryHeader-1 : sizeofDirEntryHeader])
	return DirEntry{
		Location: location,
		Type:     FileType(typ),
	}, nil
}
