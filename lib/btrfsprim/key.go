// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package btrfsprim holds the small value types shared by every on-disk
// record: object IDs, item types, and the (objectid, type, offset) key that
// indexes every B-tree item.
package btrfsprim

import (
	"fmt"

	"btrfswalk/lib/binstruct"
)

// ObjID identifies an object (an inode, a tree root, ...) within the
// object-ID space of a single tree.
type ObjID uint64

// Well-known object IDs (see the constants table in the format spec).
const (
	ROOT_TREE_OBJECTID ObjID = 1
	FS_TREE_OBJECTID   ObjID = 5
)

// ItemType is the `ty` field of a Key: it tags the shape of the payload that
// the item's (objectid, offset) pair indexes.
type ItemType uint8

// Item types this tool decodes. The numeric values are part of the on-disk
// format.
const (
	INODE_REF_KEY  ItemType = 12
	DIR_ITEM_KEY   ItemType = 84
	ROOT_ITEM_KEY  ItemType = 132
	CHUNK_ITEM_KEY ItemType = 228
)

func (ty ItemType) String() string {
	switch ty {
	case INODE_REF_KEY:
		return "INODE_REF"
	case DIR_ITEM_KEY:
		return "DIR_ITEM"
	case ROOT_ITEM_KEY:
		return "ROOT_ITEM"
	case CHUNK_ITEM_KEY:
		return "CHUNK_ITEM"
	default:
		return fmt.Sprintf("UNKNOWN_KEY.%d", uint8(ty))
	}
}

// Key is the (objectid, type, offset) tuple that indexes every B-tree item.
// Its fields' meanings depend on ItemType: e.g. for a chunk item, Offset is
// the logical start of the chunk; for an inode ref, Offset is the parent
// inode number.
type Key struct {
	ObjectID ObjID
	ItemType ItemType
	Offset   uint64
}

func (k Key) String() string {
	return fmt.Sprintf("(%d %v %d)", k.ObjectID, k.ItemType, k.Offset)
}

// SizeofKey is the on-disk size of a packed Key: 8 (objectid) + 1 (type) + 8 (offset).
const SizeofKey = 17

// DecodeKey decodes a packed Key from the start of dat, returning the number
// of bytes consumed (always SizeofKey on success).
func DecodeKey(dat []byte) (Key, int, error) {
	if err := binstruct.NeedBytes(dat, SizeofKey); err != nil {
		return Key{}, 0, err
	}
	objectID, _ := binstruct.Uint64LE(dat[0:8])
	ty, _ := binstruct.Uint8(dat[8:9])
	offset, _ := binstruct.Uint64LE(dat[9:17])
	return Key{
		ObjectID: ObjID(objectID),
		ItemType: ItemType(ty),
		Offset:   offset,
	}, SizeofKey, nil
}
