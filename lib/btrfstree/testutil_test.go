// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfstree_test

import (
	"encoding/binary"

	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfsvol"
)

func putKey(dat []byte, key btrfsprim.Key) {
	binary.LittleEndian.PutUint64(dat[0:8], uint64(key.ObjectID))
	dat[8] = byte(key.ItemType)
	binary.LittleEndian.PutUint64(dat[9:17], key.Offset)
}

func putNodeHeader(dat []byte, addr btrfsvol.LogicalAddr, owner btrfsprim.ObjID, numItems uint32, level uint8) {
	binary.LittleEndian.PutUint64(dat[0x30:0x38], uint64(addr))
	binary.LittleEndian.PutUint64(dat[0x58:0x60], uint64(owner))
	binary.LittleEndian.PutUint32(dat[0x60:0x64], numItems)
	dat[0x64] = level
}

type leafItem struct {
	Key  btrfsprim.Key
	Data []byte
}

// encodeLeafNode builds a complete leaf-node buffer of size bodyCap+0x65.
func encodeLeafNode(addr btrfsvol.LogicalAddr, owner btrfsprim.ObjID, items []leafItem, bodyCap int) []byte {
	const headerSize = 0x65
	const itemHeaderSize = 0x19
	body := make([]byte, bodyCap)
	dataEnd := bodyCap
	itemHdrOff := 0
	for _, it := range items {
		dataEnd -= len(it.Data)
		copy(body[dataEnd:], it.Data)
		putKey(body[itemHdrOff:], it.Key)
		binary.LittleEndian.PutUint32(body[itemHdrOff+0x11:itemHdrOff+0x15], uint32(dataEnd))
		binary.LittleEndian.PutUint32(body[itemHdrOff+0x15:itemHdrOff+0x19], uint32(len(it.Data)))
		itemHdrOff += itemHeaderSize
	}
	buf := make([]byte, headerSize+bodyCap)
	putNodeHeader(buf, addr, owner, uint32(len(items)), 0)
	copy(buf[headerSize:], body)
	return buf
}

type keyPtr struct {
	Key      btrfsprim.Key
	BlockPtr btrfsvol.LogicalAddr
}

// encodeInteriorNode builds a complete interior-node buffer of size
// headerSize + len(kps)*sizeofKeyPointer, with no padding.
func encodeInteriorNode(addr btrfsvol.LogicalAddr, owner btrfsprim.ObjID, level uint8, kps []keyPtr) []byte {
	const headerSize = 0x65
	const kpSize = 0x21
	buf := make([]byte, headerSize+len(kps)*kpSize)
	putNodeHeader(buf, addr, owner, uint32(len(kps)), level)
	off := headerSize
	for _, kp := range kps {
		putKey(buf[off:], kp.Key)
		binary.LittleEndian.PutUint64(buf[off+0x11:off+0x19], uint64(kp.BlockPtr))
		off += kpSize
	}
	return buf
}
