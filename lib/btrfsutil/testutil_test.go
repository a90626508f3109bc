// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsutil_test

import (
	"encoding/binary"
	"fmt"

	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfsvol"
)

// memImage is a fake diskio.Image backed by a map of physical-offset-keyed
// blocks, mirroring the helper in the btrfstree package's own tests.
type memImage struct {
	blocks map[btrfsvol.PhysicalAddr][]byte
}

func newMemImage() *memImage { return &memImage{blocks: map[btrfsvol.PhysicalAddr][]byte{}} }

func (m *memImage) put(off btrfsvol.PhysicalAddr, dat []byte) { m.blocks[off] = dat }

func (m *memImage) ReadAt(dst []byte, off btrfsvol.PhysicalAddr) error {
	src, ok := m.blocks[off]
	if !ok || len(src) < len(dst) {
		return fmt.Errorf("memImage: no block at %v", off)
	}
	copy(dst, src[:len(dst)])
	return nil
}

func (m *memImage) Size() btrfsvol.PhysicalAddr { return 0 }
func (m *memImage) Close() error                { return nil }

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

// encodeChunkItem builds the raw payload bytes of a single-stripe chunk
// item: the 48-byte header (length at offset 0, numStripes at 44) followed
// by one 32-byte stripe (devid, offset, uuid).
func encodeChunkItem(length uint64, physOffset uint64) []byte {
	buf := make([]byte, 48+32)
	binary.LittleEndian.PutUint64(buf[0:8], length)
	binary.LittleEndian.PutUint16(buf[44:46], 1) // num_stripes
	binary.LittleEndian.PutUint64(buf[48+8:48+16], physOffset)
	return buf
}

func encodeInodeRefPayload(parentIndex uint64, name string) []byte {
	buf := make([]byte, 10+len(name))
	binary.LittleEndian.PutUint64(buf[0:8], parentIndex)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(name)))
	copy(buf[10:], name)
	return buf
}

func encodeDirEntryPayload(target btrfsprim.Key, fileType byte) []byte {
	buf := make([]byte, 0x1e)
	putKey(buf, target)
	buf[0x1d] = fileType
	return buf
}
