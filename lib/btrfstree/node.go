// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfstree

import (
	"fmt"

	"btrfswalk/lib/binstruct"
	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfsvol"
)

const (
	sizeofNodeHeader = 0x65
	sizeofKeyPointer = 0x21
	sizeofItemHeader = 0x19
)

// NodeHeader is the fixed-size header present at the start of every B-tree
// node, leaf or interior.
type NodeHeader struct {
	Addr       btrfsvol.LogicalAddr // logical address of this node, for self-check
	Generation uint64
	Owner      btrfsprim.ObjID // the tree that contains this node
	NumItems   uint32
	Level      uint8 // 0 = leaf, >0 = interior
}

// KeyPointer is one entry of an interior node's body: a key (the smallest
// key reachable through this pointer) plus the logical address of the
// child node.
type KeyPointer struct {
	Key        btrfsprim.Key
	BlockPtr   btrfsvol.LogicalAddr
	Generation uint64
}

// Item is one leaf-node entry: a key plus its raw, not-yet-decoded payload
// bytes. Decoding into a concrete btrfsitem type is the caller's job, keyed
// on Key.ItemType.
type Item struct {
	Key  btrfsprim.Key
	Data []byte
}

// Node is a decoded B-tree node: either an interior node (Interior
// populated) or a leaf node (Leaf populated), never both.
type Node struct {
	Head     NodeHeader
	Interior []KeyPointer
	Leaf     []Item
}

func decodeNodeHeader(dat []byte) (NodeHeader, error) {
	if err := binstruct.NeedBytes(dat, sizeofNodeHeader); err != nil {
		return NodeHeader{}, err
	}
	addr, _ := binstruct.Uint64LE(dat[0x30:0x38])
	generation, _ := binstruct.Uint64LE(dat[0x50:0x58])
	owner, _ := binstruct.Uint64LE(dat[0x58:0x60])
	numItems, _ := binstruct.Uint32LE(dat[0x60:0x64])
	return NodeHeader{
		Addr:       btrfsvol.LogicalAddr(addr),
		Generation: generation,
		Owner:      btrfsprim.ObjID(owner),
		NumItems:   numItems,
		Level:      dat[0x64],
	}, nil
}

func decodeKeyPointer(dat []byte) (KeyPointer, error) {
	if err := binstruct.NeedBytes(dat, sizeofKeyPointer); err != nil {
		return KeyPointer{}, err
	}
	key, _, err := btrfsprim.DecodeKey(dat[0:btrfsprim.SizeofKey])
	if err != nil {
		return KeyPointer{}, fmt.Errorf("key pointer: %w", err)
	}
	blockPtr, _ := binstruct.Uint64LE(dat[0x11:0x19])
	generation, _ := binstruct.Uint64LE(dat[0x19:0x21])
	return KeyPointer{
		Key:        key,
		BlockPtr:   btrfsvol.LogicalAddr(blockPtr),
		Generation: generation,
	}, nil
}

// DecodeNode decodes a whole node buffer (Superblock.NodeSize bytes, except
// for the chunk-tree root, whose size the Walker takes from its ChunkMap
// entry). The header's embedded Level field determines whether the body is
// decoded as key pointers or as items.
func DecodeNode(dat []byte) (Node, error) {
	head, err := decodeNodeHeader(dat)
	if err != nil {
		return Node{}, fmt.Errorf("%w: node header: %v", btrfsprim.ErrMalformedBlock, err)
	}
	body := dat[sizeofNodeHeader:]

	var node Node
	node.Head = head
	if head.Level > 0 {
		node.Interior = make([]KeyPointer, head.NumItems)
		off := 0
		for i := range node.Interior {
			if off+sizeofKeyPointer > len(body) {
				return Node{}, fmt.Errorf("%w: interior item %d: short read", btrfsprim.ErrMalformedBlock, i)
			}
			kp, err := decodeKeyPointer(body[off:])
			if err != nil {
				return Node{}, fmt.Errorf("%w: interior item %d: %v", btrfsprim.ErrMalformedBlock, i, err)
			}
			node.Interior[i] = kp
			off += sizeofKeyPointer
		}
		return node, nil
	}

	node.Leaf = make([]Item, head.NumItems)
	off := 0
	for i := range node.Leaf {
		if off+sizeofItemHeader > len(body) {
			return Node{}, fmt.Errorf("%w: leaf item %d: short read", btrfsprim.ErrMalformedBlock, i)
		}
		key, _, err := btrfsprim.DecodeKey(body[off : off+btrfsprim.SizeofKey])
		if err != nil {
			return Node{}, fmt.Errorf("%w: leaf item %d: %v", btrfsprim.ErrMalformedBlock, i, err)
		}
		dataOffset, _ := binstruct.Uint32LE(body[off+0x11 : off+0x15])
		dataSize, _ := binstruct.Uint32LE(body[off+0x15 : off+0x19])
		if int(dataOffset)+int(dataSize) > len(body) {
			return Node{}, fmt.Errorf("%w: leaf item %d: data range [%d,+%d) exceeds node body",
				btrfsprim.ErrMalformedBlock, i, dataOffset, dataSize)
		}
		node.Leaf[i] = Item{
			Key:  key,
			Data: body[dataOffset : dataOffset+dataSize],
		}
		off += sizeofItemHeader
	}
	return node, nil
}
