// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfstree

import (
	"fmt"

	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfsvol"
	"btrfswalk/lib/containers"
	"btrfswalk/lib/diskio"
)

// LeafVisitor is called once per leaf item encountered during a Walk. The
// Walker is payload-agnostic: it hands the visitor the raw key and item
// bytes, leaving decoding (keyed on key.ItemType) to the caller.
type LeafVisitor interface {
	VisitItem(nodeAddr btrfsvol.LogicalAddr, item Item) error
}

// LeafVisitorFunc adapts a plain function to LeafVisitor.
type LeafVisitorFunc func(nodeAddr btrfsvol.LogicalAddr, item Item) error

func (f LeafVisitorFunc) VisitItem(nodeAddr btrfsvol.LogicalAddr, item Item) error {
	return f(nodeAddr, item)
}

// Walker performs a generic recursive descent over a B-tree, translating
// every logical child pointer through a ChunkMap and reading it from an
// Image.
type Walker struct {
	Img      diskio.Image
	Chunks   *btrfsvol.ChunkMap
	NodeSize uint32

	// Cache, if non-nil, memoizes decoded nodes by physical address. The
	// FS tree's two passes and any shared subtrees between the chunk,
	// root, and FS trees otherwise re-read and re-decode the same block
	// repeatedly.
	Cache *containers.BlockCache[Node]
}

// ReadNode reads and decodes the node at logical address addr. size is the
// number of bytes to read: the superblock's node_size for every node except
// the chunk tree root, whose size is instead taken from the ChunkMap entry
// that contains it (the chunk tree root predates the chunk tree being
// loaded, so it may not be exactly one node_size).
func (w *Walker) ReadNode(addr btrfsvol.LogicalAddr, size uint32) (Node, error) {
	phys, ok := w.Chunks.Translate(addr)
	if !ok {
		return Node{}, fmt.Errorf("%w: %v", btrfsprim.ErrUnresolvableLogical, addr)
	}
	if w.Cache != nil {
		if node, ok := w.Cache.Get(phys); ok {
			return node, nil
		}
	}
	buf := make([]byte, size)
	if err := w.Img.ReadAt(buf, phys); err != nil {
		return Node{}, fmt.Errorf("read node at %v (phys %v): %w", addr, phys, err)
	}
	node, err := DecodeNode(buf)
	if err != nil {
		return Node{}, fmt.Errorf("node at %v (phys %v): %w", addr, phys, err)
	}
	if node.Head.Addr != addr {
		return Node{}, fmt.Errorf("%w: node at %v self-reports address %v", btrfsprim.ErrBadInvariant, addr, node.Head.Addr)
	}
	if w.Cache != nil {
		w.Cache.Add(phys, node)
	}
	return node, nil
}

// chunkRootSize looks up the size to use when reading the chunk tree root:
// the ChunkMap entry containing it, per the special case in ReadNode's doc.
func (w *Walker) chunkRootSize(addr btrfsvol.LogicalAddr) (uint32, error) {
	entry, ok := w.Chunks.Find(addr)
	if !ok {
		return 0, fmt.Errorf("%w: chunk tree root %v", btrfsprim.ErrUnresolvableLogical, addr)
	}
	return uint32(entry.Size), nil
}

// WalkChunkRoot walks the chunk tree starting at its root, which is sized
// from the ChunkMap rather than node_size. Every child of the root (and
// every node below it) is sized with node_size like any other tree.
func (w *Walker) WalkChunkRoot(root btrfsvol.LogicalAddr, visitor LeafVisitor) error {
	size, err := w.chunkRootSize(root)
	if err != nil {
		return err
	}
	node, err := w.ReadNode(root, size)
	if err != nil {
		return err
	}
	return w.walkNode(node, visitor)
}

// Walk walks an ordinary tree (any tree other than the chunk tree root)
// starting at root, using node_size for every node including the root.
func (w *Walker) Walk(root btrfsvol.LogicalAddr, visitor LeafVisitor) error {
	node, err := w.ReadNode(root, w.NodeSize)
	if err != nil {
		return err
	}
	return w.walkNode(node, visitor)
}

func (w *Walker) walkNode(node Node, visitor LeafVisitor) error {
	if node.Head.Level == 0 {
		for _, item := range node.Leaf {
			if err := visitor.VisitItem(node.Head.Addr, item); err != nil {
				return err
			}
		}
		return nil
	}
	for _, kp := range node.Interior {
		child, err := w.ReadNode(kp.BlockPtr, w.NodeSize)
		if err != nil {
			return err
		}
		// Recurse on the child node just read, not on the parent's
		// buffer: a prior implementation of this walk mistakenly
		// recursed on the parent and silently re-walked the same
		// level forever.
		if err := w.walkNode(child, visitor); err != nil {
			return err
		}
	}
	return nil
}
