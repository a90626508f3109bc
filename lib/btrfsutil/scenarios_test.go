// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsutil_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btrfswalk/lib/btrfsitem"
	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfstree"
	"btrfswalk/lib/btrfsutil"
	"btrfswalk/lib/btrfsvol"
)

const chunkTreeObjID = btrfsprim.ObjID(3)
const fsTreeRootObjID = btrfsprim.ObjID(256)

// Scenario 1: minimal image — a single self-describing bootstrap chunk.
func TestScenarioMinimalImage(t *testing.T) {
	t.Parallel()
	img := newMemImage()

	chunkLeaf := encodeLeafNode(0, chunkTreeObjID, []leafItem{
		{Key: btrfsprim.Key{ObjectID: 256, ItemType: btrfsprim.CHUNK_ITEM_KEY, Offset: 0}, Data: encodeChunkItem(4096, 0x10000)},
	}, 4096-0x65)
	img.put(0x10000, chunkLeaf)

	var m btrfsvol.ChunkMap
	require.NoError(t, m.Insert(0, 4096, 0x10000))

	w := &btrfstree.Walker{Img: img, Chunks: &m, NodeSize: 4096}
	require.NoError(t, btrfsutil.LoadChunkTree(context.Background(), w, 0, &m))
	assert.Equal(t, 1, m.Len())
}

// Scenario 2: one-file subvolume.
func TestScenarioOneFileSubvolume(t *testing.T) {
	t.Parallel()
	img := newMemImage()

	fsLeaf := encodeLeafNode(0x100000, fsTreeRootObjID, []leafItem{
		{Key: btrfsprim.Key{ObjectID: 256, ItemType: btrfsprim.INODE_REF_KEY, Offset: 256}, Data: encodeInodeRefPayload(0, "")},
		{Key: btrfsprim.Key{ObjectID: 257, ItemType: btrfsprim.INODE_REF_KEY, Offset: 256}, Data: encodeInodeRefPayload(0, "hello.txt")},
		{Key: btrfsprim.Key{ObjectID: 256, ItemType: btrfsprim.DIR_ITEM_KEY, Offset: 0}, Data: encodeDirEntryPayload(
			btrfsprim.Key{ObjectID: 257}, byte(btrfsitem.FT_REG_FILE))},
	}, 4096-0x65)
	img.put(0x200000, fsLeaf)

	var m btrfsvol.ChunkMap
	require.NoError(t, m.Insert(0x100000, 4096, 0x200000))

	w := &btrfstree.Walker{Img: img, Chunks: &m, NodeSize: 4096}
	paths, err := btrfsutil.ScanFSTree(w, 0x100000)
	require.NoError(t, err)
	assert.Equal(t, []string{"/hello.txt"}, paths)
}

// Scenario 3: nested directory.
func TestScenarioNestedDirectory(t *testing.T) {
	t.Parallel()
	img := newMemImage()

	fsLeaf := encodeLeafNode(0x100000, fsTreeRootObjID, []leafItem{
		{Key: btrfsprim.Key{ObjectID: 256, ItemType: btrfsprim.INODE_REF_KEY, Offset: 256}, Data: encodeInodeRefPayload(0, "")},
		{Key: btrfsprim.Key{ObjectID: 257, ItemType: btrfsprim.INODE_REF_KEY, Offset: 256}, Data: encodeInodeRefPayload(0, "docs")},
		{Key: btrfsprim.Key{ObjectID: 258, ItemType: btrfsprim.INODE_REF_KEY, Offset: 257}, Data: encodeInodeRefPayload(0, "readme")},
		{Key: btrfsprim.Key{ObjectID: 257, ItemType: btrfsprim.DIR_ITEM_KEY, Offset: 0}, Data: encodeDirEntryPayload(
			btrfsprim.Key{ObjectID: 258}, byte(btrfsitem.FT_REG_FILE))},
	}, 4096-0x65)
	img.put(0x200000, fsLeaf)

	var m btrfsvol.ChunkMap
	require.NoError(t, m.Insert(0x100000, 4096, 0x200000))

	w := &btrfstree.Walker{Img: img, Chunks: &m, NodeSize: 4096}
	paths, err := btrfsutil.ScanFSTree(w, 0x100000)
	require.NoError(t, err)
	assert.Equal(t, []string{"/docs/readme"}, paths)
}

// Scenario 4: overlap rejection — a chunk tree leaf re-declares the
// bootstrap range with a different physical offset.
func TestScenarioOverlapRejection(t *testing.T) {
	t.Parallel()
	img := newMemImage()

	chunkLeaf := encodeLeafNode(0, chunkTreeObjID, []leafItem{
		{Key: btrfsprim.Key{ObjectID: 256, ItemType: btrfsprim.CHUNK_ITEM_KEY, Offset: 0}, Data: encodeChunkItem(4096, 0x20000)},
	}, 4096-0x65)
	img.put(0x10000, chunkLeaf)

	var m btrfsvol.ChunkMap
	require.NoError(t, m.Insert(0, 4096, 0x10000))

	w := &btrfstree.Walker{Img: img, Chunks: &m, NodeSize: 4096}
	err := btrfsutil.LoadChunkTree(context.Background(), w, 0, &m)
	assert.ErrorIs(t, err, btrfsprim.ErrOverlap)
}

// Scenario 5: unresolvable pointer.
func TestScenarioUnresolvablePointer(t *testing.T) {
	t.Parallel()
	img := newMemImage()
	root := encodeInteriorNode(0x100000, fsTreeRootObjID, 1, []keyPtr{
		{Key: btrfsprim.Key{ObjectID: 1}, BlockPtr: 0x999000},
	})
	img.put(0x200000, root)

	var m btrfsvol.ChunkMap
	require.NoError(t, m.Insert(0x100000, btrfsvol.AddrDelta(len(root)), 0x200000))

	w := &btrfstree.Walker{Img: img, Chunks: &m, NodeSize: uint32(len(root))}
	_, err := btrfsutil.ScanFSTree(w, 0x100000)
	assert.ErrorIs(t, err, btrfsprim.ErrUnresolvableLogical)
}

// Scenario 6: non-leaf FS root tree.
func TestScenarioNonLeafRootTree(t *testing.T) {
	t.Parallel()
	img := newMemImage()
	root := encodeInteriorNode(0x300000, btrfsprim.ROOT_TREE_OBJECTID, 1, []keyPtr{
		{Key: btrfsprim.Key{ObjectID: 1}, BlockPtr: 0x400000},
	})
	img.put(0x500000, root)

	var m btrfsvol.ChunkMap
	require.NoError(t, m.Insert(0x300000, btrfsvol.AddrDelta(len(root)), 0x500000))

	w := &btrfstree.Walker{Img: img, Chunks: &m, NodeSize: uint32(len(root))}
	_, err := btrfsutil.FindDefaultSubvolume(w, 0x300000)
	assert.ErrorIs(t, err, btrfsprim.ErrBadInvariant)
}
