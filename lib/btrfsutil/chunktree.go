// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package btrfsutil wires the B-tree Walker up to the higher-level reads
// this tool performs: loading the chunk tree, finding the default
// subvolume, and scanning the FS tree for regular-file paths.
package btrfsutil

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"

	"btrfswalk/lib/btrfsitem"
	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfstree"
	"btrfswalk/lib/btrfsvol"
)

// chunkTreeVisitor ingests every CHUNK_ITEM_KEY leaf item into a ChunkMap,
// ignoring any other item type it encounters in the chunk tree.
type chunkTreeVisitor struct {
	Ctx    context.Context
	Chunks *btrfsvol.ChunkMap
}

func (v *chunkTreeVisitor) VisitItem(_ btrfsvol.LogicalAddr, item btrfstree.Item) error {
	if item.Key.ItemType != btrfsprim.CHUNK_ITEM_KEY {
		return nil
	}
	head, err := btrfsitem.DecodeChunkHeader(item.Data)
	if err != nil {
		return fmt.Errorf("chunk tree: logical=%v: %w", item.Key.Offset, err)
	}
	if head.NumStripes == 0 {
		return fmt.Errorf("%w: chunk tree: logical=%v has zero stripes", btrfsprim.ErrBadInvariant, item.Key.Offset)
	}
	if head.NumStripes > 1 {
		dlog.Warnf(v.Ctx, "num stripes more than one! : %d", head.NumStripes)
	}
	stripe, err := btrfsitem.DecodeChunkStripe(item.Data[btrfsitem.SizeofChunkHeader:])
	if err != nil {
		return fmt.Errorf("chunk tree: logical=%v: %w", item.Key.Offset, err)
	}

	start := btrfsvol.LogicalAddr(item.Key.Offset)
	// The bootstrap seed already covers the system chunks needed to
	// reach the chunk tree; the chunk tree's own leaves re-declare those
	// same chunks. Re-inserting an entry that's already present with the
	// exact same extent is a no-op, not a conflict; anything that
	// actually disagrees with what's already mapped is a genuine
	// OverlapError.
	if existing, ok := v.Chunks.Find(start); ok && existing.Start == start && existing.Size == head.Length && existing.Phys == stripe.Offset {
		return nil
	}
	if err := v.Chunks.Insert(start, head.Length, stripe.Offset); err != nil {
		return fmt.Errorf("chunk tree: %w", err)
	}
	return nil
}

// LoadChunkTree walks the chunk tree rooted at chunkRoot, inserting every
// chunk item it finds into chunks (which must already hold the bootstrap
// seed from ParseSysChunkArray, since translating the chunk tree's own
// nodes depends on it). After this returns, chunks resolves every logical
// address reachable by the rest of the filesystem.
func LoadChunkTree(ctx context.Context, w *btrfstree.Walker, chunkRoot btrfsvol.LogicalAddr, chunks *btrfsvol.ChunkMap) error {
	return w.WalkChunkRoot(chunkRoot, &chunkTreeVisitor{Ctx: ctx, Chunks: chunks})
}
