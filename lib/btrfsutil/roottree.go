// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsutil

import (
	"fmt"

	"btrfswalk/lib/btrfsitem"
	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfstree"
	"btrfswalk/lib/btrfsvol"
)

// FindDefaultSubvolume reads the root tree's single leaf (a non-zero level
// is a fatal error: multi-level root trees are a simplification this tool
// does not support) and returns the logical address of the default FS
// tree's root node, found via the (FS_TREE_OBJECTID, ROOT_ITEM_KEY) item.
func FindDefaultSubvolume(w *btrfstree.Walker, rootTreeRoot btrfsvol.LogicalAddr) (btrfsvol.LogicalAddr, error) {
	node, err := w.ReadNode(rootTreeRoot, w.NodeSize)
	if err != nil {
		return 0, fmt.Errorf("root tree: %w", err)
	}
	if node.Head.Level != 0 {
		return 0, fmt.Errorf("%w: root tree root has level %d, want a single leaf",
			btrfsprim.ErrBadInvariant, node.Head.Level)
	}

	for _, item := range node.Leaf {
		if item.Key.ObjectID != btrfsprim.FS_TREE_OBJECTID || item.Key.ItemType != btrfsprim.ROOT_ITEM_KEY {
			continue
		}
		root, err := btrfsitem.DecodeRoot(item.Data)
		if err != nil {
			return 0, fmt.Errorf("root tree: default subvolume root item: %w", err)
		}
		return root.ByteNr, nil
	}
	return 0, fmt.Errorf("%w: root tree: no root item for FS_TREE_OBJECTID", btrfsprim.ErrBadInvariant)
}
