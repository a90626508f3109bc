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

// inodeRef is one entry of the inode table built by Pass A: the inode's
// parent inode and its name within that parent. A self-referential entry
// (ParentInode == the key's own ObjectID) marks the subvolume root.
type inodeRef struct {
	ParentInode btrfsprim.ObjID
	Name        string
}

// inodeRefVisitor builds the inode table from INODE_REF_KEY items. Hardlinks
// (a child inode appearing more than once) resolve last-writer-wins, as
// permitted for read-only enumeration: each later ref for the same inode
// overwrites the earlier one, so whichever is visited last determines the
// entry.
type inodeRefVisitor struct {
	Table map[btrfsprim.ObjID]inodeRef
}

func (v *inodeRefVisitor) VisitItem(_ btrfsvol.LogicalAddr, item btrfstree.Item) error {
	if item.Key.ItemType != btrfsprim.INODE_REF_KEY {
		return nil
	}
	ref, err := btrfsitem.DecodeInodeRef(item.Data)
	if err != nil {
		return fmt.Errorf("fs tree: inode ref for inode %v: %w", item.Key.ObjectID, err)
	}
	v.Table[item.Key.ObjectID] = inodeRef{
		ParentInode: btrfsprim.ObjID(item.Key.Offset),
		Name:        ref.Name,
	}
	return nil
}

// pathVisitor back-chains the inode table to emit an absolute path for
// every regular-file dir item.
type pathVisitor struct {
	Table map[btrfsprim.ObjID]inodeRef
	Paths []string
}

func (v *pathVisitor) VisitItem(_ btrfsvol.LogicalAddr, item btrfstree.Item) error {
	if item.Key.ItemType != btrfsprim.DIR_ITEM_KEY {
		return nil
	}
	entry, err := btrfsitem.DecodeDirEntry(item.Data)
	if err != nil {
		return fmt.Errorf("fs tree: dir item at objectid=%v: %w", item.Key.ObjectID, err)
	}
	if entry.Type != btrfsitem.FT_REG_FILE {
		return nil
	}

	path, err := v.backChain(entry.Location.ObjectID)
	if err != nil {
		return err
	}
	v.Paths = append(v.Paths, path)
	return nil
}

func (v *pathVisitor) backChain(target btrfsprim.ObjID) (string, error) {
	path := ""
	cur := target
	for {
		ref, ok := v.Table[cur]
		if !ok {
			return "", fmt.Errorf("%w: inode %v has no inode-ref entry", btrfsprim.ErrDanglingInodeRef, cur)
		}
		if ref.ParentInode == cur {
			break
		}
		path = "/" + ref.Name + path
		cur = ref.ParentInode
	}
	return path, nil
}

// ScanFSTree performs the two-pass FS tree scan: Pass A builds the
// inode→{parent, name} table from every INODE_REF_KEY item; Pass B walks
// the tree again and, for every regular-file dir item, back-chains through
// the table to produce its absolute path (relative to the subvolume root,
// with no leading subvolume name). The recursion in each pass descends into
// the freshly-read child node, never the parent's buffer.
func ScanFSTree(w *btrfstree.Walker, fsRoot btrfsvol.LogicalAddr) ([]string, error) {
	refs := &inodeRefVisitor{Table: make(map[btrfsprim.ObjID]inodeRef)}
	if err := w.Walk(fsRoot, refs); err != nil {
		return nil, fmt.Errorf("fs tree: pass A (inode refs): %w", err)
	}

	paths := &pathVisitor{Table: refs.Table}
	if err := w.Walk(fsRoot, paths); err != nil {
		return nil, fmt.Errorf("fs tree: pass B (path emission): %w", err)
	}
	return paths.Paths, nil
}
