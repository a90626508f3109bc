// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfstree

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"

	"btrfswalk/lib/btrfsitem"
	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfsvol"
)

// ParseSysChunkArray walks the superblock's embedded bootstrap array of
// (Key, Chunk) pairs and inserts each SYSTEM chunk into m. This is the only
// way to resolve the logical addresses of the chunk tree root itself, since
// the chunk tree (which would otherwise do that translation) hasn't been
// loaded yet.
//
// Every record's key must be a CHUNK_ITEM_KEY with at least one stripe;
// anything else is a fatal error, since a corrupt bootstrap array means
// there is no way to reach the chunk tree at all.
func ParseSysChunkArray(ctx context.Context, sb Superblock, m *btrfsvol.ChunkMap) error {
	dat := sb.SysChunkArray
	for len(dat) > 0 {
		key, n, err := btrfsprim.DecodeKey(dat)
		if err != nil {
			return fmt.Errorf("sys chunk array: %w", err)
		}
		dat = dat[n:]

		if key.ItemType != btrfsprim.CHUNK_ITEM_KEY {
			return fmt.Errorf("%w: sys chunk array: expected %v, got %v",
				btrfsprim.ErrBadItemType, btrfsprim.CHUNK_ITEM_KEY, key.ItemType)
		}

		head, err := btrfsitem.DecodeChunkHeader(dat)
		if err != nil {
			return fmt.Errorf("sys chunk array: chunk at logical=%v: %w", key.Offset, err)
		}
		if head.NumStripes == 0 {
			return fmt.Errorf("%w: sys chunk array: chunk at logical=%v has zero stripes",
				btrfsprim.ErrBadInvariant, key.Offset)
		}
		if head.NumStripes > 1 {
			dlog.Warnf(ctx, "num stripes more than one! : %d", head.NumStripes)
		}
		// Multi-device/RAID striping is a non-goal; only the first
		// stripe is used.
		stripe, err := btrfsitem.DecodeChunkStripe(dat[btrfsitem.SizeofChunkHeader:])
		if err != nil {
			return fmt.Errorf("sys chunk array: chunk at logical=%v: %w", key.Offset, err)
		}

		// Key.Offset holds the chunk's starting logical address for
		// CHUNK_ITEM_KEY records.
		logical := btrfsvol.LogicalAddr(key.Offset)
		if err := m.Insert(logical, head.Length, stripe.Offset); err != nil {
			return fmt.Errorf("sys chunk array: %w", err)
		}

		consumed := btrfsitem.SizeofChunkHeader + int(head.NumStripes)*btrfsitem.SizeofStripe
		if consumed > len(dat) {
			return fmt.Errorf("%w: sys chunk array: short read", btrfsprim.ErrMalformedBlock)
		}
		dat = dat[consumed:]
	}
	return nil
}
