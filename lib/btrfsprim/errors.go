// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsprim

import "errors"

// Sentinel errors for the fatal conditions this tool can hit while reading
// an image. Each is wrapped with additional context via fmt.Errorf's %w at
// the point it is raised, except ErrOverlap, which btrfsvol's overlap error
// matches through its Is method; callers distinguish kinds with errors.Is. Kept
// here, rather than in the packages that raise them, so that both
// btrfsitem and btrfstree can wrap them without an import cycle.
var (
	ErrBadMagic            = errors.New("bad superblock magic")
	ErrBadItemType         = errors.New("unexpected item type")
	ErrBadInvariant        = errors.New("violated on-disk invariant")
	ErrOverlap             = errors.New("overlapping chunk map entries")
	ErrUnresolvableLogical = errors.New("logical address has no chunk map entry")
	ErrDanglingInodeRef    = errors.New("inode ref points to a missing parent")
	ErrBadUTF8Name         = errors.New("name is not valid UTF-8")
	ErrMalformedBlock      = errors.New("malformed node block")
)
