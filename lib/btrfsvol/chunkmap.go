// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsvol

import (
	"fmt"
	"sort"

	"golang.org/x/exp/constraints"

	"btrfswalk/lib/btrfsprim"
)

// Entry is a single Chunk Map entry: the logical range [Start, Start+Size)
// is backed 1:1 by the physical range [Phys, Phys+Size).
//
// Entries are never mutated or removed once inserted.
type Entry struct {
	Start LogicalAddr
	Size  AddrDelta
	Phys  PhysicalAddr
}

func (e Entry) end() LogicalAddr { return e.Start.Add(e.Size) }

// overlapsHalfOpen reports whether the half-open interval [aStart, aStart+aSize)
// intersects [bStart, bStart+bSize):
// a overlaps b iff a.start < b.start+b.size && b.start < a.start+a.size.
func overlapsHalfOpen[T constraints.Integer](aStart, aSize, bStart, bSize T) bool {
	return aStart < bStart+bSize && bStart < aStart+aSize
}

// ChunkMap is an append-only mapping from logical byte ranges to physical
// offsets. Entries are kept sorted by Start so lookup and overlap-checking
// are both a binary search.
type ChunkMap struct {
	entries []Entry // sorted by Start, pairwise disjoint
}

// overlapError is returned by Insert when the new range intersects an
// existing entry. errors.Is(err, btrfsprim.ErrOverlap) is true for it.
type overlapError struct {
	New, Existing Entry
}

func (e *overlapError) Error() string {
	return fmt.Sprintf("chunk map: new range [%v,%v) overlaps existing range [%v,%v)",
		e.New.Start, e.New.end(), e.Existing.Start, e.Existing.end())
}

func (*overlapError) Is(target error) bool {
	return target == btrfsprim.ErrOverlap
}

// Len returns the number of entries in the map.
func (m *ChunkMap) Len() int { return len(m.entries) }

// Insert adds a new entry [start, start+size) -> phys. It returns an error
// (without modifying the map) if size is zero or the new range overlaps any
// existing entry.
func (m *ChunkMap) Insert(start LogicalAddr, size AddrDelta, phys PhysicalAddr) error {
	if size <= 0 {
		return fmt.Errorf("chunk map: invalid insert: size must be > 0, got %v", size)
	}
	newEntry := Entry{Start: start, Size: size, Phys: phys}

	// entries are sorted by Start; find the insertion point and check
	// only the (at most two) neighbors for overlap, since existing
	// entries are already pairwise disjoint.
	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].Start >= start
	})
	if idx > 0 {
		prev := m.entries[idx-1]
		if overlapsHalfOpen(int64(newEntry.Start), int64(newEntry.Size), int64(prev.Start), int64(prev.Size)) {
			return &overlapError{New: newEntry, Existing: prev}
		}
	}
	if idx < len(m.entries) {
		next := m.entries[idx]
		if overlapsHalfOpen(int64(newEntry.Start), int64(newEntry.Size), int64(next.Start), int64(next.Size)) {
			return &overlapError{New: newEntry, Existing: next}
		}
	}

	m.entries = append(m.entries, Entry{})
	copy(m.entries[idx+1:], m.entries[idx:])
	m.entries[idx] = newEntry
	return nil
}

// Find returns the unique entry whose range contains logical, if any.
func (m *ChunkMap) Find(logical LogicalAddr) (Entry, bool) {
	idx := sort.Search(len(m.entries), func(i int) bool {
		return m.entries[i].end() > logical
	})
	if idx == len(m.entries) || m.entries[idx].Start > logical {
		return Entry{}, false
	}
	return m.entries[idx], true
}

// Translate maps a logical address to its physical offset, or false if no
// entry covers it.
func (m *ChunkMap) Translate(logical LogicalAddr) (PhysicalAddr, bool) {
	e, ok := m.Find(logical)
	if !ok {
		return 0, false
	}
	return e.Phys.Add(logical.Sub(e.Start)), true
}
