// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package containers holds small generic collection helpers shared across
// the tool.
package containers

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"btrfswalk/lib/btrfsvol"
)

// BlockCache caches decoded node blocks keyed by their physical offset, so
// the FS tree's two passes (and repeated descents into shared subtrees
// across chunk/root/fs trees) don't re-read and re-decode the same block
// from the Image Reader twice. It's a thin typed wrapper over an ARC cache,
// created lazily on first use with the size given at construction; a size
// of zero or less (including a zero-value BlockCache) gets 128 entries.
type BlockCache[V any] struct {
	initOnce sync.Once
	size     int
	inner    *lru.ARCCache
}

// NewBlockCache constructs a cache holding up to size entries.
func NewBlockCache[V any](size int) *BlockCache[V] {
	return &BlockCache[V]{size: size}
}

func (c *BlockCache[V]) init() {
	c.initOnce.Do(func() {
		n := c.size
		if n <= 0 {
			n = 128
		}
		c.inner, _ = lru.NewARC(n)
	})
}

func (c *BlockCache[V]) Add(key btrfsvol.PhysicalAddr, value V) {
	c.init()
	c.inner.Add(key, value)
}

func (c *BlockCache[V]) Get(key btrfsvol.PhysicalAddr) (V, bool) {
	c.init()
	var zero V
	raw, ok := c.inner.Get(key)
	if !ok {
		return zero, false
	}
	return raw.(V), true
}

func (c *BlockCache[V]) Len() int {
	c.init()
	return c.inner.Len()
}

func (c *BlockCache[V]) Purge() {
	c.init()
	c.inner.Purge()
}
