// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dump supports the --debug flag: spewing a decoded structure (the
// superblock) to stderr, the way btrfs-dbg and inspect_spewitems do.
package dump

import (
	"io"

	"github.com/davecgh/go-spew/spew"
)

var config = func() *spew.ConfigState {
	c := spew.NewDefaultConfig()
	c.DisablePointerAddresses = true
	return c
}()

// Struct writes a human-readable dump of v to w, labeled with name.
func Struct(w io.Writer, name string, v any) {
	_, _ = io.WriteString(w, name+":\n")
	config.Fdump(w, v)
}
