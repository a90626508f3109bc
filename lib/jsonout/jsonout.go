// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package jsonout supports the --json flag: streaming the emitted file-path
// list out as a JSON array with a low-memory re-encoder instead of building
// the whole array in memory with encoding/json.
package jsonout

import (
	"bufio"
	"io"

	"git.lukeshu.com/go/lowmemjson"
)

// WritePaths writes paths to w as a JSON array of strings, one encode pass,
// flushing its buffer before returning.
func WritePaths(w io.Writer, paths []string) (err error) {
	buffer := bufio.NewWriter(w)
	defer func() {
		if ferr := buffer.Flush(); err == nil && ferr != nil {
			err = ferr
		}
	}()
	cfg := lowmemjson.ReEncoderConfig{
		Indent:                "\t",
		ForceTrailingNewlines: true,
		Out:                   buffer,
	}
	return lowmemjson.Encode(&cfg, paths)
}
