// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package btrfsvol holds the two address spaces the rest of this tool
// translates between (logical and physical) and the Chunk Map that
// translates one into the other.
package btrfsvol

import "fmt"

type (
	// PhysicalAddr is a byte offset into the underlying image file.
	PhysicalAddr int64
	// LogicalAddr is a virtual byte offset used by all intra-filesystem
	// pointers; translated to a PhysicalAddr via a ChunkMap.
	LogicalAddr int64
	// AddrDelta is a signed distance between two addresses.
	AddrDelta int64
)

// DeviceID identifies a physical device within a chunk stripe. This tool
// decodes it but never consults it: only the first stripe of each chunk is
// used, whatever its device.
type DeviceID uint64

func formatAddr(addr int64, f fmt.State, verb rune) {
	switch verb {
	case 'v', 's':
		fmt.Fprintf(f, "%#016x", addr)
	case 'q':
		fmt.Fprintf(f, "%q", fmt.Sprintf("%#016x", addr))
	case 'x':
		fmt.Fprintf(f, "%x", addr)
	case 'd':
		fmt.Fprintf(f, "%d", addr)
	default:
		fmt.Fprintf(f, "%!%c(%T=%d)", verb, addr, addr)
	}
}

func (a PhysicalAddr) Format(f fmt.State, verb rune) { formatAddr(int64(a), f, verb) }
func (a LogicalAddr) Format(f fmt.State, verb rune)  { formatAddr(int64(a), f, verb) }
func (d AddrDelta) Format(f fmt.State, verb rune)    { formatAddr(int64(d), f, verb) }

// Add returns the address offset by delta.
func (a PhysicalAddr) Add(delta AddrDelta) PhysicalAddr { return a + PhysicalAddr(delta) }

// Add returns the address offset by delta.
func (a LogicalAddr) Add(delta AddrDelta) LogicalAddr { return a + LogicalAddr(delta) }

// Sub returns the signed distance from b to a.
func (a LogicalAddr) Sub(b LogicalAddr) AddrDelta { return AddrDelta(a - b) }
