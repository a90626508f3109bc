// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfstree_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btrfswalk/lib/btrfsprim"
	"btrfswalk/lib/btrfstree"
	"btrfswalk/lib/btrfsvol"
)

func makeSuperblockBuf(t *testing.T, magicOK bool) []byte {
	t.Helper()
	dat := make([]byte, 0x32b+0x800)
	if magicOK {
		copy(dat[0x40:0x48], btrfstree.SuperblockMagic[:])
	} else {
		copy(dat[0x40:0x48], []byte("garbage!"))
	}
	binary.LittleEndian.PutUint64(dat[0x50:0x58], 0x4000) // root_logical
	binary.LittleEndian.PutUint64(dat[0x58:0x60], 0x2000) // chunk_root_logical
	binary.LittleEndian.PutUint32(dat[0x94:0x98], 16384)  // node_size
	binary.LittleEndian.PutUint32(dat[0xa0:0xa4], 17)     // sys_chunk_array_size
	return dat
}

func TestDecodeSuperblockValid(t *testing.T) {
	t.Parallel()
	dat := makeSuperblockBuf(t, true)
	sb, err := btrfstree.DecodeSuperblock(dat)
	require.NoError(t, err)
	assert.EqualValues(t, 16384, sb.NodeSize)
	assert.Equal(t, btrfsvol.LogicalAddr(0x4000), sb.RootLogical)
	assert.Equal(t, btrfsvol.LogicalAddr(0x2000), sb.ChunkRootLogical)
	assert.Len(t, sb.SysChunkArray, 17)
}

func TestDecodeSuperblockBadMagic(t *testing.T) {
	t.Parallel()
	dat := makeSuperblockBuf(t, false)
	_, err := btrfstree.DecodeSuperblock(dat)
	require.ErrorIs(t, err, btrfsprim.ErrBadMagic)
}

func TestDecodeSuperblockShort(t *testing.T) {
	t.Parallel()
	_, err := btrfstree.DecodeSuperblock(make([]byte, 10))
	assert.Error(t, err)
}
