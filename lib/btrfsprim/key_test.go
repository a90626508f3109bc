// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package btrfsprim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"btrfswalk/lib/btrfsprim"
)

func TestDecodeKey(t *testing.T) {
	t.Parallel()
	dat := []byte{
		0x05, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // objectid = 5
		0xe4,                                           // type = 228 (CHUNK_ITEM)
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // offset = 0
		0xff, // trailing byte, not consumed
	}
	key, n, err := btrfsprim.DecodeKey(dat)
	require.NoError(t, err)
	assert.Equal(t, btrfsprim.SizeofKey, n)
	assert.Equal(t, btrfsprim.ObjID(5), key.ObjectID)
	assert.Equal(t, btrfsprim.CHUNK_ITEM_KEY, key.ItemType)
	assert.Equal(t, uint64(0), key.Offset)
}

func TestDecodeKeyShort(t *testing.T) {
	t.Parallel()
	_, _, err := btrfsprim.DecodeKey(make([]byte, 10))
	assert.Error(t, err)
}
