// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package utils_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
)

func TestIsPowerOf2(t *testing.T) {
	assert.True(t, utils.IsPowerOf2(uint32(2)))
	assert.True(t, utils.IsPowerOf2(uint32(1<<16)))
	assert.True(t, utils.IsPowerOf2(uint8(1)))
	assert.False(t, utils.IsPowerOf2(uint32(0)))
	assert.False(t, utils.IsPowerOf2(uint32(3)))
	assert.False(t, utils.IsPowerOf2(uint64(4097)))
}

func TestTrim(t *testing.T) {
	assert.Equal(t, "label", utils.TrimNUL([]byte("label\x00\x00\x00")))
	assert.Equal(t, "label ", utils.TrimNUL([]byte("label \x00garbage")))
	assert.Equal(t, "full", utils.TrimNUL([]byte("full")))

	assert.Equal(t, "ISO label", utils.TrimSpace([]byte("ISO label    ")))
	// NULs are not space padding
	assert.Equal(t, "x\x00", utils.TrimSpace([]byte("x\x00  ")))
	assert.Equal(t, "", utils.TrimSpace([]byte("     ")))
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, utils.OptionalString(""))
	assert.Equal(t, "a", *utils.OptionalString("a"))
}

func TestIsZero(t *testing.T) {
	assert.True(t, utils.IsZero(make([]byte, 16)))
	assert.True(t, utils.IsZero(nil))
	assert.False(t, utils.IsZero([]byte{0, 0, 1}))
}
