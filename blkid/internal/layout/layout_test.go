// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package layout_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/siderolabs/go-blkprobe/blkid/internal/layout"
)

func TestByteOrders(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}

	assert.Equal(t, uint32(0x04030201), layout.LE(0, 4).Uint32(buf))
	assert.Equal(t, uint32(0x01020304), layout.BE(0, 4).Uint32(buf))
	assert.Equal(t, uint16(0x0605), layout.LE(4, 2).Uint16(buf))
	assert.Equal(t, uint64(0x0102030405060708), layout.BE(0, 8).Uint64(buf))
	assert.Equal(t, uint8(0x03), layout.Raw(2, 1).Uint8(buf))
	assert.Equal(t, []byte{0x07, 0x08}, layout.Raw(6, 2).Bytes(buf))

	assert.Equal(t, uint32(0x01020304), layout.LE(0, 4).WithOrder(binary.BigEndian).Uint32(buf))
}

func TestBothEndian(t *testing.T) {
	f := layout.BothEndian(2, 8)
	buf := make([]byte, 12)

	f.PutBothEndian32(buf, 0xdeadbeef)

	assert.Equal(t, []byte{0, 0, 0xef, 0xbe, 0xad, 0xde, 0xde, 0xad, 0xbe, 0xef, 0, 0}, buf)
	assert.Equal(t, uint32(0xdeadbeef), f.Uint32(buf))

	// corrupt the big-endian copy, the little-endian one is authoritative
	buf[9] = 0

	assert.Equal(t, uint32(0xdeadbeef), f.Uint32(buf))

	f16 := layout.BothEndian(0, 4)
	buf16 := make([]byte, 4)
	f16.PutBothEndian16(buf16, 2048)

	assert.Equal(t, uint16(2048), f16.Uint16(buf16))
	assert.Equal(t, []byte{0x00, 0x08, 0x08, 0x00}, buf16)
}

func TestPut(t *testing.T) {
	buf := []byte("xxxxxxxxxx")

	layout.Raw(2, 4).Put(buf, []byte("ab"))
	assert.Equal(t, []byte("xxab\x00\x00xxxx"), buf)

	layout.LE(0, 2).PutUint16(buf, 0x3130)
	assert.Equal(t, []byte("01ab\x00\x00xxxx"), buf)
}

func TestWidthMismatchPanics(t *testing.T) {
	assert.Panics(t, func() {
		layout.LE(0, 2).Uint32(make([]byte, 8))
	})

	assert.Panics(t, func() {
		layout.Raw(0, 4).Uint32(make([]byte, 8))
	})
}
