// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package magic implements the magic value detection for block devices.
package magic

import (
	"bytes"
	"fmt"
)

// Magic defines a filesystem/volume manager/partition table magic value.
type Magic struct {
	// Value to search for.
	Value []byte

	// Offset in the region where the magic value is located.
	Offset int
}

// Matches returns true if the magic value is found at the specified offset in the buffer.
//
// Buffers shorter than the magic never match, neither do negative offsets.
func (magic *Magic) Matches(buf []byte) bool {
	if magic.Offset < 0 || len(buf) < magic.BlockSize() {
		return false
	}

	return bytes.Equal(buf[magic.Offset:magic.BlockSize()], magic.Value)
}

// BlockSize returns the size of the buffer that needs to be read to detect the magic value.
func (magic *Magic) BlockSize() int {
	return magic.Offset + len(magic.Value)
}

// String implements fmt.Stringer.
func (magic *Magic) String() string {
	return fmt.Sprintf("%q@0x%x", magic.Value, magic.Offset)
}

// Any returns the first magic from the list which matches the buffer.
func Any(buf []byte, magics ...*Magic) *Magic {
	for _, m := range magics {
		if m.Matches(buf) {
			return m
		}
	}

	return nil
}
