// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package swap

import (
	"encoding/binary"

	"github.com/siderolabs/go-blkprobe/blkid/internal/layout"
)

// Header is a byte slice representing the swap header (after the boot bits).
type Header []byte

// Header location and size.
const (
	HeaderOffset = 1024
	HeaderSize   = 44
)

// Header fields, relative to HeaderOffset.
//
// The header is written in the byte order of the host which ran mkswap.
//
//nolint:revive,stylecheck
var (
	Hdr_version     = layout.LE(0, 4)
	Hdr_lastpage    = layout.LE(4, 4)
	Hdr_nr_badpages = layout.LE(8, 4)
	Hdr_uuid        = layout.Raw(12, 16)
	Hdr_volume      = layout.Raw(28, 16)
)

// ByteOrder detects the byte order the header was written in.
func (h Header) ByteOrder() binary.ByteOrder {
	if Hdr_version.Uint32(h) != 1 && Hdr_version.WithOrder(binary.BigEndian).Uint32(h) == 1 {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Version returns the header version.
func (h Header) Version() uint32 {
	return Hdr_version.WithOrder(h.ByteOrder()).Uint32(h)
}

// LastPage returns the index of the last usable page.
func (h Header) LastPage() uint32 {
	return Hdr_lastpage.WithOrder(h.ByteOrder()).Uint32(h)
}

// UUID returns the raw UUID.
func (h Header) UUID() []byte {
	return Hdr_uuid.Bytes(h)
}

// Volume returns the NUL-padded label.
func (h Header) Volume() []byte {
	return Hdr_volume.Bytes(h)
}
