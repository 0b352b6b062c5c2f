// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package luks

import "github.com/siderolabs/go-blkprobe/blkid/internal/layout"

// Header is a byte slice representing the LUKS2 binary header.
type Header []byte

// HeaderSize is the size of the fixed part of the binary header.
const HeaderSize = 512

// LUKS2 binary header fields, all integers are big-endian.
//
//nolint:revive,stylecheck
var (
	Hdr_magic        = layout.Raw(0, 6)
	Hdr_version      = layout.BE(6, 2)
	Hdr_hdr_size     = layout.BE(8, 8)
	Hdr_seqid        = layout.BE(16, 8)
	Hdr_label        = layout.Raw(24, 48)
	Hdr_checksum_alg = layout.Raw(72, 32)
	Hdr_salt         = layout.Raw(104, 64)
	Hdr_uuid         = layout.Raw(168, 40) // same offset in LUKS1
	Hdr_subsystem    = layout.Raw(208, 48)
	Hdr_hdr_offset   = layout.BE(256, 8)
	Hdr_csum         = layout.Raw(448, 64)
)

// Version returns the header version.
func (h Header) Version() uint16 {
	return Hdr_version.Uint16(h)
}

// HdrSize returns the size of the binary header and JSON area.
func (h Header) HdrSize() uint64 {
	return Hdr_hdr_size.Uint64(h)
}

// HdrOffset returns the offset of this header copy from the device start.
func (h Header) HdrOffset() uint64 {
	return Hdr_hdr_offset.Uint64(h)
}

// Label returns the NUL-padded label.
func (h Header) Label() []byte {
	return Hdr_label.Bytes(h)
}

// Subsystem returns the NUL-padded subsystem label.
func (h Header) Subsystem() []byte {
	return Hdr_subsystem.Bytes(h)
}

// ChecksumAlg returns the NUL-padded checksum algorithm name.
func (h Header) ChecksumAlg() []byte {
	return Hdr_checksum_alg.Bytes(h)
}

// UUID returns the NUL-padded textual UUID.
func (h Header) UUID() []byte {
	return Hdr_uuid.Bytes(h)
}

// Csum returns the stored checksum.
func (h Header) Csum() []byte {
	return Hdr_csum.Bytes(h)
}
