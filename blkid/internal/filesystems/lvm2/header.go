// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package lvm2

import "github.com/siderolabs/go-blkprobe/blkid/internal/layout"

// Label is a byte slice representing the LVM2 label sector.
type Label []byte

// Label layout constants.
const (
	SectorSize = 512
	// LabelHeaderSize is the size of the label header preceding the PV header.
	LabelHeaderSize = 32
	// PVHeaderMinSize is the PV UUID plus device size.
	PVHeaderMinSize = 32 + 8
)

// Label header fields, integers are little-endian.
//
//nolint:revive,stylecheck
var (
	Lbl_id        = layout.Raw(0x00, 8)
	Lbl_sector_xl = layout.LE(0x08, 8)
	Lbl_crc_xl    = layout.LE(0x10, 4)
	Lbl_offset_xl = layout.LE(0x14, 4)
	Lbl_type      = layout.Raw(0x18, 8)
	Lbl_pv_uuid   = layout.Raw(0x20, 32)
)

// ID returns the label ID ("LABELONE").
func (l Label) ID() []byte {
	return Lbl_id.Bytes(l)
}

// SectorXL returns the sector number of this label.
func (l Label) SectorXL() uint64 {
	return Lbl_sector_xl.Uint64(l)
}

// CrcXL returns the CRC stored for the rest of the sector.
func (l Label) CrcXL() uint32 {
	return Lbl_crc_xl.Uint32(l)
}

// OffsetXL returns the offset from the start of the label to the PV header.
func (l Label) OffsetXL() uint32 {
	return Lbl_offset_xl.Uint32(l)
}

// Type returns the label type ("LVM2 001").
func (l Label) Type() []byte {
	return Lbl_type.Bytes(l)
}

// PVUUID returns the PV UUID stored in the PV header at OffsetXL.
//
// OffsetXL must be validated by the caller.
func (l Label) PVUUID() []byte {
	off := int(l.OffsetXL())

	return l[off : off+Lbl_pv_uuid.Width]
}

// ChecksummedArea returns the bytes covered by CrcXL.
func (l Label) ChecksummedArea() []byte {
	return l[Lbl_offset_xl.Offset:SectorSize]
}
