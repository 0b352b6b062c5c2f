// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package iso9660

import "github.com/siderolabs/go-blkprobe/blkid/internal/layout"

// VolumeDescriptor is a byte slice representing a single volume descriptor sector.
type VolumeDescriptor []byte

// VolumeDescriptorSize is the size of a volume descriptor sector.
const VolumeDescriptorSize = 2048

// Volume descriptor fields, integers are stored both-endian.
//
//nolint:revive,stylecheck
var (
	VD_type               = layout.Raw(0, 1)
	VD_id                 = layout.Raw(1, 5)
	VD_version            = layout.Raw(6, 1)
	VD_volume_id          = layout.Raw(40, 32)
	VD_space_size         = layout.BothEndian(80, 8)
	VD_set_size           = layout.BothEndian(120, 4)
	VD_vol_seq_num        = layout.BothEndian(124, 4)
	VD_logical_block_size = layout.BothEndian(128, 4)
	VD_created            = layout.Raw(813, 17)
	VD_modified           = layout.Raw(830, 17)
)

// Type returns the descriptor type.
func (vd VolumeDescriptor) Type() uint8 {
	return VD_type.Uint8(vd)
}

// ID returns the standard identifier ("CD001").
func (vd VolumeDescriptor) ID() []byte {
	return VD_id.Bytes(vd)
}

// VolumeID returns the space-padded volume identifier.
func (vd VolumeDescriptor) VolumeID() []byte {
	return VD_volume_id.Bytes(vd)
}

// SpaceSize returns the volume size in logical blocks.
func (vd VolumeDescriptor) SpaceSize() uint32 {
	return VD_space_size.Uint32(vd)
}

// LogicalBlockSize returns the logical block size.
func (vd VolumeDescriptor) LogicalBlockSize() uint16 {
	return VD_logical_block_size.Uint16(vd)
}

// Created returns the creation date (digits + timezone byte).
func (vd VolumeDescriptor) Created() []byte {
	return VD_created.Bytes(vd)
}

// Modified returns the modification date (digits + timezone byte).
func (vd VolumeDescriptor) Modified() []byte {
	return VD_modified.Bytes(vd)
}
