// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package squashfs

import (
	"encoding/binary"

	"github.com/siderolabs/go-blkprobe/blkid/internal/layout"
)

// SuperBlock is a byte slice representing the squashfs superblock.
type SuperBlock []byte

// SuperBlockSize is the size of the version 4 superblock.
const SuperBlockSize = 96

// Superblock fields; version 4 stores everything little-endian.
//
//nolint:revive,stylecheck
var (
	SB_magic         = layout.LE(0, 4)
	SB_inode_count   = layout.LE(4, 4)
	SB_mod_time      = layout.LE(8, 4)
	SB_block_size    = layout.LE(12, 4)
	SB_frag_count    = layout.LE(16, 4)
	SB_compressor    = layout.LE(20, 2)
	SB_block_log     = layout.LE(22, 2)
	SB_flags         = layout.LE(24, 2)
	SB_id_count      = layout.LE(26, 2)
	SB_version_major = layout.LE(28, 2)
	SB_version_minor = layout.LE(30, 2)
	SB_root_inode    = layout.LE(32, 8)
	SB_bytes_used    = layout.LE(40, 8)
	SB_id_table      = layout.LE(48, 8)
	SB_xattr_table   = layout.LE(56, 8)
	SB_inode_table   = layout.LE(64, 8)
	SB_dir_table     = layout.LE(72, 8)
	SB_frag_table    = layout.LE(80, 8)
	SB_export_table  = layout.LE(88, 8)
)

// Version returns the major and minor version.
//
// Legacy (pre-4) big-endian images store the version big-endian.
func (sb SuperBlock) Version(order binary.ByteOrder) (uint16, uint16) {
	return SB_version_major.WithOrder(order).Uint16(sb), SB_version_minor.WithOrder(order).Uint16(sb)
}

// BlockSize returns the data block size.
func (sb SuperBlock) BlockSize() uint32 {
	return SB_block_size.Uint32(sb)
}

// BlockLog returns log2 of the block size.
func (sb SuperBlock) BlockLog() uint16 {
	return SB_block_log.Uint16(sb)
}

// BytesUsed returns the size of the filesystem image.
func (sb SuperBlock) BytesUsed() uint64 {
	return SB_bytes_used.Uint64(sb)
}
