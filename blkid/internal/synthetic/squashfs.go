// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"encoding/binary"

	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/squashfs"
)

// SquashFS builds a SquashFS superblock.
type SquashFS struct {
	// BlockLog defaults to 17 (128 KiB blocks).
	BlockLog uint16
	// BytesUsed defaults to the image size.
	BytesUsed uint64
	// VersionMajor defaults to 4.
	VersionMajor uint16
	// BigEndian writes a legacy big-endian superblock.
	BigEndian bool
	// Size of the image, defaults to 8 KiB.
	Size uint64
}

// Build implements Builder.
func (o SquashFS) Build() []byte {
	size := orDefault(o.Size, 8192)
	blockLog := orDefault(o.BlockLog, 17)

	img := make([]byte, size)
	sb := squashfs.SuperBlock(img[:squashfs.SuperBlockSize])

	var order binary.ByteOrder = binary.LittleEndian

	if o.BigEndian {
		order = binary.BigEndian
		squashfs.SB_magic.Put(sb, []byte("sqsh"))
	} else {
		squashfs.SB_magic.Put(sb, []byte("hsqs"))
	}

	squashfs.SB_inode_count.WithOrder(order).PutUint32(sb, 1)
	squashfs.SB_block_size.WithOrder(order).PutUint32(sb, 1<<blockLog)
	squashfs.SB_compressor.WithOrder(order).PutUint16(sb, 1)
	squashfs.SB_block_log.WithOrder(order).PutUint16(sb, blockLog)
	squashfs.SB_version_major.WithOrder(order).PutUint16(sb, orDefault(o.VersionMajor, 4))
	squashfs.SB_version_minor.WithOrder(order).PutUint16(sb, 0)
	squashfs.SB_bytes_used.WithOrder(order).PutUint64(sb, orDefault(o.BytesUsed, size))
	squashfs.SB_inode_table.WithOrder(order).PutUint64(sb, squashfs.SuperBlockSize)

	return img
}
