// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"math/bits"

	"github.com/google/uuid"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/xfs"
)

// XFS builds an XFS superblock.
type XFS struct {
	UUID  uuid.UUID
	Label string

	// V5 writes a version 5 superblock with a CRC.
	V5 bool
	// BlockSize defaults to 4 KiB.
	BlockSize uint32
	// SectorSize defaults to 512.
	SectorSize uint16
	// DBlocks defaults to 4096.
	DBlocks uint64
}

// Build implements Builder.
//
// Only the first filesystem block is written.
func (o XFS) Build() []byte {
	blockSize := orDefault(o.BlockSize, 4096)
	sectorSize := orDefault(o.SectorSize, 512)

	const inodeSize = 512

	img := make([]byte, max(uint32(sectorSize), blockSize))
	sb := xfs.SuperBlock(img)

	blockLog := uint8(bits.TrailingZeros32(blockSize))
	inodeLog := uint8(bits.TrailingZeros32(inodeSize))

	version := uint16(0xb4a4)
	if o.V5 {
		version = 0xb4a5
	}

	xfs.SB_magicnum.Put(sb, []byte("XFSB"))
	xfs.SB_blocksize.PutUint32(sb, blockSize)
	xfs.SB_dblocks.PutUint64(sb, orDefault(o.DBlocks, 4096))
	xfs.SB_uuid.Put(sb, o.UUID[:])
	xfs.SB_rextsize.PutUint32(sb, 1)
	xfs.SB_agblocks.PutUint32(sb, uint32(orDefault(o.DBlocks, 4096)/4))
	xfs.SB_agcount.PutUint32(sb, 4)
	xfs.SB_versionnum.PutUint16(sb, version)
	xfs.SB_sectsize.PutUint16(sb, sectorSize)
	xfs.SB_inodesize.PutUint16(sb, inodeSize)
	xfs.SB_inopblock.PutUint16(sb, uint16(blockSize/inodeSize))
	xfs.SB_fname.Put(sb, []byte(o.Label))
	xfs.SB_blocklog.PutUint8(sb, blockLog)
	xfs.SB_sectlog.PutUint8(sb, uint8(bits.TrailingZeros16(sectorSize)))
	xfs.SB_inodelog.PutUint8(sb, inodeLog)
	xfs.SB_inopblog.PutUint8(sb, blockLog-inodeLog)
	xfs.SB_imax_pct.PutUint8(sb, 25)

	if o.V5 {
		xfs.SB_meta_uuid.Put(sb, o.UUID[:])
		xfs.SB_crc.PutUint32(sb, checksum.Castagnoli(img[:sectorSize]))
	}

	return img
}
