// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package xfs

import "github.com/siderolabs/go-blkprobe/blkid/internal/layout"

// SuperBlock is a byte slice representing the XFS superblock.
type SuperBlock []byte

// SuperBlockSize covers the superblock up to and including sb_meta_uuid.
const SuperBlockSize = 264

// Superblock fields, big-endian except for the CRC.
//
//nolint:revive,stylecheck
var (
	SB_magicnum   = layout.BE(0, 4)
	SB_blocksize  = layout.BE(4, 4)
	SB_dblocks    = layout.BE(8, 8)
	SB_rblocks    = layout.BE(16, 8)
	SB_uuid       = layout.Raw(32, 16)
	SB_logstart   = layout.BE(48, 8)
	SB_rextsize   = layout.BE(80, 4)
	SB_agblocks   = layout.BE(84, 4)
	SB_agcount    = layout.BE(88, 4)
	SB_logblocks  = layout.BE(96, 4)
	SB_versionnum = layout.BE(100, 2)
	SB_sectsize   = layout.BE(102, 2)
	SB_inodesize  = layout.BE(104, 2)
	SB_inopblock  = layout.BE(106, 2)
	SB_fname      = layout.Raw(108, 12)
	SB_blocklog   = layout.Raw(120, 1)
	SB_sectlog    = layout.Raw(121, 1)
	SB_inodelog   = layout.Raw(122, 1)
	SB_inopblog   = layout.Raw(123, 1)
	SB_imax_pct   = layout.Raw(127, 1)
	SB_icount     = layout.BE(128, 8)
	SB_crc        = layout.LE(224, 4)
	SB_meta_uuid  = layout.Raw(248, 16)
)

// XFS superblock structure constants.
//
//nolint:revive,stylecheck
const (
	XFS_MIN_BLOCKSIZE_LOG  = 9  /* i.e. 512 bytes */
	XFS_MAX_BLOCKSIZE_LOG  = 16 /* i.e. 65536 bytes */
	XFS_MIN_BLOCKSIZE      = (1 << XFS_MIN_BLOCKSIZE_LOG)
	XFS_MAX_BLOCKSIZE      = (1 << XFS_MAX_BLOCKSIZE_LOG)
	XFS_MIN_SECTORSIZE_LOG = 9  /* i.e. 512 bytes */
	XFS_MAX_SECTORSIZE_LOG = 15 /* i.e. 32768 bytes */
	XFS_MIN_SECTORSIZE     = (1 << XFS_MIN_SECTORSIZE_LOG)
	XFS_MAX_SECTORSIZE     = (1 << XFS_MAX_SECTORSIZE_LOG)

	XFS_DINODE_MIN_LOG  = 8
	XFS_DINODE_MAX_LOG  = 11
	XFS_DINODE_MIN_SIZE = (1 << XFS_DINODE_MIN_LOG)
	XFS_DINODE_MAX_SIZE = (1 << XFS_DINODE_MAX_LOG)

	XFS_MAX_RTEXTSIZE = (1024 * 1024 * 1024) /* 1GB */
	XFS_MIN_RTEXTSIZE = (4 * 1024)           /* 4kB */

	XFS_SB_VERSION_NUMBITS = 0x000f
	XFS_SB_VERSION_5       = 5
)

// BlockSize returns the filesystem block size.
func (s SuperBlock) BlockSize() uint32 { return SB_blocksize.Uint32(s) }

// SectorSize returns the sector size.
func (s SuperBlock) SectorSize() uint16 { return SB_sectsize.Uint16(s) }

// Version returns the superblock version number (low bits of sb_versionnum).
func (s SuperBlock) Version() uint16 {
	return SB_versionnum.Uint16(s) & XFS_SB_VERSION_NUMBITS
}

// UUID returns the raw filesystem UUID.
func (s SuperBlock) UUID() []byte { return SB_uuid.Bytes(s) }

// Label returns the NUL-padded filesystem name.
func (s SuperBlock) Label() []byte { return SB_fname.Bytes(s) }

// CRC returns the stored v5 superblock checksum.
func (s SuperBlock) CRC() uint32 { return SB_crc.Uint32(s) }

// Valid returns true if the superblock is valid.
//
//nolint:gocyclo,cyclop
func (s SuperBlock) Valid() bool {
	var (
		sectsize  = uint32(SB_sectsize.Uint16(s))
		blocksize = SB_blocksize.Uint32(s)
		inodesize = uint32(SB_inodesize.Uint16(s))
		sectlog   = SB_sectlog.Uint8(s)
		blocklog  = SB_blocklog.Uint8(s)
		inodelog  = SB_inodelog.Uint8(s)
		rtextent  = uint64(SB_rextsize.Uint32(s)) * uint64(blocksize)
	)

	if SB_agcount.Uint32(s) == 0 ||
		sectsize < XFS_MIN_SECTORSIZE ||
		sectsize > XFS_MAX_SECTORSIZE ||
		sectlog < XFS_MIN_SECTORSIZE_LOG ||
		sectlog > XFS_MAX_SECTORSIZE_LOG ||
		sectsize != (1<<sectlog) ||
		blocksize < XFS_MIN_BLOCKSIZE ||
		blocksize > XFS_MAX_BLOCKSIZE ||
		blocklog < XFS_MIN_BLOCKSIZE_LOG ||
		blocklog > XFS_MAX_BLOCKSIZE_LOG ||
		blocksize != (1<<blocklog) ||
		inodesize < XFS_DINODE_MIN_SIZE ||
		inodesize > XFS_DINODE_MAX_SIZE ||
		inodelog < XFS_DINODE_MIN_LOG ||
		inodelog > XFS_DINODE_MAX_LOG ||
		inodesize != (1<<inodelog) ||
		(blocklog-inodelog != SB_inopblog.Uint8(s)) ||
		rtextent > XFS_MAX_RTEXTSIZE ||
		rtextent < XFS_MIN_RTEXTSIZE ||
		(SB_imax_pct.Uint8(s) > 100 /* zero sb_imax_pct is valid */) ||
		SB_dblocks.Uint64(s) == 0 {
		return false
	}

	return true
}

// FilesystemSize returns the size of the filesystem in bytes.
func (s SuperBlock) FilesystemSize() uint64 {
	var logBlocks uint64

	if SB_logstart.Uint64(s) != 0 {
		logBlocks = uint64(SB_logblocks.Uint32(s))
	}

	return (SB_dblocks.Uint64(s) - logBlocks) * uint64(s.BlockSize())
}
