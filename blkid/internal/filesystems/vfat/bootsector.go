// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package vfat

import "github.com/siderolabs/go-blkprobe/blkid/internal/layout"

// BootSector is a byte slice representing the FAT boot sector.
type BootSector []byte

// BootSectorSize is the size of the boot sector.
const BootSectorSize = 512

// BIOS parameter block, common to all FAT variants.
//
//nolint:revive,stylecheck
var (
	MS_sysid        = layout.Raw(0x03, 8)
	MS_sector_size  = layout.LE(0x0b, 2)
	MS_cluster_size = layout.Raw(0x0d, 1)
	MS_reserved     = layout.LE(0x0e, 2)
	MS_fats         = layout.Raw(0x10, 1)
	MS_dir_entries  = layout.LE(0x11, 2)
	MS_sectors      = layout.LE(0x13, 2)
	MS_media        = layout.Raw(0x15, 1)
	MS_fat_length   = layout.LE(0x16, 2)
	MS_secs_track   = layout.LE(0x18, 2)
	MS_heads        = layout.LE(0x1a, 2)
	MS_hidden       = layout.LE(0x1c, 4)
	MS_total_sect   = layout.LE(0x20, 4)

	VS_fat32_length = layout.LE(0x24, 4)
	VS_root_cluster = layout.LE(0x2c, 4)

	BS_signature = layout.Raw(0x1fe, 2)
)

// EBPB is the extended BIOS parameter block, its location depends on the FAT variant.
type EBPB struct {
	BootSig layout.Field
	Serial  layout.Field
	Label   layout.Field
	FSType  layout.Field
}

// Extended BIOS parameter blocks.
var (
	EBPB16 = EBPB{
		BootSig: layout.Raw(0x26, 1),
		Serial:  layout.LE(0x27, 4),
		Label:   layout.Raw(0x2b, 11),
		FSType:  layout.Raw(0x36, 8),
	}

	EBPB32 = EBPB{
		BootSig: layout.Raw(0x42, 1),
		Serial:  layout.LE(0x43, 4),
		Label:   layout.Raw(0x47, 11),
		FSType:  layout.Raw(0x52, 8),
	}
)

// SysID returns the OEM name.
func (bs BootSector) SysID() []byte { return MS_sysid.Bytes(bs) }

// SectorSize returns bytes per sector.
func (bs BootSector) SectorSize() uint16 { return MS_sector_size.Uint16(bs) }

// ClusterSize returns sectors per cluster.
func (bs BootSector) ClusterSize() uint8 { return MS_cluster_size.Uint8(bs) }

// Reserved returns the number of reserved sectors.
func (bs BootSector) Reserved() uint16 { return MS_reserved.Uint16(bs) }

// FATs returns the number of FAT copies.
func (bs BootSector) FATs() uint8 { return MS_fats.Uint8(bs) }

// DirEntries returns the number of root directory entries (FAT12/16).
func (bs BootSector) DirEntries() uint16 { return MS_dir_entries.Uint16(bs) }

// Media returns the media descriptor.
func (bs BootSector) Media() uint8 { return MS_media.Uint8(bs) }

// FATLength returns the FAT12/16 FAT size in sectors.
func (bs BootSector) FATLength() uint16 { return MS_fat_length.Uint16(bs) }

// FAT32Length returns the FAT32 FAT size in sectors.
func (bs BootSector) FAT32Length() uint32 { return VS_fat32_length.Uint32(bs) }

// Sectors returns the total number of sectors.
func (bs BootSector) Sectors() uint32 {
	if sectors := MS_sectors.Uint16(bs); sectors != 0 {
		return uint32(sectors)
	}

	return MS_total_sect.Uint32(bs)
}
