// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/vfat"
)

// VFAT builds a FAT boot sector.
type VFAT struct {
	Label  string
	Serial uint32

	// FATBits is 12, 16 (default) or 32.
	FATBits int
	// SysID defaults to "mkfs.fat".
	SysID string
	// ExtBootSig defaults to 0x29 (serial and label present).
	ExtBootSig uint8
}

type fatGeometry struct {
	sectors     uint32
	clusterSize uint8
	reserved    uint16
	fatLength   uint32
	dirEntries  uint16
}

var fatGeometries = map[int]fatGeometry{
	// 1.44 MB floppy
	12: {sectors: 2880, clusterSize: 1, reserved: 1, fatLength: 9, dirEntries: 224},
	// 64 MiB
	16: {sectors: 131072, clusterSize: 4, reserved: 4, fatLength: 128, dirEntries: 512},
	// 512 MiB
	32: {sectors: 1048576, clusterSize: 8, reserved: 32, fatLength: 1024},
}

// Build implements Builder.
//
// Only the boot sector is written, the image is 4 KiB long.
func (o VFAT) Build() []byte {
	const sectorSize = 512

	fatBits := orDefault(o.FATBits, 16)
	geometry := fatGeometries[fatBits]

	img := make([]byte, 4096)
	bs := vfat.BootSector(img[:vfat.BootSectorSize])

	copy(bs, []byte{0xeb, 0x3c, 0x90})
	vfat.MS_sysid.Put(bs, []byte(orDefault(o.SysID, "mkfs.fat")))
	vfat.MS_sector_size.PutUint16(bs, sectorSize)
	vfat.MS_cluster_size.PutUint8(bs, geometry.clusterSize)
	vfat.MS_reserved.PutUint16(bs, geometry.reserved)
	vfat.MS_fats.PutUint8(bs, 2)
	vfat.MS_dir_entries.PutUint16(bs, geometry.dirEntries)
	vfat.MS_media.PutUint8(bs, 0xf8)
	vfat.MS_secs_track.PutUint16(bs, 32)
	vfat.MS_heads.PutUint16(bs, 64)

	if geometry.sectors <= 0xffff {
		vfat.MS_sectors.PutUint16(bs, uint16(geometry.sectors))
	} else {
		vfat.MS_total_sect.PutUint32(bs, geometry.sectors)
	}

	ebpb := vfat.EBPB16
	fsType := "FAT16   "

	switch fatBits {
	case 32:
		ebpb = vfat.EBPB32
		fsType = "FAT32   "

		vfat.VS_fat32_length.PutUint32(bs, geometry.fatLength)
		vfat.VS_root_cluster.PutUint32(bs, 2)
	case 12:
		fsType = "FAT12   "

		fallthrough
	default:
		vfat.MS_fat_length.PutUint16(bs, uint16(geometry.fatLength))
	}

	ebpb.BootSig.PutUint8(bs, orDefault(o.ExtBootSig, vfat.ExtBootSig))
	ebpb.Serial.PutUint32(bs, o.Serial)
	ebpb.Label.Put(bs, encodeFATLabel(o.Label))
	ebpb.FSType.Put(bs, []byte(fsType))

	vfat.BS_signature.Put(bs, []byte{0x55, 0xaa})

	return img
}

func encodeFATLabel(label string) []byte {
	if label == "" {
		label = "NO NAME"
	}

	encoded, err := charmap.CodePage437.NewEncoder().String(label)
	if err != nil {
		panic(err)
	}

	return []byte(encoded + strings.Repeat(" ", vfat.EBPB16.Label.Width))
}
