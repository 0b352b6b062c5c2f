// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"strings"

	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/iso9660"
)

// ISO9660 builds an ISO9660 image.
type ISO9660 struct {
	VolumeID string
	// Modified and Created are "YYYYMMDDHHMMSScc" dates.
	Modified string
	Created  string
	// SpaceSize in 2048-byte blocks, defaults to the image size.
	SpaceSize uint32

	// BootRecord puts an El Torito boot record before the primary descriptor.
	BootRecord bool
}

// Build implements Builder.
func (o ISO9660) Build() []byte {
	const blockSize = iso9660.VolumeDescriptorSize

	sector := 16

	numSectors := sector + 2
	if o.BootRecord {
		numSectors++
	}

	img := make([]byte, numSectors*blockSize)

	descriptor := func(vdType uint8) iso9660.VolumeDescriptor {
		vd := iso9660.VolumeDescriptor(img[sector*blockSize : (sector+1)*blockSize])

		iso9660.VD_type.PutUint8(vd, vdType)
		iso9660.VD_id.Put(vd, []byte("CD001"))
		iso9660.VD_version.PutUint8(vd, 1)

		sector++

		return vd
	}

	if o.BootRecord {
		br := descriptor(iso9660.VDBootRecord)
		copy(br[7:], "EL TORITO SPECIFICATION")
	}

	pvd := descriptor(iso9660.VDPrimary)

	volumeID := o.VolumeID + strings.Repeat(" ", iso9660.VD_volume_id.Width)
	iso9660.VD_volume_id.Put(pvd, []byte(volumeID))

	iso9660.VD_space_size.PutBothEndian32(pvd, orDefault(o.SpaceSize, uint32(numSectors)))
	iso9660.VD_set_size.PutBothEndian16(pvd, 1)
	iso9660.VD_vol_seq_num.PutBothEndian16(pvd, 1)
	iso9660.VD_logical_block_size.PutBothEndian16(pvd, blockSize)

	iso9660.VD_created.Put(pvd, isoDate(o.Created))
	iso9660.VD_modified.Put(pvd, isoDate(o.Modified))

	descriptor(iso9660.VDEnd)

	return img
}

// isoDate encodes an unset date as all '0' digits.
func isoDate(date string) []byte {
	if date == "" {
		date = strings.Repeat("0", 16)
	}

	return append([]byte(date), 0)
}
