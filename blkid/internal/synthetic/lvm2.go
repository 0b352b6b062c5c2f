// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"encoding/binary"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/lvm2"
)

// LVM2 builds an LVM2 physical volume label.
type LVM2 struct {
	// PVUUID is the 32 character PV UUID (without dashes).
	PVUUID string
	// Sector holding the label, 0..3.
	Sector uint64
	// Size of the image, defaults to 1 MiB.
	Size uint64
	// StandardCRC writes the label checksum as standard CRC-32 instead of
	// the seeded register LVM2 tools write.
	StandardCRC bool
}

// Build implements Builder.
func (o LVM2) Build() []byte {
	img := make([]byte, orDefault(o.Size, 1<<20))

	lbl := lvm2.Label(img[o.Sector*lvm2.SectorSize : (o.Sector+1)*lvm2.SectorSize])

	lvm2.Lbl_id.Put(lbl, []byte("LABELONE"))
	lvm2.Lbl_sector_xl.PutUint64(lbl, o.Sector)
	lvm2.Lbl_offset_xl.PutUint32(lbl, lvm2.LabelHeaderSize)
	lvm2.Lbl_type.Put(lbl, []byte("LVM2 001"))
	lvm2.Lbl_pv_uuid.Put(lbl, []byte(o.PVUUID))

	// device size follows the PV UUID
	binary.LittleEndian.PutUint64(lbl[lvm2.Lbl_pv_uuid.End():], uint64(len(img)))

	crc := checksum.Update(lvm2.InitialCRC, lbl.ChecksummedArea())
	if o.StandardCRC {
		crc = checksum.IEEE(lbl.ChecksummedArea())
	}

	lvm2.Lbl_crc_xl.PutUint32(lbl, crc)

	return img
}
