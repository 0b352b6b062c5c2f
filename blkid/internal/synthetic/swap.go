// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/swap"
)

// Swap builds a swap space.
type Swap struct {
	UUID  uuid.UUID
	Label string

	// PageSize defaults to 4 KiB.
	PageSize uint32
	// Pages defaults to 16.
	Pages uint32
	// Version defaults to 1.
	Version uint32

	// Legacy writes the version 0 signature with no header.
	Legacy bool
	// BigEndian writes the header big-endian.
	BigEndian bool
}

// Build implements Builder.
func (o Swap) Build() []byte {
	pageSize := orDefault(o.PageSize, 4096)
	pages := orDefault(o.Pages, 16)

	img := make([]byte, uint64(pageSize)*uint64(pages))

	if o.Legacy {
		copy(img[pageSize-uint32(len(swap.SignatureV0)):], swap.SignatureV0)

		return img
	}

	copy(img[pageSize-uint32(len(swap.SignatureV1)):], swap.SignatureV1)

	var order binary.ByteOrder = binary.LittleEndian
	if o.BigEndian {
		order = binary.BigEndian
	}

	hdr := swap.Header(img[swap.HeaderOffset : swap.HeaderOffset+swap.HeaderSize])

	swap.Hdr_version.WithOrder(order).PutUint32(hdr, orDefault(o.Version, 1))
	swap.Hdr_lastpage.WithOrder(order).PutUint32(hdr, pages-1)
	swap.Hdr_uuid.Put(hdr, o.UUID[:])
	swap.Hdr_volume.Put(hdr, []byte(o.Label))

	return img
}
