// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/luks"
)

// LUKS2 builds a LUKS2 header area.
type LUKS2 struct {
	UUID      string
	Label     string
	Subsystem string

	// ChecksumAlg defaults to sha256.
	ChecksumAlg string
	// Digests used to compute the checksum, default table if nil.
	Digests checksum.Digests
	// Version defaults to 2.
	Version uint16
	// HdrSize defaults to 16 KiB.
	HdrSize uint64
	// Size of the image, defaults to two header areas.
	Size uint64
}

// Build implements Builder.
func (o LUKS2) Build() []byte {
	hdrSize := orDefault(o.HdrSize, 16384)
	alg := orDefault(o.ChecksumAlg, "sha256")

	img := make([]byte, orDefault(o.Size, 2*hdrSize))
	hdr := luks.Header(img[:luks.HeaderSize])

	luks.Hdr_magic.Put(hdr, []byte("LUKS\xba\xbe"))
	luks.Hdr_version.PutUint16(hdr, orDefault(o.Version, 2))
	luks.Hdr_hdr_size.PutUint64(hdr, hdrSize)
	luks.Hdr_seqid.PutUint64(hdr, 1)
	luks.Hdr_label.Put(hdr, []byte(o.Label))
	luks.Hdr_checksum_alg.Put(hdr, []byte(alg))
	luks.Hdr_uuid.Put(hdr, []byte(o.UUID))
	luks.Hdr_subsystem.Put(hdr, []byte(o.Subsystem))
	luks.Hdr_hdr_offset.PutUint64(hdr, 0)

	for i := range luks.Hdr_salt.Width {
		hdr[luks.Hdr_salt.Offset+i] = byte(i * 7)
	}

	if len(img) > luks.MinHdrSize {
		copy(img[luks.MinHdrSize:], `{"keyslots":{},"tokens":{},"segments":{},"digests":{},"config":{}}`)
	}

	hashFn, ok := o.Digests.Lookup(alg)
	if !ok || uint64(len(img)) < hdrSize {
		return img
	}

	h := hashFn()
	h.Write(img[:hdrSize]) //nolint:errcheck

	luks.Hdr_csum.Put(hdr, h.Sum(nil))

	return img
}
