// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package swap probes Linux swapspaces.
package swap

import (
	"bytes"
	"slices"

	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

// Signatures stored at the end of the first page.
var (
	SignatureV0 = []byte("SWAP-SPACE")
	SignatureV1 = []byte("SWAPSPACE2")
)

// DefaultPageSizes are the page sizes checked when not configured.
var DefaultPageSizes = []uint32{4096, 8192, 16384, 32768, 65536}

// Probe for the swap space.
type Probe struct {
	// PageSizes overrides DefaultPageSizes.
	PageSizes []uint32
}

// ValidPageSize reports whether the signature fits into a page of the given size.
//
// Page sizes must be powers of two.
func ValidPageSize(pageSize uint32) bool {
	return pageSize >= uint32(len(SignatureV1)) && utils.IsPowerOf2(pageSize)
}

// pageSizes returns the configured valid page sizes, falling back to the defaults
// if none are left.
func (p *Probe) pageSizes() []uint32 {
	pageSizes := slices.DeleteFunc(slices.Clone(p.PageSizes), func(pageSize uint32) bool {
		return !ValidPageSize(pageSize)
	})

	if len(pageSizes) > 0 {
		return pageSizes
	}

	return DefaultPageSizes
}

// Magic returns the magic value for the swap space.
func (p *Probe) Magic() []*magic.Magic {
	pageSizes := p.pageSizes()
	magics := make([]*magic.Magic, 0, 2*len(pageSizes))

	for _, pageSize := range pageSizes {
		for _, sig := range [][]byte{SignatureV1, SignatureV0} {
			magics = append(magics, &magic.Magic{
				Offset: int(pageSize) - len(sig),
				Value:  sig,
			})
		}
	}

	return magics
}

// Format returns the format of the swap space.
func (p *Probe) Format() probe.FormatTag {
	return probe.Swap
}

// Usage returns the usage of the swap space.
func (p *Probe) Usage() probe.Usage {
	return probe.Filesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	pageSizes := slices.Sorted(slices.Values(p.pageSizes()))

	for _, pageSize := range pageSizes {
		if uint64(pageSize) > r.GetSize() {
			break
		}

		sig, err := r.Read(uint64(pageSize)-uint64(len(SignatureV1)), uint64(len(SignatureV1)))
		if err != nil {
			return nil, err
		}

		switch {
		case bytes.Equal(sig, SignatureV0):
			return (&probe.Result{
				Version: &probe.Version{},

				BlockSize:           pageSize,
				FilesystemBlockSize: pageSize,
			}).Strong(), nil
		case bytes.Equal(sig, SignatureV1):
			return p.probeV1(r, pageSize)
		}
	}

	return nil, nil //nolint:nilnil
}

func (p *Probe) probeV1(r *window.Window, pageSize uint32) (*probe.Result, error) {
	buf, err := r.Read(HeaderOffset, HeaderSize)
	if err != nil {
		return nil, err
	}

	hdr := Header(buf)

	res := &probe.Result{
		Version: &probe.Version{Major: hdr.Version()},

		BlockSize:           pageSize,
		FilesystemBlockSize: pageSize,
	}

	if hdr.Version() != 1 {
		return res.Weaken(probe.IssueUnsupportedVersion), nil
	}

	pages := r.GetSize() / uint64(pageSize)
	if hdr.LastPage() == 0 || uint64(hdr.LastPage()) >= pages {
		return nil, nil //nolint:nilnil
	}

	res.ProbedSize = uint64(pageSize) * uint64(hdr.LastPage())
	res.Label = utils.OptionalString(utils.TrimNUL(hdr.Volume()))

	if !utils.IsZero(hdr.UUID()) {
		if swapUUID, err := uuid.FromBytes(hdr.UUID()); err == nil {
			res.UUID = pointer.To(swapUUID)
		}
	}

	return res.Strong(), nil
}
