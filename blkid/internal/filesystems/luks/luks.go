// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package luks probes LUKS encrypted volumes.
package luks

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

var luksMagic = magic.Magic{
	Offset: 0,
	Value:  []byte("LUKS\xba\xbe"),
}

// Header area size limits.
const (
	MinHdrSize = 4096
	MaxHdrSize = 4 * 1024 * 1024
)

// Probe for the encrypted volume.
type Probe struct {
	// Digests overrides or extends checksum algorithms.
	Digests checksum.Digests
}

// Magic returns the magic value for the volume.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&luksMagic}
}

// Format returns the format of the volume.
func (p *Probe) Format() probe.FormatTag {
	return probe.LUKS2
}

// Usage returns the usage of the volume.
func (p *Probe) Usage() probe.Usage {
	return probe.Crypto
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	buf, err := r.Read(0, HeaderSize)
	if err != nil {
		return nil, err
	}

	if !luksMagic.Matches(buf) {
		return nil, nil //nolint:nilnil
	}

	hdr := Header(buf)

	res := &probe.Result{
		Version: &probe.Version{Major: uint32(hdr.Version())},
	}

	setUUID(res, hdr.UUID())

	if hdr.Version() != 2 {
		return res.Weaken(probe.IssueUnsupportedVersion), nil
	}

	hdrSize := hdr.HdrSize()
	if hdrSize < MinHdrSize || hdrSize > MaxHdrSize || hdrSize > r.GetSize() {
		return nil, nil //nolint:nilnil
	}

	if hdr.HdrOffset() != 0 {
		return nil, nil //nolint:nilnil
	}

	res.Label = utils.OptionalString(utils.TrimNUL(hdr.Label()))
	res.Subsystem = utils.OptionalString(utils.TrimNUL(hdr.Subsystem()))

	hashFn, ok := p.Digests.Lookup(utils.TrimNUL(hdr.ChecksumAlg()))
	if !ok {
		return res.Weaken(probe.IssueChecksumUnsupported), nil
	}

	// hdr_size is validated above, so the read is bounded
	area, err := r.Read(0, hdrSize)
	if err != nil {
		return nil, err
	}

	stored := bytes.Clone(Header(area).Csum())
	Hdr_csum.Put(area, nil)

	h := hashFn()
	h.Write(area) //nolint:errcheck

	sum := h.Sum(nil)
	if len(sum) > len(stored) {
		return res.Weaken(probe.IssueChecksumUnsupported), nil
	}

	if !bytes.Equal(sum, stored[:len(sum)]) {
		return res.Weaken(probe.IssueChecksumMismatch), nil
	}

	return res.Strong(), nil
}

func setUUID(res *probe.Result, raw []byte) {
	text := utils.TrimNUL(raw)
	if text == "" {
		return
	}

	if u, err := uuid.Parse(text); err == nil {
		res.UUID = pointer.To(u)

		return
	}

	res.UUIDText = pointer.To(text)
}
