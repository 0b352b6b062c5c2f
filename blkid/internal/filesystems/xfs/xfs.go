// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package xfs probes XFS filesystems.
package xfs

import (
	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

var xfsMagic = magic.Magic{
	Offset: 0,
	Value:  []byte{0x58, 0x46, 0x53, 0x42},
}

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&xfsMagic}
}

// Format returns the format of the filesystem.
func (p *Probe) Format() probe.FormatTag {
	return probe.XFS
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.Filesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	buf, err := r.Read(0, SuperBlockSize)
	if err != nil {
		return nil, err
	}

	if !xfsMagic.Matches(buf) {
		return nil, nil //nolint:nilnil
	}

	sb := SuperBlock(buf)
	if !sb.Valid() {
		return nil, nil //nolint:nilnil
	}

	fsUUID, err := uuid.FromBytes(sb.UUID())
	if err != nil {
		return nil, err
	}

	res := &probe.Result{
		UUID:    pointer.To(fsUUID),
		Label:   utils.OptionalString(utils.TrimNUL(sb.Label())),
		Version: &probe.Version{Major: uint32(sb.Version())},

		BlockSize:           uint32(sb.SectorSize()),
		FilesystemBlockSize: sb.BlockSize(),
		ProbedSize:          sb.FilesystemSize(),
	}

	if sb.Version() != XFS_SB_VERSION_5 {
		return res.Strong(), nil
	}

	sector, err := r.Read(0, uint64(sb.SectorSize()))
	if err != nil {
		return nil, err
	}

	SB_crc.PutUint32(sector, 0)

	if checksum.Castagnoli(sector) != sb.CRC() {
		return res.Weaken(probe.IssueChecksumMismatch), nil
	}

	return res.Strong(), nil
}
