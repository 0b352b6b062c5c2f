// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package iso9660 probes ISO9660 filesystems.
package iso9660

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

const (
	// SuperblockOffset is the offset of the first volume descriptor (sector 16).
	SuperblockOffset = 16 * VolumeDescriptorSize
)

var isoMagic = magic.Magic{
	Offset: SuperblockOffset + 1,
	Value:  []byte("CD001"),
}

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&isoMagic}
}

// Format returns the format of the filesystem.
func (p *Probe) Format() probe.FormatTag {
	return probe.ISO9660
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.Filesystem
}

// Volume descriptor types.
const (
	VDBootRecord    = 0
	VDPrimary       = 1
	VDSupplementary = 2
	VDPartition     = 3
	VDEnd           = 0xff

	vdMax = 32
)

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	var pvd VolumeDescriptor

vdLoop:
	for i := range vdMax {
		buf, err := r.Read(SuperblockOffset+VolumeDescriptorSize*uint64(i), VolumeDescriptorSize)
		if err != nil {
			if i > 0 && errors.Is(err, window.ErrOutOfRange) {
				// image ends before the terminator
				break
			}

			return nil, err
		}

		vd := VolumeDescriptor(buf)

		if !bytes.Equal(vd.ID(), isoMagic.Value) {
			break
		}

		switch vd.Type() {
		case VDEnd:
			break vdLoop
		case VDPrimary:
			pvd = vd

			break vdLoop
		case VDBootRecord, VDSupplementary, VDPartition:
			// skip
		default:
			return nil, nil //nolint:nilnil
		}
	}

	if pvd == nil {
		return nil, nil //nolint:nilnil
	}

	logicalBlockSize := uint32(pvd.LogicalBlockSize())

	res := &probe.Result{
		Label: utils.OptionalString(utils.TrimSpace(pvd.VolumeID())),

		BlockSize:           logicalBlockSize,
		FilesystemBlockSize: logicalBlockSize,
		ProbedSize:          uint64(pvd.SpaceSize()) * uint64(logicalBlockSize),
	}

	if id, ok := dateID(pvd.Modified()); ok {
		res.UUIDText = pointer.To(id)
	} else if id, ok = dateID(pvd.Created()); ok {
		res.UUIDText = pointer.To(id)
	}

	return res.Strong(), nil
}

// dateID formats the descriptor date "YYYYMMDDHHMMSScc" as "YYYY-MM-DD-HH-MM-SS-cc".
func dateID(date []byte) (string, bool) {
	digits := date[:16]

	if bytes.Count(digits, []byte{'0'}) == len(digits) {
		return "", false
	}

	for _, c := range digits {
		if c < '0' || c > '9' {
			return "", false
		}
	}

	return fmt.Sprintf("%s-%s-%s-%s-%s-%s-%s",
		digits[0:4], digits[4:6], digits[6:8], digits[8:10], digits[10:12], digits[12:14], digits[14:16]), true
}
