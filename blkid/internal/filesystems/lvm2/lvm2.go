// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package lvm2 probes LVM2 PVs.
package lvm2

import (
	"bytes"
	"errors"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

// InitialCRC is the register seed LVM2 uses for label checksums.
const InitialCRC = 0xf597a6cf

// ScanSectors is the number of sectors which might hold the label.
const ScanSectors = 4

var (
	labelID   = []byte("LABELONE")
	labelType = []byte("LVM2 001")
)

var lvmMagics = func() []*magic.Magic {
	magics := make([]*magic.Magic, 0, ScanSectors)

	for sector := range ScanSectors {
		magics = append(magics, &magic.Magic{
			Offset: sector * SectorSize,
			Value:  labelID,
		})
	}

	return magics
}()

// Probe for the volume manager.
type Probe struct{}

// Magic returns the magic value for the volume manager.
func (p *Probe) Magic() []*magic.Magic {
	return lvmMagics
}

// Format returns the format.
func (p *Probe) Format() probe.FormatTag {
	return probe.LVM2
}

// Usage returns the usage of the format.
func (p *Probe) Usage() probe.Usage {
	return probe.VolumeManager
}

func (p *Probe) probe(r *window.Window, sector uint64) (Label, error) {
	buf, err := r.Read(sector*SectorSize, SectorSize)
	if err != nil {
		return nil, err
	}

	lbl := Label(buf)

	if !bytes.Equal(lbl.ID(), labelID) || !bytes.Equal(lbl.Type(), labelType) {
		return nil, nil
	}

	if lbl.SectorXL() != sector {
		return nil, nil
	}

	offset := lbl.OffsetXL()
	if offset < LabelHeaderSize || offset > SectorSize-PVHeaderMinSize {
		return nil, nil
	}

	return lbl, nil
}

// validChecksum accepts the label CRC both as written by LVM2 (register seeded
// with InitialCRC, no final XOR) and as standard CRC-32.
func validChecksum(lbl Label) bool {
	area := lbl.ChecksummedArea()
	crc := lbl.CrcXL()

	return crc == checksum.Update(InitialCRC, area) || crc == checksum.IEEE(area)
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	var (
		lbl Label
		err error
	)

	for sector := range uint64(ScanSectors) {
		lbl, err = p.probe(r, sector)
		if err != nil {
			if sector > 0 && errors.Is(err, window.ErrOutOfRange) {
				break
			}

			return nil, err
		}

		if lbl != nil {
			break
		}
	}

	if lbl == nil {
		return nil, nil //nolint:nilnil
	}

	res := &probe.Result{
		UUIDText: utils.OptionalString(string(bytes.TrimRight(lbl.PVUUID(), "\x00 "))),
		Version:  &probe.Version{Major: 2, Minor: 1},

		BlockSize: SectorSize,
	}

	if !validChecksum(lbl) {
		return res.Weaken(probe.IssueChecksumMismatch), nil
	}

	return res.Strong(), nil
}
