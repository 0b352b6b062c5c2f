// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package vfat probes FAT12/FAT16/FAT32 filesystems.
package vfat

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding/charmap"

	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

var fatMagic = magic.Magic{
	Offset: 0x1fe,
	Value:  []byte{0x55, 0xaa},
}

// Cluster count limits.
const (
	MaxFAT12Clusters = 4084
	MaxFAT16Clusters = 65524
)

// Extended boot signatures.
const (
	ExtBootSigSerial = 0x28
	ExtBootSig       = 0x29
)

var (
	noName = []byte("NO NAME    ")

	// sysids of filesystems which share the boot sector signature.
	foreignSysIDs = [][]byte{
		[]byte("NTFS    "),
		[]byte("EXFAT   "),
	}
)

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{&fatMagic}
}

// Format returns the format of the filesystem.
func (p *Probe) Format() probe.FormatTag {
	return probe.VFAT
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.Filesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	buf, err := r.Read(0, BootSectorSize)
	if err != nil {
		return nil, err
	}

	if !fatMagic.Matches(buf) {
		return nil, nil //nolint:nilnil
	}

	bs := BootSector(buf)

	if !isValid(bs) {
		return nil, nil //nolint:nilnil
	}

	var (
		ebpb    EBPB
		fatBits uint32
	)

	switch {
	case bs.FATLength() != 0:
		ebpb = EBPB16

		if clusters(bs) <= MaxFAT12Clusters {
			fatBits = 12
		} else {
			fatBits = 16
		}
	case bs.FAT32Length() != 0:
		ebpb = EBPB32
		fatBits = 32
	default:
		return nil, nil //nolint:nilnil
	}

	sectorSize := uint32(bs.SectorSize())

	res := &probe.Result{
		Version: &probe.Version{Major: fatBits},

		BlockSize:           sectorSize,
		FilesystemBlockSize: uint32(bs.ClusterSize()) * sectorSize,
		ProbedSize:          uint64(bs.Sectors()) * uint64(sectorSize),
	}

	switch ebpb.BootSig.Uint8(bs) {
	case ExtBootSig:
		res.Label = decodeLabel(ebpb.Label.Bytes(bs))

		fallthrough
	case ExtBootSigSerial:
		serial := ebpb.Serial.Uint32(bs)
		res.UUIDText = utils.OptionalString(fmt.Sprintf("%04X-%04X", serial>>16, serial&0xffff))
	}

	return res.Strong(), nil
}

func isValid(bs BootSector) bool {
	if bs.FATs() == 0 || bs.FATs() > 2 {
		return false
	}

	if bs.Reserved() == 0 {
		return false
	}

	if !(0xf8 <= bs.Media() || bs.Media() == 0xf0) {
		return false
	}

	if !utils.IsPowerOf2(bs.ClusterSize()) {
		return false
	}

	if !utils.IsPowerOf2(bs.SectorSize()) {
		return false
	}

	if bs.SectorSize() < 512 || bs.SectorSize() > 4096 {
		return false
	}

	for _, sysID := range foreignSysIDs {
		if bytes.Equal(bs.SysID(), sysID) {
			return false
		}
	}

	return true
}

// clusters returns the number of data clusters of the FAT12/16 layout.
func clusters(bs BootSector) uint32 {
	sectorSize := uint32(bs.SectorSize())
	rootDirSectors := (uint32(bs.DirEntries())*32 + sectorSize - 1) / sectorSize
	metaSectors := uint32(bs.Reserved()) + uint32(bs.FATs())*uint32(bs.FATLength()) + rootDirSectors

	if bs.Sectors() <= metaSectors {
		return 0
	}

	return (bs.Sectors() - metaSectors) / uint32(bs.ClusterSize())
}

func decodeLabel(raw []byte) *string {
	if bytes.Equal(raw, noName) {
		return nil
	}

	label, err := charmap.CodePage437.NewDecoder().String(utils.TrimSpace(raw))
	if err != nil {
		return nil
	}

	return utils.OptionalString(label)
}
