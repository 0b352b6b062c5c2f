// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package gpt probes GPT partition tables.
package gpt

import (
	"bytes"
	"errors"

	"github.com/siderolabs/go-pointer"
	"golang.org/x/text/encoding/unicode"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

// SectorSizes are the logical sector sizes a GPT header is looked up with.
var SectorSizes = []uint{512, 4096}

const primaryLBA = 1

var gptMagics = func() []*magic.Magic {
	magics := make([]*magic.Magic, 0, len(SectorSizes))

	for _, sectorSize := range SectorSizes {
		magics = append(magics, &magic.Magic{
			Offset: int(sectorSize) * primaryLBA,
			Value:  Signature,
		})
	}

	return magics
}()

// Probe for the partition table.
type Probe struct{}

// Magic returns the magic value for the partition table.
func (p *Probe) Magic() []*magic.Magic {
	return gptMagics
}

// Format returns the format of the partition table.
func (p *Probe) Format() probe.FormatTag {
	return probe.GPT
}

// Usage returns the usage of the partition table.
func (p *Probe) Usage() probe.Usage {
	return probe.PartitionTable
}

type headerStatus int

const (
	headerValid headerStatus = iota
	// headerCorrupt means a checksum (header or entry array) doesn't match.
	headerCorrupt
	// headerInvalid means the header is structurally unusable.
	headerInvalid
)

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	sectorSize, err := detectSectorSize(r)
	if err != nil {
		return nil, err
	}

	if sectorSize == 0 {
		return nil, nil //nolint:nilnil
	}

	lastLBA, ok := LastLBA(r.GetSize(), sectorSize)
	if !ok {
		return nil, nil //nolint:nilnil
	}

	hdr, entries, status, err := readHeader(r, sectorSize, primaryLBA, lastLBA)
	if err != nil {
		return nil, err
	}

	switch status {
	case headerValid:
		return buildResult(hdr, entries, sectorSize).Strong(), nil
	case headerInvalid:
		return nil, nil //nolint:nilnil
	case headerCorrupt:
		// fall back to the backup header
	}

	backupLBA := lastLBA
	if alt := hdr.AlternateLBA(); alt > primaryLBA && alt <= lastLBA {
		backupLBA = alt
	}

	backupHdr, backupEntries, backupStatus, err := readHeader(r, sectorSize, backupLBA, lastLBA)
	if err != nil && !errors.Is(err, window.ErrOutOfRange) {
		return nil, err
	}

	if err == nil && backupStatus == headerValid {
		res := buildResult(backupHdr, backupEntries, sectorSize)
		res.Issues |= probe.IssueBackupHeader

		return res.Strong(), nil
	}

	diskUUID := GUIDToUUID(hdr.DiskGUID())

	return (&probe.Result{
		UUID: pointer.To(diskUUID),

		BlockSize: uint32(sectorSize),
	}).Weaken(probe.IssueChecksumMismatch), nil
}

// detectSectorSize finds the sector size which puts the header signature at LBA 1.
//
// The sector size of the byte source is preferred.
func detectSectorSize(r *window.Window) (uint, error) {
	candidates := append([]uint{r.GetSectorSize()}, SectorSizes...)

	for _, sectorSize := range candidates {
		sig, err := r.Read(uint64(sectorSize)*primaryLBA, uint64(len(Signature)))
		if err != nil {
			if errors.Is(err, window.ErrOutOfRange) {
				continue
			}

			return 0, err
		}

		if bytes.Equal(sig, Signature) {
			return sectorSize, nil
		}
	}

	return 0, nil
}

// readHeader reads the GPT header and partition entries.
//
// The header is read through a window of a single sector, so header_size
// larger than the sector size fails with window.ErrOutOfRange.
// The header is returned whenever at least HeaderSize bytes were read, even if it's not valid.
//
//nolint:gocyclo,cyclop
func readHeader(r *window.Window, sectorSize uint, lba, lastLBA uint64) (Header, []Entry, headerStatus, error) {
	sector, err := r.Sub(lba*uint64(sectorSize), uint64(sectorSize))
	if err != nil {
		return nil, nil, headerInvalid, err
	}

	buf, err := sector.Read(0, HeaderSize)
	if err != nil {
		return nil, nil, headerInvalid, err
	}

	hdr := Header(buf)

	if !bytes.Equal(hdr.Signature(), Signature) {
		return hdr, nil, headerInvalid, nil
	}

	headerSize := hdr.HeaderSize()
	if headerSize < HeaderSize {
		return hdr, nil, headerInvalid, nil
	}

	buf, err = sector.Read(0, uint64(headerSize))
	if err != nil {
		return hdr, nil, headerInvalid, err
	}

	hdr = Header(buf)

	if hdr.HeaderCRC32() != hdr.CalculateChecksum() {
		return hdr, nil, headerCorrupt, nil
	}

	if hdr.MyLBA() != lba {
		return hdr, nil, headerInvalid, nil
	}

	firstUsableLBA := hdr.FirstUsableLBA()
	lastUsableLBA := hdr.LastUsableLBA()

	// verify the usable LBA range
	if lastUsableLBA < firstUsableLBA || firstUsableLBA > lastLBA || lastUsableLBA > lastLBA {
		return hdr, nil, headerInvalid, nil
	}

	// header should be outside the usable range
	if firstUsableLBA <= lba && lba <= lastUsableLBA {
		return hdr, nil, headerInvalid, nil
	}

	if hdr.SizeofPartitionEntry() != EntrySize {
		return hdr, nil, headerInvalid, nil
	}

	numEntries := hdr.NumPartitionEntries()
	if numEntries == 0 || numEntries > NumEntries {
		return hdr, nil, headerInvalid, nil
	}

	if hdr.PartitionEntriesLBA() > lastLBA {
		return hdr, nil, headerInvalid, nil
	}

	entriesBuf, err := r.Read(hdr.PartitionEntriesLBA()*uint64(sectorSize), uint64(numEntries)*EntrySize)
	if err != nil {
		if errors.Is(err, window.ErrOutOfRange) {
			return hdr, nil, headerCorrupt, nil
		}

		return hdr, nil, headerInvalid, err
	}

	// the entry array is trusted only after the checksum matches
	if checksum.IEEE(entriesBuf) != hdr.PartitionEntryArrayCRC32() {
		return hdr, nil, headerCorrupt, nil
	}

	entries := make([]Entry, numEntries)
	for i := range entries {
		entries[i] = Entry(entriesBuf[i*EntrySize : (i+1)*EntrySize])
	}

	return hdr, entries, headerValid, nil
}

func buildResult(hdr Header, entries []Entry, sectorSize uint) *probe.Result {
	firstUsableLBA := hdr.FirstUsableLBA()
	lastUsableLBA := hdr.LastUsableLBA()

	result := &probe.Result{
		UUID: pointer.To(GUIDToUUID(hdr.DiskGUID())),

		BlockSize:  uint32(sectorSize),
		ProbedSize: uint64(sectorSize) * (lastUsableLBA - firstUsableLBA + 1),
	}

	zeroGUID := make([]byte, 16)
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	for i, entry := range entries {
		partIdx := uint(i + 1)

		// skip unused entries
		if bytes.Equal(entry.TypeGUID(), zeroGUID) {
			continue
		}

		if entry.StartingLBA() < firstUsableLBA || entry.EndingLBA() > lastUsableLBA || entry.EndingLBA() < entry.StartingLBA() {
			continue
		}

		var label *string

		if name, err := utf16.NewDecoder().Bytes(entry.Name()); err == nil {
			label = utils.OptionalString(string(bytes.TrimRight(name, "\x00")))
		}

		result.Parts = append(result.Parts, probe.Partition{
			UUID:     pointer.To(GUIDToUUID(entry.UniqueGUID())),
			TypeUUID: pointer.To(GUIDToUUID(entry.TypeGUID())),
			Label:    label,

			Index:      partIdx,
			Attributes: entry.Attributes(),

			Offset: entry.StartingLBA() * uint64(sectorSize),
			Size:   (entry.EndingLBA() - entry.StartingLBA() + 1) * uint64(sectorSize),
		})
	}

	return result
}
