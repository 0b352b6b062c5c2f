// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package synthetic

import (
	"encoding/binary"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/unicode"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/partitions/gpt"
)

// GPTPartition is a partition of the GPT builder.
type GPTPartition struct {
	Type uuid.UUID
	UUID uuid.UUID
	Name string

	FirstLBA   uint64
	LastLBA    uint64
	Attributes uint64

	// Content is copied to the start of the partition.
	Content []byte
}

// GPT builds a disk image with a protective MBR, primary and backup GPT.
type GPT struct {
	DiskUUID   uuid.UUID
	Partitions []GPTPartition

	// SectorSize defaults to 512.
	SectorSize uint
	// Sectors defaults to 4096.
	Sectors uint64
	// NumEntries defaults to 128.
	NumEntries uint32
}

// Layout returns the LBAs of the primary and backup headers and entry arrays.
func (o GPT) Layout() (primary, primaryEntries, backup, backupEntries uint64) {
	sectorSize := uint64(orDefault(o.SectorSize, 512))
	entriesSectors := (uint64(orDefault(o.NumEntries, gpt.NumEntries))*gpt.EntrySize + sectorSize - 1) / sectorSize
	lastLBA := orDefault(o.Sectors, 4096) - 1

	return 1, 2, lastLBA, lastLBA - entriesSectors
}

// Build implements Builder.
func (o GPT) Build() []byte {
	sectorSize := uint64(orDefault(o.SectorSize, 512))
	sectors := orDefault(o.Sectors, 4096)
	numEntries := orDefault(o.NumEntries, gpt.NumEntries)

	img := make([]byte, sectorSize*sectors)

	ProtectiveMBR(img, sectorSize)

	entries := make([]byte, uint64(numEntries)*gpt.EntrySize)
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	for i, part := range o.Partitions {
		entry := gpt.Entry(entries[i*gpt.EntrySize : (i+1)*gpt.EntrySize])

		name, err := utf16.NewEncoder().String(part.Name)
		if err != nil {
			panic(err)
		}

		gpt.Ent_partition_type_guid.Put(entry, gpt.UUIDToGUID(part.Type))
		gpt.Ent_unique_partition_guid.Put(entry, gpt.UUIDToGUID(part.UUID))
		gpt.Ent_starting_lba.PutUint64(entry, part.FirstLBA)
		gpt.Ent_ending_lba.PutUint64(entry, part.LastLBA)
		gpt.Ent_attributes.PutUint64(entry, part.Attributes)
		gpt.Ent_partition_name.Put(entry, []byte(name))

		copy(img[part.FirstLBA*sectorSize:], part.Content)
	}

	primary, primaryEntries, backup, backupEntries := o.Layout()
	entriesSectors := backup - backupEntries

	entriesCRC := checksum.IEEE(entries)

	writeHeader := func(lba, alternate, entriesLBA uint64) {
		copy(img[entriesLBA*sectorSize:], entries)

		hdr := gpt.Header(img[lba*sectorSize : lba*sectorSize+gpt.HeaderSize])

		gpt.Hdr_signature.Put(hdr, gpt.Signature)
		gpt.Hdr_revision.PutUint32(hdr, 0x00010000)
		gpt.Hdr_header_size.PutUint32(hdr, gpt.HeaderSize)
		gpt.Hdr_my_lba.PutUint64(hdr, lba)
		gpt.Hdr_alternate_lba.PutUint64(hdr, alternate)
		gpt.Hdr_first_usable_lba.PutUint64(hdr, primaryEntries+entriesSectors)
		gpt.Hdr_last_usable_lba.PutUint64(hdr, backupEntries-1)
		gpt.Hdr_disk_guid.Put(hdr, gpt.UUIDToGUID(o.DiskUUID))
		gpt.Hdr_partition_entries_lba.PutUint64(hdr, entriesLBA)
		gpt.Hdr_num_partition_entries.PutUint32(hdr, numEntries)
		gpt.Hdr_sizeof_partition_entry.PutUint32(hdr, gpt.EntrySize)
		gpt.Hdr_partition_entry_array_crc32.PutUint32(hdr, entriesCRC)
		gpt.Hdr_header_crc32.PutUint32(hdr, hdr.CalculateChecksum())
	}

	writeHeader(primary, backup, primaryEntries)
	writeHeader(backup, primary, backupEntries)

	return img
}

// ProtectiveMBR writes a protective MBR covering the whole image.
func ProtectiveMBR(img []byte, sectorSize uint64) {
	const partitionTable = 0x1be

	sectors := uint64(len(img)) / sectorSize

	entry := img[partitionTable : partitionTable+16]
	copy(entry, []byte{0x00, 0x00, 0x02, 0x00, 0xee, 0xff, 0xff, 0xff})
	binary.LittleEndian.PutUint32(entry[8:], 1)
	binary.LittleEndian.PutUint32(entry[12:], uint32(min(sectors-1, 0xffffffff)))

	img[0x1fe] = 0x55
	img[0x1ff] = 0xaa
}
