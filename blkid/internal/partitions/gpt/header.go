// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import (
	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/layout"
)

// Header is a byte slice representing the GPT header (header_size bytes).
type Header []byte

// Entry is a byte slice representing a single partition entry.
type Entry []byte

// On-disk sizes.
const (
	// HeaderSize is the minimum (revision 1.0) header size.
	HeaderSize = 92
	// EntrySize is the only supported partition entry size.
	EntrySize = 128
	// NumEntries is the maximum number of partition entries.
	NumEntries = 128
)

// Signature is the GPT header signature.
var Signature = []byte("EFI PART")

// Header fields, little-endian.
//
//nolint:revive,stylecheck
var (
	Hdr_signature                   = layout.Raw(0, 8)
	Hdr_revision                    = layout.LE(8, 4)
	Hdr_header_size                 = layout.LE(12, 4)
	Hdr_header_crc32                = layout.LE(16, 4)
	Hdr_my_lba                      = layout.LE(24, 8)
	Hdr_alternate_lba               = layout.LE(32, 8)
	Hdr_first_usable_lba            = layout.LE(40, 8)
	Hdr_last_usable_lba             = layout.LE(48, 8)
	Hdr_disk_guid                   = layout.Raw(56, 16)
	Hdr_partition_entries_lba       = layout.LE(72, 8)
	Hdr_num_partition_entries       = layout.LE(80, 4)
	Hdr_sizeof_partition_entry      = layout.LE(84, 4)
	Hdr_partition_entry_array_crc32 = layout.LE(88, 4)
)

// Partition entry fields, little-endian.
//
//nolint:revive,stylecheck
var (
	Ent_partition_type_guid   = layout.Raw(0, 16)
	Ent_unique_partition_guid = layout.Raw(16, 16)
	Ent_starting_lba          = layout.LE(32, 8)
	Ent_ending_lba            = layout.LE(40, 8)
	Ent_attributes            = layout.LE(48, 8)
	Ent_partition_name        = layout.Raw(56, 72)
)

// Signature returns the header signature.
func (h Header) Signature() []byte { return Hdr_signature.Bytes(h) }

// HeaderSize returns the size of the header covered by the checksum.
func (h Header) HeaderSize() uint32 { return Hdr_header_size.Uint32(h) }

// HeaderCRC32 returns the stored header checksum.
func (h Header) HeaderCRC32() uint32 { return Hdr_header_crc32.Uint32(h) }

// MyLBA returns the LBA of this header.
func (h Header) MyLBA() uint64 { return Hdr_my_lba.Uint64(h) }

// AlternateLBA returns the LBA of the other header copy.
func (h Header) AlternateLBA() uint64 { return Hdr_alternate_lba.Uint64(h) }

// FirstUsableLBA returns the first LBA available for partitions.
func (h Header) FirstUsableLBA() uint64 { return Hdr_first_usable_lba.Uint64(h) }

// LastUsableLBA returns the last LBA available for partitions.
func (h Header) LastUsableLBA() uint64 { return Hdr_last_usable_lba.Uint64(h) }

// DiskGUID returns the disk GUID in the on-disk (mixed-endian) encoding.
func (h Header) DiskGUID() []byte { return Hdr_disk_guid.Bytes(h) }

// PartitionEntriesLBA returns the LBA of the partition entry array.
func (h Header) PartitionEntriesLBA() uint64 { return Hdr_partition_entries_lba.Uint64(h) }

// NumPartitionEntries returns the number of partition entries.
func (h Header) NumPartitionEntries() uint32 { return Hdr_num_partition_entries.Uint32(h) }

// SizeofPartitionEntry returns the size of a single partition entry.
func (h Header) SizeofPartitionEntry() uint32 { return Hdr_sizeof_partition_entry.Uint32(h) }

// PartitionEntryArrayCRC32 returns the stored checksum of the partition entry array.
func (h Header) PartitionEntryArrayCRC32() uint32 { return Hdr_partition_entry_array_crc32.Uint32(h) }

// CalculateChecksum calculates the checksum of the header with the checksum field zeroed.
func (h Header) CalculateChecksum() uint32 {
	b := make([]byte, len(h))
	copy(b, h)

	Hdr_header_crc32.PutUint32(b, 0)

	return checksum.IEEE(b)
}

// TypeGUID returns the partition type GUID in the on-disk encoding.
func (e Entry) TypeGUID() []byte { return Ent_partition_type_guid.Bytes(e) }

// UniqueGUID returns the partition GUID in the on-disk encoding.
func (e Entry) UniqueGUID() []byte { return Ent_unique_partition_guid.Bytes(e) }

// StartingLBA returns the first LBA of the partition.
func (e Entry) StartingLBA() uint64 { return Ent_starting_lba.Uint64(e) }

// EndingLBA returns the last LBA of the partition (inclusive).
func (e Entry) EndingLBA() uint64 { return Ent_ending_lba.Uint64(e) }

// Attributes returns the partition attribute flags.
func (e Entry) Attributes() uint64 { return Ent_attributes.Uint64(e) }

// Name returns the UTF-16LE partition name.
func (e Entry) Name() []byte { return Ent_partition_name.Bytes(e) }
