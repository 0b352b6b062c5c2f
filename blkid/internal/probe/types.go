// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package probe

import (
	"errors"
	"fmt"
	"strings"
)

// FormatTag identifies the detected format.
type FormatTag int

// Supported formats.
const (
	Unknown FormatTag = iota
	ISO9660
	LUKS2
	LVM2
	SquashFS
	Swap
	VFAT
	XFS
	GPT
)

var formatNames = [...]string{
	Unknown:  "unknown",
	ISO9660:  "iso9660",
	LUKS2:    "luks",
	LVM2:     "lvm2-pv",
	SquashFS: "squashfs",
	Swap:     "swap",
	VFAT:     "vfat",
	XFS:      "xfs",
	GPT:      "gpt",
}

// String implements fmt.Stringer.
func (tag FormatTag) String() string {
	if tag < 0 || int(tag) >= len(formatNames) {
		return fmt.Sprintf("FormatTag(%d)", int(tag))
	}

	return formatNames[tag]
}

// MarshalText implements encoding.TextMarshaler.
func (tag FormatTag) MarshalText() ([]byte, error) {
	return []byte(tag.String()), nil
}

// Usage classifies the format.
type Usage int

// Usage values.
const (
	UsageNone Usage = iota
	Filesystem
	PartitionTable
	Crypto
	VolumeManager
)

// String implements fmt.Stringer.
func (u Usage) String() string {
	switch u {
	case UsageNone:
		return ""
	case Filesystem:
		return "filesystem"
	case PartitionTable:
		return "partition_table"
	case Crypto:
		return "crypto"
	case VolumeManager:
		return "volume_manager"
	default:
		return fmt.Sprintf("Usage(%d)", int(u))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (u Usage) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// Confidence of the detection.
type Confidence int

// Confidence values.
//
// Strong means the magic, structural checks and the checksum (if the format has one) all hold.
// Weak means the magic holds, but the checksum is mismatched or can't be verified,
// or the version is not supported.
const (
	ConfidenceNone Confidence = iota
	Strong
	Weak
)

// String implements fmt.Stringer.
func (c Confidence) String() string {
	switch c {
	case ConfidenceNone:
		return ""
	case Strong:
		return "strong"
	case Weak:
		return "weak"
	default:
		return fmt.Sprintf("Confidence(%d)", int(c))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Confidence) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Diagnostic errors.
var (
	ErrChecksumMismatch    = errors.New("checksum mismatch")
	ErrChecksumUnsupported = errors.New("checksum algorithm not supported")
	ErrUnsupportedVersion  = errors.New("unsupported version")
	ErrBackupHeader        = errors.New("primary header is invalid, backup header used")
	ErrAmbiguousDetection  = errors.New("more than one format detected with strong confidence")
)

// Issues is a set of non-fatal conditions found while probing.
type Issues uint

// Issues flags.
const (
	IssueChecksumMismatch Issues = 1 << iota
	IssueChecksumUnsupported
	IssueUnsupportedVersion
	IssueBackupHeader
	IssueAmbiguous
)

var issueErrors = []struct {
	issue Issues
	err   error
}{
	{IssueChecksumMismatch, ErrChecksumMismatch},
	{IssueChecksumUnsupported, ErrChecksumUnsupported},
	{IssueUnsupportedVersion, ErrUnsupportedVersion},
	{IssueBackupHeader, ErrBackupHeader},
	{IssueAmbiguous, ErrAmbiguousDetection},
}

// Has returns true if all flags in other are set.
func (i Issues) Has(other Issues) bool {
	return i&other == other
}

// Err returns the issues as a joined error, nil if there are none.
func (i Issues) Err() error {
	var errs []error

	for _, ie := range issueErrors {
		if i.Has(ie.issue) {
			errs = append(errs, ie.err)
		}
	}

	return errors.Join(errs...)
}

// String implements fmt.Stringer.
func (i Issues) String() string {
	var parts []string

	for _, ie := range issueErrors {
		if i.Has(ie.issue) {
			parts = append(parts, ie.err.Error())
		}
	}

	return strings.Join(parts, "; ")
}

// MarshalText implements encoding.TextMarshaler.
func (i Issues) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}
