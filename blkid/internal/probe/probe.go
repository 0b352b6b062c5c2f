// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package probe defines common probe interfaces.
package probe

import (
	"github.com/google/uuid"

	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

// Prober is an interface for probing filesystems, volume managers and partition tables.
//
// Probers are stateless and safe for concurrent use.
type Prober interface {
	// Format returns the format detected by the prober.
	Format() FormatTag
	// Usage returns the kind of the format.
	Usage() Usage
	// Magic returns the magic values for the format (cheap pre-check).
	Magic() []*magic.Magic
	// Probe runs the further inspection and returns the result if successful.
	//
	// Probe returns nil, nil if the region doesn't hold the format.
	Probe(*window.Window) (*Result, error)
}

// Version of the on-disk format.
type Version struct {
	Major uint32
	Minor uint32
}

// Result is a probe result.
type Result struct { //nolint:govet
	Confidence Confidence
	Issues     Issues

	UUID *uuid.UUID
	// UUIDText is set for identifiers which are not RFC 4122 UUIDs (LVM2 PV UUID, FAT serial number).
	UUIDText *string
	Label    *string
	// Subsystem is the secondary LUKS2 label.
	Subsystem *string
	Version   *Version

	// Parts are the inner regions which might be probed further.
	Parts []Partition

	BlockSize           uint32
	FilesystemBlockSize uint32
	ProbedSize          uint64
}

// Strong marks the result as fully validated.
func (r *Result) Strong() *Result {
	r.Confidence = Strong

	return r
}

// Weaken downgrades the result, recording the reason.
func (r *Result) Weaken(issues Issues) *Result {
	r.Confidence = Weak
	r.Issues |= issues

	return r
}

// Partition is a probe sub-result (inner region).
type Partition struct {
	UUID     *uuid.UUID
	TypeUUID *uuid.UUID
	Label    *string

	Index      uint // 1-based index
	Attributes uint64

	Offset uint64
	Size   uint64
}
