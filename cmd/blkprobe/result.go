// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/siderolabs/gen/xslices"
	"github.com/siderolabs/go-pointer"

	"github.com/siderolabs/go-blkprobe/blkid"
)

// Detection is the printable form of blkid.ProbeResult.
type Detection struct {
	Format     string   `yaml:"format,omitempty" json:"format,omitempty"`
	Usage      string   `yaml:"usage,omitempty" json:"usage,omitempty"`
	Confidence string   `yaml:"confidence,omitempty" json:"confidence,omitempty"`
	Issues     string   `yaml:"issues,omitempty" json:"issues,omitempty"`
	Ambiguous  []string `yaml:"ambiguous,omitempty" json:"ambiguous,omitempty"`
	UUID       string   `yaml:"uuid,omitempty" json:"uuid,omitempty"`
	Label      string   `yaml:"label,omitempty" json:"label,omitempty"`
	Subsystem  string   `yaml:"subsystem,omitempty" json:"subsystem,omitempty"`
	Version    string   `yaml:"version,omitempty" json:"version,omitempty"`

	BlockSize           uint32 `yaml:"blockSize,omitempty" json:"blockSize,omitempty"`
	FilesystemBlockSize uint32 `yaml:"filesystemBlockSize,omitempty" json:"filesystemBlockSize,omitempty"`
	ProbedSize          uint64 `yaml:"probedSize,omitempty" json:"probedSize,omitempty"`
}

// Partition is the printable form of blkid.NestedProbeResult.
type Partition struct {
	Index  uint   `yaml:"index" json:"index"`
	PartUUID  string `yaml:"partUUID,omitempty" json:"partUUID,omitempty"`
	PartType  string `yaml:"partType,omitempty" json:"partType,omitempty"`
	PartLabel string `yaml:"partLabel,omitempty" json:"partLabel,omitempty"`
	Offset    uint64 `yaml:"offset" json:"offset"`
	Size      uint64 `yaml:"size" json:"size"`

	Detection `yaml:",inline"`

	Parts []Partition `yaml:"parts,omitempty" json:"parts,omitempty"`
}

// Result is the printable form of blkid.Info.
type Result struct {
	Path        string `yaml:"path" json:"path"`
	Compression string `yaml:"compression,omitempty" json:"compression,omitempty"`
	Size        uint64 `yaml:"size" json:"size"`
	SectorSize  uint   `yaml:"sectorSize" json:"sectorSize"`
	IOSize      uint   `yaml:"ioSize" json:"ioSize"`

	Detection `yaml:",inline"`

	Parts []Partition `yaml:"parts,omitempty" json:"parts,omitempty"`
}

// NewResult converts the probe information.
func NewResult(path string, info *blkid.Info) Result {
	res := Result{
		Path:       path,
		Size:       info.Size,
		SectorSize: info.SectorSize,
		IOSize:     info.IOSize,
		Detection:  newDetection(&info.ProbeResult),
		Parts:      newPartitions(info.Parts),
	}

	if info.Compression != 0 {
		res.Compression = info.Compression.String()
	}

	return res
}

func newPartitions(parts []blkid.NestedProbeResult) []Partition {
	return xslices.Map(parts, func(part blkid.NestedProbeResult) Partition {
		return Partition{
			Index:     part.PartitionIndex,
			PartUUID:  uuidString(part.PartitionUUID),
			PartType:  uuidString(part.PartitionType),
			PartLabel: pointer.SafeDeref(part.PartitionLabel),
			Offset:    part.PartitionOffset,
			Size:      part.PartitionSize,
			Detection: newDetection(&part.ProbeResult),
			Parts:     newPartitions(part.Parts),
		}
	})
}

func newDetection(res *blkid.ProbeResult) Detection {
	d := Detection{
		Format:     res.Name(),
		Usage:      res.Usage.String(),
		Confidence: res.Confidence.String(),
		Issues:     res.Issues.String(),
		Ambiguous:  xslices.Map(res.Ambiguous, blkid.FormatTag.String),
		UUID:       uuidString(res.UUID),
		Label:      pointer.SafeDeref(res.Label),
		Subsystem:  pointer.SafeDeref(res.Subsystem),

		BlockSize:           res.BlockSize,
		FilesystemBlockSize: res.FilesystemBlockSize,
		ProbedSize:          res.ProbedSize,
	}

	if d.UUID == "" {
		d.UUID = pointer.SafeDeref(res.UUIDText)
	}

	if res.Version != nil {
		d.Version = versionString(res.Version)
	}

	return d
}

func versionString(v *blkid.Version) string {
	if v.Minor == 0 {
		return strconv.FormatUint(uint64(v.Major), 10)
	}

	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func uuidString(u *uuid.UUID) string {
	if u == nil {
		return ""
	}

	return u.String()
}
