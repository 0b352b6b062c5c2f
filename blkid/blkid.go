// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package blkid provides information about blockdevice filesystem types and IDs.
package blkid

import (
	"errors"
	"hash"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
	"github.com/siderolabs/go-blkprobe/block"
	"github.com/siderolabs/go-blkprobe/image"
)

// FormatTag identifies the detected format.
type FormatTag = probe.FormatTag

// Supported formats.
const (
	Unknown  = probe.Unknown
	ISO9660  = probe.ISO9660
	LUKS2    = probe.LUKS2
	LVM2     = probe.LVM2
	SquashFS = probe.SquashFS
	Swap     = probe.Swap
	VFAT     = probe.VFAT
	XFS      = probe.XFS
	GPT      = probe.GPT
)

// Usage classifies the detected format.
type Usage = probe.Usage

// Usage values.
const (
	UsageNone      = probe.UsageNone
	Filesystem     = probe.Filesystem
	PartitionTable = probe.PartitionTable
	Crypto         = probe.Crypto
	VolumeManager  = probe.VolumeManager
)

// Confidence of the detection.
type Confidence = probe.Confidence

// Confidence values.
const (
	ConfidenceNone = probe.ConfidenceNone
	Strong         = probe.Strong
	Weak           = probe.Weak
)

// Issues is a set of non-fatal conditions found while probing.
type Issues = probe.Issues

// Issues flags.
const (
	IssueChecksumMismatch    = probe.IssueChecksumMismatch
	IssueChecksumUnsupported = probe.IssueChecksumUnsupported
	IssueUnsupportedVersion  = probe.IssueUnsupportedVersion
	IssueBackupHeader        = probe.IssueBackupHeader
	IssueAmbiguous           = probe.IssueAmbiguous
)

// Version of the on-disk format.
type Version = probe.Version

// IOError is a failure of the underlying byte source.
type IOError = window.IOError

// Common errors.
var (
	ErrFailedLock = errors.New("failed to acquire shared lock while probing blockdevice")

	ErrOutOfRange          = window.ErrOutOfRange
	ErrChecksumMismatch    = probe.ErrChecksumMismatch
	ErrChecksumUnsupported = probe.ErrChecksumUnsupported
	ErrUnsupportedVersion  = probe.ErrUnsupportedVersion
	ErrBackupHeader        = probe.ErrBackupHeader
	ErrAmbiguousDetection  = probe.ErrAmbiguousDetection
)

// Info represents the result of the probe.
type Info struct { //nolint:govet
	// Link to the block device, only if the probed file is a blockdevice.
	BlockDevice *block.Device

	// DevNo is the device number of the probed device.
	//
	// Only available if the probed file is a blockdevice.
	DevNo uint64

	// WholeDisk is true if the probed device is a whole disk.
	//
	// Only available if the probed file is a blockdevice.
	WholeDisk bool

	// Compression of the probed image file.
	Compression image.Compression

	// Overall size of the probed device (in bytes).
	//
	// For compressed images, this is the decompressed size.
	Size uint64

	// Sector size of the device (in bytes).
	SectorSize uint

	// Optimal I/O size for the device (in bytes).
	IOSize uint

	// ProbeResult is the result of probing the device.
	ProbeResult

	// Parts is the result of probing the nested filesystem/partitions.
	Parts []NestedProbeResult
}

// ProbeResult is a result of probing a single filesystem/partition.
type ProbeResult struct { //nolint:govet
	Format     FormatTag
	Usage      Usage
	Confidence Confidence
	Issues     Issues

	// Ambiguous lists other formats detected with strong confidence, which lost on priority.
	Ambiguous []FormatTag

	UUID *uuid.UUID
	// UUIDText is set for identifiers which are not RFC 4122 UUIDs (LVM2 PV UUID, FAT serial number, ISO9660 dates).
	UUIDText  *string
	Label     *string
	Subsystem *string
	Version   *Version

	BlockSize           uint32
	FilesystemBlockSize uint32
	ProbedSize          uint64

	// Regions are the inner regions (partitions), offsets are relative to the probed region.
	Regions []Region
}

// Name returns the name of the detected format, or empty string if nothing was detected.
func (r *ProbeResult) Name() string {
	if r.Format == Unknown {
		return ""
	}

	return r.Format.String()
}

// Err returns the issues found while probing as an error.
func (r *ProbeResult) Err() error {
	return r.Issues.Err()
}

// Region is an inner region of a probed region.
type Region struct {
	UUID  *uuid.UUID
	Type  *uuid.UUID
	Label *string

	Index      uint // 1-based index
	Attributes uint64

	Offset, Size uint64
}

// NestedResult is result of probing a nested filesystem/partition.
//
// It annotates the ProbeResult with the partition information.
type NestedResult struct {
	PartitionUUID       *uuid.UUID
	PartitionType       *uuid.UUID
	PartitionLabel      *string
	PartitionIndex      uint // 1-based index
	PartitionAttributes uint64

	PartitionOffset, PartitionSize uint64
}

// NestedProbeResult is a result of probing a nested filesystem/partition.
type NestedProbeResult struct { //nolint:govet
	NestedResult
	ProbeResult

	Parts []NestedProbeResult
}

// DefaultMaxDepth is the default nesting depth for probing inner regions.
const DefaultMaxDepth = 4

// ProbeOptions is the options for probing.
type ProbeOptions struct {
	// Logger to use for logging.
	Logger *zap.Logger
	// SkipLocking blockdevices in shared mode.
	SkipLocking bool
	// SectorSize for regular files and readers (block devices report their own).
	SectorSize uint
	// SwapPageSizes to look for the swap signature at.
	SwapPageSizes []uint32
	// Digests are additional LUKS2 checksum algorithms.
	Digests map[string]func() hash.Hash
	// MaxDepth of the nested probing, 0 disables probing of inner regions.
	MaxDepth int
	// MaxImageSize limits the decompressed size of compressed images.
	MaxImageSize uint64
}

// ProbeOption is an option for probing.
type ProbeOption func(*ProbeOptions)

// WithProbeLogger sets the logger for the probe.
func WithProbeLogger(logger *zap.Logger) ProbeOption {
	return func(o *ProbeOptions) {
		o.Logger = logger
	}
}

// WithSkipLocking skips locking blockdevices in shared mode.
func WithSkipLocking(skip bool) ProbeOption {
	return func(o *ProbeOptions) {
		o.SkipLocking = skip
	}
}

// WithSectorSize sets the sector size for regular files and readers.
func WithSectorSize(size uint) ProbeOption {
	return func(o *ProbeOptions) {
		o.SectorSize = size
	}
}

// WithSwapPageSizes overrides the page sizes swap signatures are looked up at.
//
// Sizes which are not a power of two or can't hold the signature are ignored;
// if none are left, the default page sizes are used.
func WithSwapPageSizes(sizes ...uint32) ProbeOption {
	return func(o *ProbeOptions) {
		o.SwapPageSizes = sizes
	}
}

// WithDigest registers a LUKS2 checksum algorithm.
func WithDigest(name string, fn func() hash.Hash) ProbeOption {
	return func(o *ProbeOptions) {
		if o.Digests == nil {
			o.Digests = map[string]func() hash.Hash{}
		}

		o.Digests[name] = fn
	}
}

// WithMaxDepth sets the nesting depth for probing inner regions.
func WithMaxDepth(depth int) ProbeOption {
	return func(o *ProbeOptions) {
		o.MaxDepth = depth
	}
}

// WithMaxImageSize limits the decompressed size of compressed images.
func WithMaxImageSize(size uint64) ProbeOption {
	return func(o *ProbeOptions) {
		o.MaxImageSize = size
	}
}

func applyProbeOptions(opts ...ProbeOption) ProbeOptions {
	o := ProbeOptions{
		Logger:       zap.NewNop(),
		SectorSize:   block.DefaultBlockSize,
		MaxDepth:     DefaultMaxDepth,
		MaxImageSize: image.DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}
