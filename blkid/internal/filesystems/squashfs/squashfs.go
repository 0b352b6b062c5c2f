// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package squashfs probes Squash filesystems.
package squashfs

import (
	"bytes"
	"encoding/binary"

	"github.com/siderolabs/go-blkprobe/blkid/internal/magic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/utils"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

var squashfsMagicBE = magic.Magic{ // legacy big endian
	Offset: 0,
	Value:  []byte("sqsh"),
}

var squashfsMagicLE = magic.Magic{ // 0x73717368 little endian
	Offset: 0,
	Value:  []byte("hsqs"),
}

// Supported version.
const (
	VersionMajor = 4
)

// Probe for the filesystem.
type Probe struct{}

// Magic returns the magic value for the filesystem.
func (p *Probe) Magic() []*magic.Magic {
	return []*magic.Magic{
		&squashfsMagicLE,
		&squashfsMagicBE,
	}
}

// Format returns the format of the filesystem.
func (p *Probe) Format() probe.FormatTag {
	return probe.SquashFS
}

// Usage returns the usage of the filesystem.
func (p *Probe) Usage() probe.Usage {
	return probe.Filesystem
}

// Probe runs the further inspection and returns the result if successful.
func (p *Probe) Probe(r *window.Window) (*probe.Result, error) {
	buf, err := r.Read(0, SuperBlockSize)
	if err != nil {
		return nil, err
	}

	if magic.Any(buf, p.Magic()...) == nil {
		return nil, nil //nolint:nilnil
	}

	sb := SuperBlock(buf)

	var order binary.ByteOrder = binary.LittleEndian

	if bytes.Equal(buf[:4], squashfsMagicBE.Value) {
		order = binary.BigEndian
	}

	vermaj, vermin := sb.Version(order)
	version := &probe.Version{Major: uint32(vermaj), Minor: uint32(vermin)}

	if vermaj != VersionMajor || order != binary.LittleEndian {
		return (&probe.Result{Version: version}).Weaken(probe.IssueUnsupportedVersion), nil
	}

	if sb.BytesUsed() > r.GetSize() {
		return nil, nil //nolint:nilnil
	}

	if !utils.IsPowerOf2(sb.BlockSize()) || sb.BlockLog() >= 32 || uint32(1)<<sb.BlockLog() != sb.BlockSize() {
		return nil, nil //nolint:nilnil
	}

	res := &probe.Result{
		Version: version,

		BlockSize:           sb.BlockSize(),
		FilesystemBlockSize: sb.BlockSize(),
		ProbedSize:          sb.BytesUsed(),
	}

	return res.Strong(), nil
}
