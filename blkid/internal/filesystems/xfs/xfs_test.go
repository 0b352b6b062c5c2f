// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package xfs_test

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/xfs"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/synthetic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

var fsUUID = uuid.MustParse("8c4e6f1e-2b3a-4d5c-8e9f-0a1b2c3d4e5f")

func probeImage(t *testing.T, img []byte) *probe.Result {
	t.Helper()

	res, err := (&xfs.Probe{}).Probe(window.New(bytes.NewReader(img), uint64(len(img)), 0))
	require.NoError(t, err)

	return res
}

func TestProbe(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		builder synthetic.XFS

		expectedVersion    uint32
		expectedSectorSize uint32
	}{
		{
			name:            "v4",
			builder:            synthetic.XFS{UUID: fsUUID, Label: "somelabel"},
			expectedVersion:    4,
			expectedSectorSize: 512,
		},
		{
			name:            "v5",
			builder:            synthetic.XFS{UUID: fsUUID, Label: "somelabel", V5: true},
			expectedVersion:    5,
			expectedSectorSize: 512,
		},
		{
			name:            "v5 4k sectors",
			builder:            synthetic.XFS{UUID: fsUUID, Label: "somelabel", V5: true, SectorSize: 4096},
			expectedVersion:    5,
			expectedSectorSize: 4096,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			img := test.builder.Build()

			res := probeImage(t, img)
			require.NotNil(t, res)

			assert.Equal(t, probe.Strong, res.Confidence)
			assert.Equal(t, fsUUID, *res.UUID)
			assert.Equal(t, "somelabel", *res.Label)
			assert.Equal(t, test.expectedVersion, res.Version.Major)
			assert.Equal(t, test.expectedSectorSize, res.BlockSize)
			assert.EqualValues(t, 4096, res.FilesystemBlockSize)
			assert.EqualValues(t, 4096*4096, res.ProbedSize)
		})
	}
}

func TestProbeChecksum(t *testing.T) {
	t.Parallel()

	// label is covered by the v5 CRC
	img := synthetic.XFS{UUID: fsUUID, Label: "somelabel", V5: true}.Build()

	res := probeImage(t, synthetic.Flip(img, uint64(xfs.SB_fname.Offset)))
	require.NotNil(t, res)

	assert.Equal(t, probe.Weak, res.Confidence)
	assert.True(t, res.Issues.Has(probe.IssueChecksumMismatch))

	// v4 has no checksum
	img = synthetic.XFS{UUID: fsUUID, Label: "somelabel"}.Build()

	res = probeImage(t, synthetic.Flip(img, uint64(xfs.SB_fname.Offset)))
	require.NotNil(t, res)

	assert.Equal(t, probe.Strong, res.Confidence)
}

func TestProbeInvalid(t *testing.T) {
	t.Parallel()

	img := synthetic.XFS{UUID: fsUUID}.Build()

	for _, field := range []struct {
		name   string
		offset int
	}{
		{name: "magic", offset: xfs.SB_magicnum.Offset},
		{name: "inopblog", offset: xfs.SB_inopblog.Offset},
		{name: "blocklog", offset: xfs.SB_blocklog.Offset},
		{name: "sectsize", offset: xfs.SB_sectsize.Offset},
		{name: "inodesize", offset: xfs.SB_inodesize.Offset},
		{name: "imax_pct", offset: xfs.SB_imax_pct.Offset},
	} {
		t.Run(field.name, func(t *testing.T) {
			t.Parallel()

			assert.Nil(t, probeImage(t, synthetic.Flip(img, uint64(field.offset))))
		})
	}
}
