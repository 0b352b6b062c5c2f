// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package squashfs_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/squashfs"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/synthetic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

func probeImage(t *testing.T, img []byte) *probe.Result {
	t.Helper()

	res, err := (&squashfs.Probe{}).Probe(window.New(bytes.NewReader(img), uint64(len(img)), 0))
	require.NoError(t, err)

	return res
}

func TestProbe(t *testing.T) {
	t.Parallel()

	img := synthetic.SquashFS{BlockLog: 12, BytesUsed: 6000}.Build()

	res := probeImage(t, img)
	require.NotNil(t, res)

	assert.Equal(t, probe.Strong, res.Confidence)
	assert.Equal(t, &probe.Version{Major: 4}, res.Version)
	assert.EqualValues(t, 4096, res.BlockSize)
	assert.EqualValues(t, 4096, res.FilesystemBlockSize)
	assert.EqualValues(t, 6000, res.ProbedSize)
	assert.Nil(t, res.UUID)
	assert.Nil(t, res.Label)

	sb := squashfs.SuperBlock(img[:squashfs.SuperBlockSize])
	assert.EqualValues(t, squashfs.SuperBlockSize, squashfs.SB_inode_table.Uint64(sb))
	assert.EqualValues(t, 1, squashfs.SB_compressor.Uint16(sb))
}

func TestProbeInvalid(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		img []byte
	}{
		{
			name: "magic",
			img:  synthetic.Flip(synthetic.SquashFS{}.Build(), 0),
		},
		{
			name: "bytes used",
			img:  synthetic.SquashFS{BytesUsed: 1 << 20}.Build(),
		},
		{
			name: "block log",
			img:  synthetic.Flip(synthetic.SquashFS{}.Build(), uint64(squashfs.SB_block_log.Offset)),
		},
		{
			name: "block size",
			img:  synthetic.Flip(synthetic.SquashFS{}.Build(), uint64(squashfs.SB_block_size.Offset)),
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Nil(t, probeImage(t, test.img))
		})
	}
}

func TestProbeUnsupportedVersion(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		builder synthetic.SquashFS

		expectedVersion probe.Version
	}{
		{
			name:            "v3",
			builder:         synthetic.SquashFS{VersionMajor: 3},
			expectedVersion: probe.Version{Major: 3},
		},
		{
			name:            "legacy big endian",
			builder:         synthetic.SquashFS{VersionMajor: 3, BigEndian: true},
			expectedVersion: probe.Version{Major: 3},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			res := probeImage(t, test.builder.Build())
			require.NotNil(t, res)

			assert.Equal(t, probe.Weak, res.Confidence)
			assert.True(t, res.Issues.Has(probe.IssueUnsupportedVersion))
			assert.Equal(t, test.expectedVersion, *res.Version)
		})
	}
}
