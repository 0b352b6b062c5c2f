// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package luks_test

import (
	"bytes"
	"crypto/sha256"
	"hash"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/filesystems/luks"
	"github.com/siderolabs/go-blkprobe/blkid/internal/probe"
	"github.com/siderolabs/go-blkprobe/blkid/internal/synthetic"
	"github.com/siderolabs/go-blkprobe/blkid/internal/window"
)

const testUUID = "0b2a6e9c-5f57-4f3c-9b0e-1e8a3cfa1d42"

func probeImage(t *testing.T, p *luks.Probe, img []byte) *probe.Result {
	t.Helper()

	res, err := p.Probe(window.New(bytes.NewReader(img), uint64(len(img)), 0))
	require.NoError(t, err)

	return res
}

func TestProbe(t *testing.T) {
	t.Parallel()

	for _, alg := range []string{"sha256", "sha1", "sha512", "blake2b-256", "sha3-256", "ripemd160", "SHA256"} {
		t.Run(alg, func(t *testing.T) {
			t.Parallel()

			img := synthetic.LUKS2{
				UUID:        testUUID,
				Label:       "cryptlabel",
				Subsystem:   "data",
				ChecksumAlg: alg,
			}.Build()

			res := probeImage(t, &luks.Probe{}, img)
			require.NotNil(t, res)

			assert.Equal(t, probe.Strong, res.Confidence)
			assert.Equal(t, uuid.MustParse(testUUID), *res.UUID)
			assert.Nil(t, res.UUIDText)
			assert.Equal(t, "cryptlabel", *res.Label)
			assert.Equal(t, "data", *res.Subsystem)
			assert.Equal(t, &probe.Version{Major: 2}, res.Version)
			assert.Empty(t, res.Parts)
		})
	}
}

func TestProbeChecksum(t *testing.T) {
	t.Parallel()

	img := synthetic.LUKS2{UUID: testUUID, Label: "cryptlabel"}.Build()

	for _, offset := range []uint64{
		uint64(luks.Hdr_label.Offset),
		uint64(luks.Hdr_seqid.Offset) + 7,
		luks.MinHdrSize + 2, // JSON area
	} {
		res := probeImage(t, &luks.Probe{}, synthetic.Flip(img, offset))
		require.NotNil(t, res)

		assert.Equal(t, probe.Weak, res.Confidence)
		assert.True(t, res.Issues.Has(probe.IssueChecksumMismatch))
		assert.ErrorIs(t, res.Issues.Err(), probe.ErrChecksumMismatch)
	}

	// magic flip
	assert.Nil(t, probeImage(t, &luks.Probe{}, synthetic.Flip(img, 0)))
}

func TestProbeUnsupportedChecksum(t *testing.T) {
	t.Parallel()

	type customHash struct{ hash.Hash }

	digests := checksum.Digests{
		"custom-256": func() hash.Hash { return customHash{sha256.New()} },
	}

	img := synthetic.LUKS2{UUID: testUUID, ChecksumAlg: "custom-256", Digests: digests}.Build()

	res := probeImage(t, &luks.Probe{}, img)
	require.NotNil(t, res)

	assert.Equal(t, probe.Weak, res.Confidence)
	assert.True(t, res.Issues.Has(probe.IssueChecksumUnsupported))

	res = probeImage(t, &luks.Probe{Digests: digests}, img)
	require.NotNil(t, res)

	assert.Equal(t, probe.Strong, res.Confidence)
}

func TestProbeVersion(t *testing.T) {
	t.Parallel()

	img := synthetic.LUKS2{UUID: testUUID, Version: 1}.Build()

	res := probeImage(t, &luks.Probe{}, img)
	require.NotNil(t, res)

	assert.Equal(t, probe.Weak, res.Confidence)
	assert.True(t, res.Issues.Has(probe.IssueUnsupportedVersion))
	assert.EqualValues(t, 1, res.Version.Major)
}

func TestProbeHeaderSize(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name string

		builder synthetic.LUKS2
	}{
		{
			name:    "too small",
			builder: synthetic.LUKS2{HdrSize: 1024, Size: 1 << 20},
		},
		{
			name:    "too large",
			builder: synthetic.LUKS2{HdrSize: 8 << 20, Size: 1 << 20},
		},
		{
			name:    "larger than window",
			builder: synthetic.LUKS2{HdrSize: 32768, Size: 16384},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			assert.Nil(t, probeImage(t, &luks.Probe{}, test.builder.Build()))
		})
	}
}

func TestProbeTextUUID(t *testing.T) {
	t.Parallel()

	img := synthetic.LUKS2{UUID: "not-a-uuid"}.Build()

	res := probeImage(t, &luks.Probe{}, img)
	require.NotNil(t, res)

	assert.Nil(t, res.UUID)
	assert.Equal(t, "not-a-uuid", *res.UUIDText)
	assert.Nil(t, res.Label)
	assert.Nil(t, res.Subsystem)
}
