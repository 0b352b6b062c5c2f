// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package blkid_test

import (
	"bytes"
	"crypto/sha256"
	"hash"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/siderolabs/gen/xslices"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/siderolabs/go-blkprobe/blkid"
	"github.com/siderolabs/go-blkprobe/blkid/internal/checksum"
	"github.com/siderolabs/go-blkprobe/blkid/internal/synthetic"
	"github.com/siderolabs/go-blkprobe/image"
)

const (
	MiB = 1024 * 1024

	diskSectors = 8192
)

var (
	diskUUID = uuid.MustParse("ddda0816-8b53-47bf-a813-9ebb1f73aaa2")
	linuxFS  = uuid.MustParse("0fc63daf-8483-4772-8e79-3d69d8477de4")
	efiFS    = uuid.MustParse("c12a7328-f81f-11d2-ba4b-00a0c93ec93b")

	xfsUUID = uuid.MustParse("7f5fcd6c-a703-40d2-8796-e5cf7f3a9eb5")
)

// nestedDisk is a GPT disk with XFS, VFAT and an empty partition.
func nestedDisk() synthetic.GPT {
	return synthetic.GPT{
		DiskUUID: diskUUID,
		Sectors:  diskSectors,
		Partitions: []synthetic.GPTPartition{
			{
				Type:     linuxFS,
				UUID:     uuid.MustParse("3c047ff8-e35c-4918-a061-b4c1e5a291e5"),
				Name:     "STATE",
				FirstLBA: 2048,
				LastLBA:  4095,
				Content:  synthetic.XFS{UUID: xfsUUID, Label: "state"}.Build(),
			},
			{
				Type:       efiFS,
				UUID:       uuid.MustParse("942d2017-052e-4216-b4e4-2110507e4cd4"),
				Name:       "EFI",
				FirstLBA:   4096,
				LastLBA:    6143,
				Attributes: 1,
				Content:    synthetic.VFAT{FATBits: 12, Label: "EFI", Serial: 0x1234abcd}.Build(),
			},
			{
				Type:     linuxFS,
				UUID:     uuid.MustParse("ce6b2d56-7a70-4546-926c-7a9b41607347"),
				Name:     "META",
				FirstLBA: 6144,
				LastLBA:  6399,
			},
		},
	}
}

func probeReader(t *testing.T, img []byte, opts ...blkid.ProbeOption) *blkid.Info {
	t.Helper()

	opts = append([]blkid.ProbeOption{blkid.WithProbeLogger(zaptest.NewLogger(t))}, opts...)

	info, err := blkid.ProbeReader(bytes.NewReader(img), uint64(len(img)), opts...)
	require.NoError(t, err)

	return info
}

func assertNestedDisk(t *testing.T, info *blkid.Info) {
	t.Helper()

	assert.Equal(t, "gpt", info.Name())
	assert.Equal(t, blkid.PartitionTable, info.Usage)
	assert.Equal(t, blkid.Strong, info.Confidence)
	assert.Equal(t, diskUUID, *info.UUID)
	assert.EqualValues(t, 512, info.BlockSize)

	require.Len(t, info.Parts, 3)

	assert.Equal(t, []uint{1, 2, 3}, xslices.Map(info.Parts, func(p blkid.NestedProbeResult) uint { return p.PartitionIndex }))
	assert.Equal(t, []string{"xfs", "vfat", ""}, xslices.Map(info.Parts, func(p blkid.NestedProbeResult) string { return p.Name() }))

	xfsPart := info.Parts[0]
	assert.Equal(t, "STATE", *xfsPart.PartitionLabel)
	assert.Equal(t, linuxFS, *xfsPart.PartitionType)
	assert.EqualValues(t, 2048*512, xfsPart.PartitionOffset)
	assert.EqualValues(t, 2048*512, xfsPart.PartitionSize)
	assert.Equal(t, xfsUUID, *xfsPart.UUID)
	assert.Equal(t, "state", *xfsPart.Label)
	assert.EqualValues(t, 4096, xfsPart.FilesystemBlockSize)
	assert.Empty(t, xfsPart.Parts)

	fatPart := info.Parts[1]
	assert.Equal(t, "EFI", *fatPart.PartitionLabel)
	assert.Equal(t, efiFS, *fatPart.PartitionType)
	assert.EqualValues(t, 1, fatPart.PartitionAttributes)
	assert.Equal(t, "EFI", *fatPart.Label)
	assert.Equal(t, "1234-ABCD", *fatPart.UUIDText)
	assert.Equal(t, &blkid.Version{Major: 12}, fatPart.Version)

	emptyPart := info.Parts[2]
	assert.Equal(t, blkid.Unknown, emptyPart.Format)
	assert.Equal(t, blkid.ConfidenceNone, emptyPart.Confidence)
	assert.EqualValues(t, 256*512, emptyPart.PartitionSize)
}

func TestProbeReaderNested(t *testing.T) {
	t.Parallel()

	info := probeReader(t, nestedDisk().Build())

	assert.EqualValues(t, diskSectors*512, info.Size)
	assert.EqualValues(t, 512, info.SectorSize)
	assert.Equal(t, image.None, info.Compression)
	assert.Nil(t, info.BlockDevice)

	assertNestedDisk(t, info)
}

func TestProbeReaderDepth(t *testing.T) {
	t.Parallel()

	inner := synthetic.GPT{
		DiskUUID: uuid.New(),
		Sectors:  1024,
		Partitions: []synthetic.GPTPartition{
			{
				Type:     linuxFS,
				UUID:     uuid.New(),
				FirstLBA: 64,
				LastLBA:  127,
				Content:  synthetic.XFS{UUID: xfsUUID}.Build(),
			},
		},
	}

	outer := synthetic.GPT{
		DiskUUID: diskUUID,
		Sectors:  diskSectors,
		Partitions: []synthetic.GPTPartition{
			{
				Type:     linuxFS,
				UUID:     uuid.New(),
				FirstLBA: 2048,
				LastLBA:  2048 + 1023,
				Content:  inner.Build(),
			},
		},
	}

	img := outer.Build()

	info := probeReader(t, img)
	require.Len(t, info.Parts, 1)
	assert.Equal(t, "gpt", info.Parts[0].Name())
	require.Len(t, info.Parts[0].Parts, 1)
	assert.Equal(t, "xfs", info.Parts[0].Parts[0].Name())
	assert.EqualValues(t, 64*512, info.Parts[0].Parts[0].PartitionOffset)

	info = probeReader(t, img, blkid.WithMaxDepth(1))
	require.Len(t, info.Parts, 1)
	assert.Equal(t, "gpt", info.Parts[0].Name())
	assert.Empty(t, info.Parts[0].Parts)

	info = probeReader(t, img, blkid.WithMaxDepth(0))
	assert.Equal(t, "gpt", info.Name())
	assert.Empty(t, info.Parts)
}

func TestIdentify(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		name    string
		builder synthetic.Builder

		expectedFormat blkid.FormatTag
		expectedUsage  blkid.Usage
	}{
		{
			name:           "iso9660",
			builder:        synthetic.ISO9660{VolumeID: "CDROM", SpaceSize: 64},
			expectedFormat: blkid.ISO9660,
			expectedUsage:  blkid.Filesystem,
		},
		{
			name:           "luks",
			builder:        synthetic.LUKS2{UUID: uuid.NewString(), Label: "cryptlabel", Subsystem: "data"},
			expectedFormat: blkid.LUKS2,
			expectedUsage:  blkid.Crypto,
		},
		{
			name:           "lvm2",
			builder:        synthetic.LVM2{PVUUID: "d2cb5b1gPXkH2mEtR9pFu4cxJ0wzoLQe", Sector: 1},
			expectedFormat: blkid.LVM2,
			expectedUsage:  blkid.VolumeManager,
		},
		{
			name:           "lvm2 standard crc",
			builder:        synthetic.LVM2{PVUUID: "d2cb5b1gPXkH2mEtR9pFu4cxJ0wzoLQe", StandardCRC: true},
			expectedFormat: blkid.LVM2,
			expectedUsage:  blkid.VolumeManager,
		},
		{
			name:           "squashfs",
			builder:        synthetic.SquashFS{},
			expectedFormat: blkid.SquashFS,
			expectedUsage:  blkid.Filesystem,
		},
		{
			name:           "swap",
			builder:        synthetic.Swap{Label: "swaplabel", UUID: uuid.New()},
			expectedFormat: blkid.Swap,
			expectedUsage:  blkid.Filesystem,
		},
		{
			name:           "vfat",
			builder:        synthetic.VFAT{FATBits: 32, Label: "BOOT"},
			expectedFormat: blkid.VFAT,
			expectedUsage:  blkid.Filesystem,
		},
		{
			name:           "xfs",
			builder:        synthetic.XFS{UUID: uuid.New(), V5: true},
			expectedFormat: blkid.XFS,
			expectedUsage:  blkid.Filesystem,
		},
		{
			name:           "gpt",
			builder:        nestedDisk(),
			expectedFormat: blkid.GPT,
			expectedUsage:  blkid.PartitionTable,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			img := test.builder.Build()

			res, err := blkid.Identify(bytes.NewReader(img), uint64(len(img)), blkid.WithProbeLogger(zaptest.NewLogger(t)))
			require.NoError(t, err)

			assert.Equal(t, test.expectedFormat, res.Format)
			assert.Equal(t, test.expectedFormat.String(), res.Name())
			assert.Equal(t, test.expectedUsage, res.Usage)
			assert.Equal(t, blkid.Strong, res.Confidence)
			assert.NoError(t, res.Err())
			assert.Empty(t, res.Ambiguous)

			// probing is idempotent
			again, err := blkid.Identify(bytes.NewReader(img), uint64(len(img)))
			require.NoError(t, err)

			assert.Equal(t, res, again)
		})
	}
}

func TestIdentifyUnknown(t *testing.T) {
	t.Parallel()

	for _, img := range [][]byte{nil, make([]byte, 512), make([]byte, MiB)} {
		res, err := blkid.Identify(bytes.NewReader(img), uint64(len(img)))
		require.NoError(t, err)

		assert.Equal(t, blkid.Unknown, res.Format)
		assert.Empty(t, res.Name())
		assert.Equal(t, blkid.ConfidenceNone, res.Confidence)
		assert.Empty(t, blkid.Children(res, uint64(len(img))))
	}
}

func TestChildren(t *testing.T) {
	t.Parallel()

	img := nestedDisk().Build()

	res, err := blkid.Identify(bytes.NewReader(img), uint64(len(img)))
	require.NoError(t, err)

	regions := blkid.Children(res, uint64(len(img)))
	require.Len(t, regions, 3)

	assert.Equal(t, blkid.Region{
		UUID:  res.Regions[0].UUID,
		Type:  &linuxFS,
		Label: res.Regions[0].Label,

		Index:  1,
		Offset: 2048 * 512,
		Size:   2048 * 512,
	}, regions[0])

	// regions past the end are dropped
	assert.Len(t, blkid.Children(res, 4096*512), 1)
	assert.Empty(t, blkid.Children(res, 0))
}

func TestProbeReaderWeak(t *testing.T) {
	t.Parallel()

	img := synthetic.LUKS2{UUID: uuid.NewString(), Label: "cryptlabel"}.Build()

	// label is covered by the header checksum
	info := probeReader(t, synthetic.Flip(img, 25))

	assert.Equal(t, "luks", info.Name())
	assert.Equal(t, blkid.Weak, info.Confidence)
	assert.True(t, info.Issues.Has(blkid.IssueChecksumMismatch))
	assert.ErrorIs(t, info.Err(), blkid.ErrChecksumMismatch)
}

func TestProbeReaderAmbiguous(t *testing.T) {
	t.Parallel()

	img := nestedDisk().Build()
	fat := synthetic.VFAT{Label: "HYBRID"}.Build()

	copy(img[:0x1be], fat[:0x1be])

	info := probeReader(t, img)

	assert.Equal(t, "gpt", info.Name())
	assert.Equal(t, blkid.Strong, info.Confidence)
	assert.Equal(t, []blkid.FormatTag{blkid.VFAT}, info.Ambiguous)
	assert.ErrorIs(t, info.Err(), blkid.ErrAmbiguousDetection)

	// the winner is still probed for inner regions
	assert.Len(t, info.Parts, 3)
}

func TestProbeReaderBackupHeader(t *testing.T) {
	t.Parallel()

	// corrupt the primary header CRC
	img := synthetic.Flip(nestedDisk().Build(), 512+16)

	info := probeReader(t, img)

	assert.Equal(t, "gpt", info.Name())
	assert.Equal(t, blkid.Strong, info.Confidence)
	assert.ErrorIs(t, info.Err(), blkid.ErrBackupHeader)
	assert.Len(t, info.Parts, 3)
}

func TestProbeReaderIOError(t *testing.T) {
	t.Parallel()

	img := nestedDisk().Build()

	for _, failing := range []*synthetic.FailingReader{
		// magic buffer
		{ReaderAt: bytes.NewReader(img), Offset: 0, Length: 1},
		// nested partition
		{ReaderAt: bytes.NewReader(img), Offset: 4096 * 512, Length: 512},
	} {
		_, err := blkid.ProbeReader(failing, uint64(len(img)))
		require.Error(t, err)

		var ioErr *blkid.IOError

		assert.ErrorAs(t, err, &ioErr)
		assert.ErrorIs(t, err, synthetic.ErrInjected)
	}
}

func TestProbeReaderOptions(t *testing.T) {
	t.Parallel()

	t.Run("digest", func(t *testing.T) {
		t.Parallel()

		digest := func() hash.Hash { return sha256.New() }

		img := synthetic.LUKS2{
			UUID:        uuid.NewString(),
			ChecksumAlg: "test-sha256",
			Digests:     checksum.Digests{"test-sha256": digest},
		}.Build()

		info := probeReader(t, img)
		assert.Equal(t, blkid.Weak, info.Confidence)
		assert.ErrorIs(t, info.Err(), blkid.ErrChecksumUnsupported)

		info = probeReader(t, img, blkid.WithDigest("test-sha256", digest))
		assert.Equal(t, blkid.Strong, info.Confidence)
	})

	t.Run("swap page size", func(t *testing.T) {
		t.Parallel()

		img := synthetic.Swap{PageSize: 65536, Pages: 4}.Build()

		info := probeReader(t, img, blkid.WithSwapPageSizes(4096))
		assert.Equal(t, blkid.Unknown, info.Format)

		info = probeReader(t, img, blkid.WithSwapPageSizes(4096, 65536))
		assert.Equal(t, "swap", info.Name())
		assert.EqualValues(t, 3*65536, info.ProbedSize)
	})

	t.Run("invalid swap page sizes", func(t *testing.T) {
		t.Parallel()

		img := synthetic.Swap{PageSize: 65536, Pages: 4}.Build()

		// sizes the signature doesn't fit into are ignored
		info := probeReader(t, img, blkid.WithSwapPageSizes(4, 4096))
		assert.Equal(t, blkid.Unknown, info.Format)

		// nothing valid left, defaults apply
		info = probeReader(t, img, blkid.WithSwapPageSizes(4, 100))
		assert.Equal(t, "swap", info.Name())

		res, err := blkid.Identify(bytes.NewReader(make([]byte, MiB)), MiB, blkid.WithSwapPageSizes(4))
		require.NoError(t, err)
		assert.Equal(t, blkid.Unknown, res.Format)
	})

	t.Run("sector size", func(t *testing.T) {
		t.Parallel()

		img := synthetic.GPT{DiskUUID: diskUUID, SectorSize: 4096, Sectors: 1024}.Build()

		info := probeReader(t, img, blkid.WithSectorSize(4096))
		assert.EqualValues(t, 4096, info.SectorSize)
		assert.Equal(t, "gpt", info.Name())
		assert.EqualValues(t, 4096, info.BlockSize)
	})
}

func TestProbeReaderConcurrent(t *testing.T) {
	t.Parallel()

	img := nestedDisk().Build()

	expected := probeReader(t, img)

	var wg sync.WaitGroup

	results := make([]*blkid.Info, 16)
	errs := make([]error, len(results))

	for i := range results {
		wg.Add(1)

		go func() {
			defer wg.Done()

			results[i], errs[i] = blkid.ProbeReader(bytes.NewReader(img), uint64(len(img)))
		}()
	}

	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Equal(t, expected, results[i])
	}
}

func TestProbePathImage(t *testing.T) {
	t.Parallel()

	img := nestedDisk().Build()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)

	compressed := enc.EncodeAll(img, nil)
	require.NoError(t, enc.Close())

	tmpDir := t.TempDir()

	rawPath := filepath.Join(tmpDir, "disk.raw")
	zstPath := filepath.Join(tmpDir, "disk.raw.zst")

	require.NoError(t, os.WriteFile(rawPath, img, 0o644))
	require.NoError(t, os.WriteFile(zstPath, compressed, 0o644))

	t.Run("raw", func(t *testing.T) {
		t.Parallel()

		info, err := blkid.ProbePath(rawPath, blkid.WithProbeLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)

		assert.Equal(t, image.None, info.Compression)
		assert.Nil(t, info.BlockDevice)
		assert.EqualValues(t, len(img), info.Size)

		assertNestedDisk(t, info)
	})

	t.Run("zstd", func(t *testing.T) {
		t.Parallel()

		info, err := blkid.ProbePath(zstPath, blkid.WithProbeLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)

		assert.Equal(t, image.Zstd, info.Compression)
		assert.EqualValues(t, len(img), info.Size)

		assertNestedDisk(t, info)
	})

	t.Run("too large", func(t *testing.T) {
		t.Parallel()

		_, err := blkid.ProbePath(zstPath, blkid.WithMaxImageSize(MiB))
		require.Error(t, err)
		assert.ErrorIs(t, err, image.ErrTooLarge)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()

		_, err := blkid.ProbePath(filepath.Join(tmpDir, "missing"))
		require.Error(t, err)
	})
}
