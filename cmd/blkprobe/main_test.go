// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/siderolabs/go-pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/go-blkprobe/blkid"
)

func testInfo() *blkid.Info {
	partUUID := uuid.MustParse("3c047ff8-e35c-4918-a061-b4c1e5a291e5")

	return &blkid.Info{
		Size:       4 << 20,
		SectorSize: 512,
		IOSize:     512,
		ProbeResult: blkid.ProbeResult{
			Format:     blkid.GPT,
			Usage:      blkid.PartitionTable,
			Confidence: blkid.Strong,
			Issues:     blkid.IssueAmbiguous,
			Ambiguous:  []blkid.FormatTag{blkid.VFAT},
			UUID:       pointer.To(uuid.MustParse("ddda0816-8b53-47bf-a813-9ebb1f73aaa2")),
			BlockSize:  512,
		},
		Parts: []blkid.NestedProbeResult{
			{
				NestedResult: blkid.NestedResult{
					PartitionUUID:   &partUUID,
					PartitionLabel:  pointer.To("EFI"),
					PartitionIndex:  1,
					PartitionOffset: 1 << 20,
					PartitionSize:   1 << 20,
				},
				ProbeResult: blkid.ProbeResult{
					Format:     blkid.VFAT,
					Usage:      blkid.Filesystem,
					Confidence: blkid.Strong,
					UUIDText:   pointer.To("1234-ABCD"),
					Label:      pointer.To("EFI"),
					Version:    &blkid.Version{Major: 12},
				},
			},
		},
	}
}

func TestNewResult(t *testing.T) {
	t.Parallel()

	res := NewResult("/dev/sda", testInfo())

	assert.Equal(t, "/dev/sda", res.Path)
	assert.Equal(t, "gpt", res.Format)
	assert.Equal(t, "partition_table", res.Usage)
	assert.Equal(t, "strong", res.Confidence)
	assert.Equal(t, []string{"vfat"}, res.Ambiguous)
	assert.Equal(t, "ddda0816-8b53-47bf-a813-9ebb1f73aaa2", res.UUID)
	assert.Empty(t, res.Compression)

	require.Len(t, res.Parts, 1)

	part := res.Parts[0]
	assert.EqualValues(t, 1, part.Index)
	assert.Equal(t, "EFI", part.PartLabel)
	assert.Equal(t, "3c047ff8-e35c-4918-a061-b4c1e5a291e5", part.PartUUID)
	assert.Equal(t, "EFI", part.Label)
	assert.Equal(t, "vfat", part.Format)
	assert.Equal(t, "1234-ABCD", part.UUID)
	assert.Equal(t, "12", part.Version)
	assert.Empty(t, part.PartType)
}

func TestWrite(t *testing.T) {
	t.Parallel()

	results := []Result{NewResult("disk.img", testInfo())}

	var buf bytes.Buffer

	require.NoError(t, write(&buf, "yaml", results))

	var decoded []map[string]any

	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "gpt", decoded[0]["format"])
	assert.Equal(t, "disk.img", decoded[0]["path"])

	buf.Reset()

	require.NoError(t, write(&buf, "json", results))
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "gpt", decoded[0]["format"])

	assert.Error(t, write(&buf, "xml", results))
}

func TestRootCmd(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 1<<20), 0o644))

	var out bytes.Buffer

	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--output", "json", path})

	require.NoError(t, cmd.Execute())

	var decoded []Result

	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)

	assert.Equal(t, path, decoded[0].Path)
	assert.EqualValues(t, 1<<20, decoded[0].Size)
	assert.Empty(t, decoded[0].Format)
}
