// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

//go:build !linux

package blkid

import (
	"fmt"
	"os"

	"github.com/siderolabs/go-blkprobe/block"
)

// ProbePath returns the probe information for the specified path.
//
// Only disk images are supported on this platform.
func ProbePath(devpath string, opts ...ProbeOption) (*Info, error) {
	f, err := os.Open(devpath)
	if err != nil {
		return nil, err
	}

	defer f.Close() //nolint:errcheck

	return Probe(f, opts...)
}

// Probe returns the probe information for the specified file.
func Probe(f *os.File, opts ...ProbeOption) (*Info, error) {
	options := applyProbeOptions(opts...)

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat: %w", err)
	}

	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("unsupported file type %s: %w", st.Mode().Type(), block.ErrNotBlockDevice)
	}

	return probeImage(f, uint64(st.Size()), options)
}
