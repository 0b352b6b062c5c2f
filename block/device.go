// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package block provides read-only access to blockdevices for probing.
package block

import (
	"errors"
	"os"
)

// Device wraps blockdevice operations.
type Device struct {
	f *os.File

	devNo     uint64
	ownedFile bool
}

// NewFromFile returns a new Device from the specified file.
//
// The file is not closed by Close.
func NewFromFile(f *os.File) *Device {
	return &Device{f: f}
}

// DefaultBlockSize is the default block size in bytes.
const DefaultBlockSize = 512

// ErrNotBlockDevice is returned when the path doesn't point to a blockdevice.
var ErrNotBlockDevice = errors.New("not a blockdevice")

// ReadAt implements io.ReaderAt.
func (d *Device) ReadAt(p []byte, off int64) (int, error) {
	return d.f.ReadAt(p, off)
}

// File returns the underlying file.
func (d *Device) File() *os.File {
	return d.f
}

// Close the device.
//
// The underlying file is closed only if it was opened by NewFromPath.
func (d *Device) Close() error {
	if !d.ownedFile {
		return nil
	}

	return d.f.Close()
}
