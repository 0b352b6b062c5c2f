// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package window implements bounded read-only views over a byte source.
package window

import (
	"errors"
	"fmt"
	"io"

	"github.com/siderolabs/go-blkprobe/internal/ioutil"
)

// ErrOutOfRange is returned when a read extends past the end of the window.
var ErrOutOfRange = errors.New("read out of window range")

// IOError wraps a failure of the underlying byte source.
type IOError struct {
	Err error

	Offset uint64
	Length uint64
}

// Error implements error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("error reading %d bytes at offset %d: %s", e.Length, e.Offset, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *IOError) Unwrap() error {
	return e.Err
}

// DefaultSectorSize is used when the source doesn't report a sector size.
const DefaultSectorSize = 512

// Window is an offset + length view into an immutable byte source.
//
// Window doesn't own or cache any data, all reads go to the source.
type Window struct {
	r io.ReaderAt

	offset     uint64
	size       uint64
	sectorSize uint
}

// New returns a window covering the first size bytes of r.
func New(r io.ReaderAt, size uint64, sectorSize uint) *Window {
	if sectorSize == 0 {
		sectorSize = DefaultSectorSize
	}

	return &Window{
		r:          r,
		size:       size,
		sectorSize: sectorSize,
	}
}

// GetSize returns the length of the window.
func (w *Window) GetSize() uint64 {
	return w.size
}

// GetSectorSize returns the logical sector size of the underlying device.
func (w *Window) GetSectorSize() uint {
	return w.sectorSize
}

// Offset returns absolute offset of the window in the byte source.
func (w *Window) Offset() uint64 {
	return w.offset
}

// Sub returns a nested window at the relative offset.
func (w *Window) Sub(offset, length uint64) (*Window, error) {
	if !w.inRange(offset, length) {
		return nil, fmt.Errorf("sub-window %d+%d of %d: %w", offset, length, w.size, ErrOutOfRange)
	}

	return &Window{
		r:          w.r,
		offset:     w.offset + offset,
		size:       length,
		sectorSize: w.sectorSize,
	}, nil
}

// Read returns exactly length bytes at the relative offset.
//
// Reads are never truncated: either all bytes are returned, or an error.
func (w *Window) Read(offset, length uint64) ([]byte, error) {
	if !w.inRange(offset, length) {
		return nil, fmt.Errorf("read %d+%d of %d: %w", offset, length, w.size, ErrOutOfRange)
	}

	buf := make([]byte, length)

	if err := w.readFull(buf, offset); err != nil {
		return nil, err
	}

	return buf, nil
}

// ReadAt implements io.ReaderAt within the window bounds.
func (w *Window) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || !w.inRange(uint64(off), uint64(len(p))) {
		return 0, fmt.Errorf("read %d+%d of %d: %w", off, len(p), w.size, ErrOutOfRange)
	}

	if err := w.readFull(p, uint64(off)); err != nil {
		return 0, err
	}

	return len(p), nil
}

func (w *Window) inRange(offset, length uint64) bool {
	end := offset + length

	return end >= offset && end <= w.size
}

func (w *Window) readFull(buf []byte, offset uint64) error {
	if err := ioutil.ReadFullAt(w.r, buf, int64(w.offset+offset)); err != nil {
		return &IOError{Err: err, Offset: w.offset + offset, Length: uint64(len(buf))}
	}

	return nil
}
