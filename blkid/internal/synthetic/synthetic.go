// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package synthetic builds minimal on-disk images for probing tests.
//
// Images carry only the structures probers look at, data regions are zero.
package synthetic

import (
	"errors"
	"io"
)

// Builder builds an image.
type Builder interface {
	Build() []byte
}

// Place copies src into img at offset, growing img if needed.
func Place(img []byte, offset uint64, src []byte) []byte {
	if end := offset + uint64(len(src)); end > uint64(len(img)) {
		img = append(img, make([]byte, end-uint64(len(img)))...)
	}

	copy(img[offset:], src)

	return img
}

// Flip returns a copy of img with the byte at offset inverted.
func Flip(img []byte, offset uint64) []byte {
	out := make([]byte, len(img))
	copy(out, img)

	out[offset] ^= 0xff

	return out
}

// ErrInjected is returned by FailingReader.
var ErrInjected = errors.New("injected read failure")

// FailingReader fails reads which touch [Offset, Offset+Length).
type FailingReader struct {
	io.ReaderAt

	Offset int64
	Length int64
}

// ReadAt implements io.ReaderAt.
func (r *FailingReader) ReadAt(p []byte, off int64) (int, error) {
	if off < r.Offset+r.Length && r.Offset < off+int64(len(p)) {
		return 0, ErrInjected
	}

	return r.ReaderAt.ReadAt(p, off)
}

func orDefault[T comparable](v, def T) T {
	var zero T

	if v == zero {
		return def
	}

	return v
}
