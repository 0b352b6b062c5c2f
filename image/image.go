// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package image provides a byte source over disk images, optionally compressed.
//
// Compressed images are decompressed into memory once, as probing needs random access.
package image

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression of the image.
type Compression int

// Supported compression formats.
const (
	None Compression = iota
	Zstd
	LZ4
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case None:
		return "none"
	case Zstd:
		return "zstd"
	case LZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", int(c))
	}
}

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Detect returns the compression format based on the leading bytes.
func Detect(header []byte) Compression {
	switch {
	case bytes.HasPrefix(header, zstdMagic):
		return Zstd
	case bytes.HasPrefix(header, lz4Magic):
		return LZ4
	default:
		return None
	}
}

// DefaultMaxSize is the default limit for the decompressed image size.
const DefaultMaxSize = 1 << 30

// ErrTooLarge is returned when the decompressed image exceeds the size limit.
var ErrTooLarge = errors.New("decompressed image is too large")

// Options for opening images.
type Options struct {
	// MaxSize limits the decompressed size of compressed images.
	MaxSize uint64
}

// Option configures Options.
type Option func(*Options)

// WithMaxSize sets the limit for the decompressed image size.
func WithMaxSize(size uint64) Option {
	return func(o *Options) {
		o.MaxSize = size
	}
}

func applyOptions(opts ...Option) Options {
	o := Options{
		MaxSize: DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Image is a random-access byte source.
type Image struct {
	r           io.ReaderAt
	closer      io.Closer
	size        uint64
	compression Compression
}

// Open the image at the path.
func Open(path string, opts ...Option) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	st, err := f.Stat()
	if err != nil {
		f.Close() //nolint:errcheck

		return nil, err
	}

	img, err := New(f, uint64(st.Size()), opts...)
	if err != nil {
		f.Close() //nolint:errcheck

		return nil, fmt.Errorf("error opening image %q: %w", path, err)
	}

	if img.compression == None {
		img.closer = f
	} else {
		// the contents are in memory now
		f.Close() //nolint:errcheck
	}

	return img, nil
}

// New wraps a byte source of the given size, decompressing it if needed.
func New(r io.ReaderAt, size uint64, opts ...Option) (*Image, error) {
	options := applyOptions(opts...)

	header := make([]byte, len(zstdMagic))

	n, err := r.ReadAt(header, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error reading image header: %w", err)
	}

	img := &Image{
		r:           r,
		size:        size,
		compression: Detect(header[:n]),
	}

	if img.compression == None {
		return img, nil
	}

	contents, err := decompress(io.NewSectionReader(r, 0, int64(size)), img.compression, options.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("error decompressing %s image: %w", img.compression, err)
	}

	img.r = bytes.NewReader(contents)
	img.size = uint64(len(contents))

	return img, nil
}

func decompress(in io.Reader, compression Compression, maxSize uint64) ([]byte, error) {
	var rd io.Reader

	switch compression {
	case Zstd:
		zr, err := zstd.NewReader(in)
		if err != nil {
			return nil, err
		}

		defer zr.Close()

		rd = zr
	case LZ4:
		rd = lz4.NewReader(in)
	case None:
		rd = in
	}

	var buf bytes.Buffer

	if _, err := io.Copy(&buf, io.LimitReader(rd, int64(maxSize)+1)); err != nil {
		return nil, err
	}

	if uint64(buf.Len()) > maxSize {
		return nil, fmt.Errorf("limit %d bytes: %w", maxSize, ErrTooLarge)
	}

	return buf.Bytes(), nil
}

// ReadAt implements io.ReaderAt.
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	return img.r.ReadAt(p, off)
}

// Size returns the (decompressed) image size.
func (img *Image) Size() uint64 {
	return img.size
}

// Compression returns the compression of the source.
func (img *Image) Compression() Compression {
	return img.compression
}

// Close the image.
func (img *Image) Close() error {
	if img.closer == nil {
		return nil
	}

	return img.closer.Close()
}
