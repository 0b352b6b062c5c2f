// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package ioutil provides IO utility functions.
package ioutil

import (
	"errors"
	"io"
)

// ReadFullAt is io.ReadFull for io.ReaderAt.
//
// Short reads are retried, io.EOF before the buffer is filled is reported as io.ErrUnexpectedEOF.
func ReadFullAt(r io.ReaderAt, buf []byte, offset int64) error {
	for n := 0; n < len(buf); {
		m, err := r.ReadAt(buf[n:], offset+int64(n))

		n += m

		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && n == len(buf):
			return nil
		case errors.Is(err, io.EOF):
			return io.ErrUnexpectedEOF
		default:
			return err
		}

		if m == 0 {
			return io.ErrNoProgress
		}
	}

	return nil
}
