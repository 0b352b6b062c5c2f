// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package utils provides utility functions.
package utils

import (
	"bytes"

	"github.com/siderolabs/go-pointer"
)

// IsPowerOf2 returns true if num is a power of 2.
func IsPowerOf2[T uint8 | uint16 | uint32 | uint64](num T) bool {
	return (num != 0 && ((num & (num - 1)) == 0))
}

// TrimNUL cuts a NUL-padded fixed-width string at the first NUL byte.
func TrimNUL(b []byte) string {
	if idx := bytes.IndexByte(b, 0); idx != -1 {
		b = b[:idx]
	}

	return string(b)
}

// TrimSpace removes trailing space padding only.
func TrimSpace(b []byte) string {
	return string(bytes.TrimRight(b, " "))
}

// OptionalString returns nil for empty strings.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}

	return pointer.To(s)
}

// IsZero returns true if all bytes are zero.
func IsZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}

	return true
}
