// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

import "github.com/google/uuid"

// GUIDToUUID converts a GPT GUID (first three groups little-endian) to a UUID.
func GUIDToUUID(g []byte) uuid.UUID {
	var u uuid.UUID

	copy(u[:], []byte{
		g[3], g[2], g[1], g[0],
		g[5], g[4],
		g[7], g[6],
	})
	copy(u[8:], g[8:16])

	return u
}

// UUIDToGUID converts a UUID to the GPT on-disk encoding.
func UUIDToGUID(u uuid.UUID) []byte {
	return append(
		[]byte{
			u[3], u[2], u[1], u[0],
			u[5], u[4],
			u[7], u[6],
		},
		u[8:16]...,
	)
}
