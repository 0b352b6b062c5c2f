// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package checksum implements checksums used by on-disk headers.
package checksum

import (
	"hash/crc32"
	"sync"
)

var castagnoliTable = sync.OnceValue(func() *crc32.Table {
	return crc32.MakeTable(crc32.Castagnoli)
})

// IEEE returns CRC-32 (reflected, polynomial 0xEDB88320, initial register
// and final XOR 0xFFFFFFFF) of buf.
func IEEE(buf []byte) uint32 {
	return crc32.ChecksumIEEE(buf)
}

// Update runs the IEEE CRC-32 register over buf without the initial and final
// inversion, i.e. it returns the raw register value.
//
// Formats which seed the register with their own constant (LVM2) use this.
func Update(register uint32, buf []byte) uint32 {
	return ^crc32.Update(^register, crc32.IEEETable, buf)
}

// Castagnoli returns standard CRC-32C of buf.
func Castagnoli(buf []byte) uint32 {
	return crc32.Checksum(buf, castagnoliTable())
}
