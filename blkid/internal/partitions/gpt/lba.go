// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package gpt

// LastLBA returns the last addressable LBA of a region.
func LastLBA(size uint64, sectorSize uint) (uint64, bool) {
	if sectorSize == 0 || uint64(sectorSize)*2 > size {
		return 0, false
	}

	return (size / uint64(sectorSize)) - 1, true
}
