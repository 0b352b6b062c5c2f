// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package checksum

import (
	"crypto/sha1" //nolint:gosec
	"crypto/sha256"
	"crypto/sha512"
	"hash"
	"strings"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
	"golang.org/x/crypto/sha3"
)

// HashFunc creates a new hash instance.
type HashFunc func() hash.Hash

// Digests maps a hash algorithm name (as stored in on-disk headers) to its implementation.
type Digests map[string]HashFunc

func mustHash(fn func() (hash.Hash, error)) HashFunc {
	return func() hash.Hash {
		h, err := fn()
		if err != nil {
			panic(err)
		}

		return h
	}
}

var defaultDigests = sync.OnceValue(func() Digests {
	return Digests{
		"sha1":        sha1.New,
		"sha224":      sha256.New224,
		"sha256":      sha256.New,
		"sha384":      sha512.New384,
		"sha512":      sha512.New,
		"ripemd160":   ripemd160.New,
		"blake2b-256": mustHash(func() (hash.Hash, error) { return blake2b.New256(nil) }),
		"blake2b-384": mustHash(func() (hash.Hash, error) { return blake2b.New384(nil) }),
		"blake2b-512": mustHash(func() (hash.Hash, error) { return blake2b.New512(nil) }),
		"blake2s-256": mustHash(func() (hash.Hash, error) { return blake2s.New256(nil) }),
		"sha3-224":    sha3.New224,
		"sha3-256":    sha3.New256,
		"sha3-384":    sha3.New384,
		"sha3-512":    sha3.New512,
	}
})

// Lookup resolves the hash by name, first in d, then in the default table.
//
// Names are matched case-insensitively.
func (d Digests) Lookup(name string) (HashFunc, bool) {
	name = strings.ToLower(name)

	if fn, ok := d[name]; ok {
		return fn, true
	}

	fn, ok := defaultDigests()[name]

	return fn, ok
}
