// Package mac implements the keyed MAC of spec §4.4: a HashStrong tag truncated to
// 16 bytes, verified in constant time.
package mac

import (
	"crypto/subtle"

	"github.com/RatParty22222/1654/crypto/hash"
)

// TagSize is the size of a MAC tag in bytes.
const TagSize = 16

const ctxMAC = "1654|MAC"

// tagOutBits is max(256, 128): HashStrong refuses outputs under 256 bits, so this is
// always 256 regardless of TagSize.
const tagOutBits = 256

// Compute returns the 16-byte MAC tag of data under key.
func Compute(key, data []byte) [TagSize]byte {
	out, err := hash.HashStrong(data, key, ctxMAC, tagOutBits)
	if err != nil {
		// key is never empty in this module's call sites (always a derived MAC key),
		// and tagOutBits is a compile-time constant >= hash.MinOutBits.
		panic("mac: unreachable HashStrong failure: " + err.Error())
	}

	var tag [TagSize]byte
	copy(tag[:], out[:TagSize])
	return tag
}

// Verify reports whether tag is the correct MAC of data under key, in constant time.
func Verify(key, data []byte, tag [TagSize]byte) bool {
	got := Compute(key, data)
	return subtle.ConstantTimeCompare(got[:], tag[:]) == 1
}
