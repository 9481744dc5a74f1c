// Package mem provides small constant-space byte-slice helpers used by the sponge
// and keystream layers.
package mem

// XORInPlace sets dst[i] ^= src[i] for each i, for i in range src. len(src) must be
// <= len(dst).
func XORInPlace(dst, src []byte) {
	for i, s := range src {
		dst[i] ^= s
	}
}

// XORBytes writes dst[i] = a[i] ^ b[i] for each i. len(dst) must be <= len(a) and
// len(b).
func XORBytes(dst, a, b []byte) {
	for i := range dst {
		dst[i] = a[i] ^ b[i]
	}
}
