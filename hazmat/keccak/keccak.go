// Package keccak implements the Keccak-f[1600] permutation: 24 rounds of
// theta/rho/pi/chi/iota over a 1600-bit (200-byte) state, little-endian lanes.
//
// This is the full, un-reduced permutation (as opposed to the 12-round
// Keccak-p[1600,12] used by TurboSHAKE/KT128); every sponge in this module is built
// on it.
package keccak

import "encoding/binary"

// P1600 applies the Keccak-f[1600] permutation (24 rounds) to state in place.
func P1600(state *[200]byte) {
	var a [25]uint64
	for i := range a {
		a[i] = binary.LittleEndian.Uint64(state[i*8 : i*8+8])
	}

	f1600(&a)

	for i := range a {
		binary.LittleEndian.PutUint64(state[i*8:i*8+8], a[i])
	}
}

// rotationOffsets[x+5*y] is the rho rotation amount for lane (x, y), per the
// standard FIPS 202 table.
var rotationOffsets = [25]uint{
	0, 1, 62, 28, 27,
	36, 44, 6, 55, 20,
	3, 10, 43, 25, 39,
	41, 45, 15, 21, 8,
	18, 2, 61, 56, 14,
}

// roundConstants are the 24 iota round constants for Keccak-f[1600].
var roundConstants = [24]uint64{
	0x0000000000000001, 0x0000000000008082,
	0x800000000000808A, 0x8000000080008000,
	0x000000000000808B, 0x0000000080000001,
	0x8000000080008081, 0x8000000000008009,
	0x000000000000008A, 0x0000000000000088,
	0x0000000080008009, 0x000000008000000A,
	0x000000008000808B, 0x800000000000008B,
	0x8000000000008089, 0x8000000000008003,
	0x8000000000008002, 0x8000000000000080,
	0x000000000000800A, 0x800000008000000A,
	0x8000000080008081, 0x8000000000008080,
	0x0000000080000001, 0x8000000080008008,
}

// f1600 runs the 24-round permutation over 25 lanes (index = x + 5*y).
func f1600(a *[25]uint64) {
	for round := 0; round < 24; round++ {
		// Theta.
		var c [5]uint64
		for x := 0; x < 5; x++ {
			c[x] = a[x] ^ a[x+5] ^ a[x+10] ^ a[x+15] ^ a[x+20]
		}
		var d [5]uint64
		for x := 0; x < 5; x++ {
			d[x] = c[(x+4)%5] ^ rotl64(c[(x+1)%5], 1)
		}
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				a[x+5*y] ^= d[x]
			}
		}

		// Rho and pi: b[y][(2x+3y) mod 5] = rotl(a[x][y], r[x][y]).
		var b [25]uint64
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				nx, ny := y, (2*x+3*y)%5
				b[nx+5*ny] = rotl64(a[x+5*y], rotationOffsets[x+5*y])
			}
		}

		// Chi.
		for x := 0; x < 5; x++ {
			for y := 0; y < 5; y++ {
				a[x+5*y] = b[x+5*y] ^ (^b[(x+1)%5+5*y] & b[(x+2)%5+5*y])
			}
		}

		// Iota.
		a[0] ^= roundConstants[round]
	}
}

func rotl64(x uint64, n uint) uint64 {
	if n == 0 {
		return x
	}
	return x<<n | x>>(64-n)
}
