// Package stream implements the XOF-as-keystream construction of spec §4.5: a
// chunked counter-mode keystream derived fresh from HashStrong per chunk.
package stream

import (
	"encoding/binary"

	"github.com/RatParty22222/1654/crypto/hash"
	"github.com/RatParty22222/1654/internal/mem"
)

// ChunkSize is the plaintext/ciphertext chunk size: 64 KiB.
const ChunkSize = 64 * 1024

const ctxXOF = "1654|XOF"

// Keystream returns the keystream for chunk index counter of an object identified by
// nonce, under encKey, exactly length bytes long.
//
// Per spec §4.5 and §9's Open Question, the keystream is requested fresh from
// HashStrong every chunk (out_bits = max(256, length*8)) rather than squeezed
// continuously across chunks — this exact construction is load-bearing for
// ciphertext compatibility and must not be changed to an incremental squeeze.
func Keystream(nonce []byte, encKey []byte, counter uint64, length int) ([]byte, error) {
	msg := make([]byte, len(nonce)+8)
	copy(msg, nonce)
	binary.LittleEndian.PutUint64(msg[len(nonce):], counter)

	outBits := max(hash.MinOutBits, length*8)
	out, err := hash.HashStrong(msg, encKey, ctxXOF, outBits)
	if err != nil {
		return nil, err
	}
	return out[:length], nil
}

// XOR writes dst[i] = src[i] ^ keystream[i] for a chunk at the given counter. dst and
// src may be the same slice.
func XOR(dst, src []byte, nonce, encKey []byte, counter uint64) error {
	ks, err := Keystream(nonce, encKey, counter, len(src))
	if err != nil {
		return err
	}
	mem.XORBytes(dst, src, ks)
	return nil
}
