// Package kdf implements the password-based key derivation function of spec §4.3:
// an iterated HashStrong chain that stretches a password and salt into an encryption
// key and a MAC key.
package kdf

import (
	"encoding/binary"
	"errors"

	"github.com/RatParty22222/1654/crypto/hash"
)

// ErrInvalidArgument is returned when keyBytes is zero.
var ErrInvalidArgument = errors.New("kdf: invalid argument")

// DefaultKeyBits is the default key size in bits (key_bits in spec §3).
const DefaultKeyBits = 1024

// DefaultCost is the default iteration count.
const DefaultCost = 50000

const ctxSeed = "1654|KDF|0"
const ctxRound = "1654|KDF|R"

// BitsToBytes returns ceil(bits/8).
func BitsToBytes(bits int) int {
	return (bits + 7) / 8
}

// Derive stretches password and salt into a key_bytes-long encryption key and a
// key_bytes-long MAC key, iterating cost times. cost == 0 is clamped to 1.
func Derive(password, salt []byte, keyBytes int, cost uint32) (encKey, macKey []byte, err error) {
	if keyBytes <= 0 {
		return nil, nil, ErrInvalidArgument
	}
	if cost == 0 {
		cost = 1
	}

	outBits := keyBytes * 2 * 8

	state, err := hash.HashStrong(password, salt, ctxSeed, outBits)
	if err != nil {
		return nil, nil, err
	}

	for i := uint32(1); i < cost; i++ {
		var idx [4]byte
		binary.LittleEndian.PutUint32(idx[:], i)
		msg := append(append([]byte(nil), state...), idx[:]...)

		state, err = hash.HashStrong(msg, salt, ctxRound, outBits)
		if err != nil {
			return nil, nil, err
		}
	}

	encKey = append([]byte(nil), state[:keyBytes]...)
	macKey = append([]byte(nil), state[keyBytes:2*keyBytes]...)
	return encKey, macKey, nil
}
