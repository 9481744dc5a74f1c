// Package hash implements the domain-tagged hash API of spec §4.2: Hash and
// HashStrong, both built over the rate-136 sponge in hazmat/sponge.
//
// The byte-exact tag framing below is load-bearing — it is what the KAT vectors in
// spec §8 depend on. Do not change absorption order or tag bytes.
package hash

import (
	"encoding/binary"
	"errors"

	"github.com/RatParty22222/1654/hazmat/sponge"
)

// ErrInvalidArgument is returned when out_bits is below the minimum, or (for
// HashStrong) when salt is empty.
var ErrInvalidArgument = errors.New("hash: invalid argument")

// MinOutBits is the minimum allowed output size, in bits.
const MinOutBits = 256

// domainSHAKE is the SHAKE-style finalization domain byte (0x1F).
const domainSHAKE = 0x1F

var (
	tagInit  = []byte("PETORON:INIT:v1")
	tagCtx   = []byte("PETORON:CTX:v1")
	tagMsg   = []byte("PETORON:MSG:v1")
	tagSalt  = []byte("PETORON:SALT:v1")
	tagFinal = []byte("PETORON:FINAL:v1")
)

// Hash computes the unsalted domain-tagged hash of msg under context, producing
// ceil(outBits/8) bytes. Fails if outBits < 256.
func Hash(msg []byte, context string, outBits int) ([]byte, error) {
	return frame(msg, nil, false, context, outBits)
}

// HashStrong computes the salted domain-tagged hash of msg under context, producing
// ceil(outBits/8) bytes. Fails if outBits < 256 or salt is empty.
func HashStrong(msg, salt []byte, context string, outBits int) ([]byte, error) {
	if len(salt) == 0 {
		return nil, ErrInvalidArgument
	}
	return frame(msg, salt, true, context, outBits)
}

func frame(msg, salt []byte, hasSalt bool, context string, outBits int) ([]byte, error) {
	if outBits < MinOutBits {
		return nil, ErrInvalidArgument
	}

	s := sponge.New()
	s.Absorb(tagInit)
	absorbTagged(s, tagCtx, []byte(context))
	absorbTagged(s, tagMsg, msg)
	if hasSalt {
		absorbTagged(s, tagSalt, salt)
	}
	s.Absorb(tagFinal)
	s.AbsorbDomainPad(domainSHAKE)

	out := make([]byte, (outBits+7)/8)
	s.Squeeze(out)
	return out, nil
}

// absorbTagged absorbs tag (unprefixed) followed by LE64(len(data)) || data.
func absorbTagged(s *sponge.Sponge, tag, data []byte) {
	s.Absorb(tag)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	s.Absorb(lenBuf[:])
	s.Absorb(data)
}
