// Package sponge implements the absorb/squeeze construction over Keccak-f[1600]
// described in spec §4.1: rate 136 bytes (1088 bits, the SHAKE256 rate), 512-bit
// capacity.
//
// The contract between absorption and squeezing is explicit: callers must call
// AbsorbDomainPad exactly once, after the last Absorb and before the first Squeeze.
package sponge

import (
	"github.com/RatParty22222/1654/hazmat/keccak"
	"github.com/RatParty22222/1654/internal/mem"
)

// Rate is the sponge rate in bytes (200 - capacity, capacity = 512 bits = 64 bytes).
const Rate = 136

// Sponge is an incremental Keccak-f[1600] sponge instance with rate 136.
type Sponge struct {
	state     [200]byte
	pos       int
	squeezing bool
}

// New returns a fresh Sponge with a zero state.
func New() *Sponge {
	return &Sponge{}
}

// Reset zeros the sponge state, preparing it for reuse.
func (s *Sponge) Reset() {
	s.state = [200]byte{}
	s.pos = 0
	s.squeezing = false
}

// Absorb XORs p into the sponge state, permuting on every full rate block. It must
// not be called after AbsorbDomainPad.
func (s *Sponge) Absorb(p []byte) {
	if s.squeezing {
		panic("sponge: Absorb called after AbsorbDomainPad")
	}
	for len(p) > 0 {
		w := min(Rate-s.pos, len(p))
		mem.XORInPlace(s.state[s.pos:s.pos+w], p[:w])
		s.pos += w
		p = p[w:]
		if s.pos == Rate {
			keccak.P1600(&s.state)
			s.pos = 0
		}
	}
}

// AbsorbDomainPad finalizes absorption: it XORs domain at the current queue offset,
// XORs 0x80 into the last rate byte, permutes once, and switches the sponge into
// squeezing mode. It must be called exactly once, after the last Absorb and before
// the first Squeeze.
func (s *Sponge) AbsorbDomainPad(domain byte) {
	if s.squeezing {
		panic("sponge: AbsorbDomainPad called twice")
	}
	s.state[s.pos] ^= domain
	s.state[Rate-1] ^= 0x80
	keccak.P1600(&s.state)
	s.pos = 0
	s.squeezing = true
}

// Squeeze emits len(out) bytes, permuting between rate-sized blocks. AbsorbDomainPad
// must have been called first.
func (s *Sponge) Squeeze(out []byte) {
	if !s.squeezing {
		panic("sponge: Squeeze called before AbsorbDomainPad")
	}
	for len(out) > 0 {
		if s.pos == Rate {
			keccak.P1600(&s.state)
			s.pos = 0
		}
		n := copy(out, s.state[s.pos:Rate])
		s.pos += n
		out = out[n:]
	}
}
