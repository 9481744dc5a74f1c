// Package object implements the chunked encrypt-then-MAC object codec of spec §4.5's
// tail: Encrypt reads plaintext from an io.Reader in 64 KiB chunks, writes ciphertext
// to an io.Writer, and returns the object's authentication tag; Decrypt does the
// reverse and verifies the tag before releasing any plaintext.
package object

import (
	"errors"
	"io"

	"github.com/RatParty22222/1654/crypto/mac"
	"github.com/RatParty22222/1654/crypto/stream"
)

// ErrIntegrity is returned by Decrypt when the ciphertext's MAC tag does not match.
var ErrIntegrity = errors.New("object: integrity check failed")

// Encrypt reads all of r, encrypting it in ChunkSize chunks under a fresh keystream
// per chunk (see crypto/stream), writes the ciphertext to w, and returns the number
// of bytes written and the object's MAC tag over the full ciphertext.
func Encrypt(w io.Writer, r io.Reader, nonce, encKey, macKey []byte) (int64, [mac.TagSize]byte, error) {
	buf := make([]byte, stream.ChunkSize)
	ciphertext := make([]byte, 0, stream.ChunkSize)

	var written int64
	var counter uint64
	for {
		n, readErr := io.ReadFull(r, buf)
		if n > 0 {
			chunk := make([]byte, n)
			if err := stream.XOR(chunk, buf[:n], nonce, encKey, counter); err != nil {
				return 0, [mac.TagSize]byte{}, err
			}
			if _, err := w.Write(chunk); err != nil {
				return 0, [mac.TagSize]byte{}, err
			}
			ciphertext = append(ciphertext, chunk...)
			written += int64(n)
			counter++
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return 0, [mac.TagSize]byte{}, readErr
		}
	}

	return written, mac.Compute(macKey, ciphertext), nil
}

// Decrypt reads exactly dataSize bytes of ciphertext from r into one buffer,
// verifies the object MAC tag against it, and only then decrypts it in ChunkSize
// chunks and writes the plaintext to w. Returns ErrIntegrity on tag mismatch.
func Decrypt(w io.Writer, r io.Reader, dataSize int64, nonce, encKey, macKey []byte, tag [mac.TagSize]byte) (int64, error) {
	ciphertext := make([]byte, dataSize)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return 0, err
	}

	if !mac.Verify(macKey, ciphertext, tag) {
		return 0, ErrIntegrity
	}

	var written int64
	var counter uint64
	for off := int64(0); off < dataSize; off += stream.ChunkSize {
		end := min(off+stream.ChunkSize, dataSize)
		chunk := make([]byte, end-off)
		if err := stream.XOR(chunk, ciphertext[off:end], nonce, encKey, counter); err != nil {
			return 0, err
		}
		if _, err := w.Write(chunk); err != nil {
			return 0, err
		}
		written += int64(len(chunk))
		counter++
	}

	return written, nil
}
