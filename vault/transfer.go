package vault

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"

	"github.com/RatParty22222/1654/crypto/kdf"
	"github.com/RatParty22222/1654/crypto/mac"
	"github.com/RatParty22222/1654/crypto/stream"
	"github.com/RatParty22222/1654/vault/format"
)

// TransferOptions selects which entries Transfer carries over.
type TransferOptions struct {
	SelectPaths  []string
	IncludeHidden bool
}

// Transfer implements spec §4.9: it opens src, re-encrypts every selected object
// under freshly derived destination keys and a freshly generated nonce, and writes
// the result to dst. Ciphertext is never copied directly, since source and
// destination keys and nonces differ.
func Transfer(src string, srcPassword []byte, dst string, dstPassword []byte, opts TransferOptions) error {
	v, err := OpenForView(src, srcPassword)
	if err != nil {
		return err
	}
	defer v.Close()

	dst = EnsureVaultExtension(dst)
	out, err := os.Create(dst)
	if err != nil {
		return errIo("create %s: %v", dst, err)
	}
	defer out.Close()

	var header format.GlobalHeader
	header.Version = format.HeaderVersion
	header.HeaderSize = format.HeaderSize
	header.KeyBits = v.Header.KeyBits
	header.KDFCost = v.Header.KDFCost
	if header.KeyBits == 0 {
		header.KeyBits = kdf.DefaultKeyBits
	}
	if header.KDFCost == 0 {
		header.KDFCost = kdf.DefaultCost
	}
	if _, err := rand.Read(header.Salt[:]); err != nil {
		return errIo("generate salt: %v", err)
	}
	if _, err := rand.Read(header.Nonce[:]); err != nil {
		return errIo("generate header nonce: %v", err)
	}

	dstEncKey, dstMacKey, err := kdf.Derive(dstPassword, header.Salt[:], kdf.BitsToBytes(int(header.KeyBits)), header.KDFCost)
	if err != nil {
		return errUsage("derive destination keys: %v", err)
	}
	defer zero(dstEncKey)
	defer zero(dstMacKey)

	if _, err := out.Write(header.Encode()); err != nil {
		return errIo("write header: %v", err)
	}

	var newIndex format.Index
	pos := int64(format.HeaderSize)
	for i := range v.Index.Entries {
		e := v.Index.Entries[i]
		if e.IsDeleted() {
			continue
		}
		if e.IsHidden() && !opts.IncludeHidden {
			continue
		}
		if !selected(e.Path, opts.SelectPaths) {
			continue
		}

		if e.Type == format.TypeDir {
			newIndex.Entries = append(newIndex.Entries, format.Entry{Path: e.Path, Type: format.TypeDir, Flags: format.FlagVisible})
			continue
		}

		newEntry, written, err := transferObject(out, v, &e, pos, dstEncKey, dstMacKey)
		if err != nil {
			return err
		}
		pos += written
		newIndex.Entries = append(newIndex.Entries, newEntry)
	}

	return finishVault(out, &newIndex, dstMacKey, pos)
}

// selected reports whether path should be carried over given the transfer's
// select-paths filter (empty means "everything").
func selected(path string, selectPaths []string) bool {
	if len(selectPaths) == 0 {
		return true
	}
	for _, w := range selectPaths {
		if pathMatches(path, w) {
			return true
		}
	}
	return false
}

// transferObject decrypts one File object from the source vault, chunk by chunk,
// and re-encrypts each chunk under the destination keys and a fresh nonce as it
// writes it to w, so the whole plaintext is never held in memory. The source
// ciphertext is read whole so its MAC can be verified before any plaintext is
// trusted, and the destination ciphertext is also accumulated whole to compute the
// new MAC: each object is buffered twice at its ciphertext size.
func transferObject(w io.Writer, v *Open, e *format.Entry, pos int64, dstEncKey, dstMacKey []byte) (format.Entry, int64, error) {
	ciphertext := make([]byte, e.DataSize)
	if _, err := v.file.ReadAt(ciphertext, int64(e.DataOffset)); err != nil {
		return format.Entry{}, 0, errIo("read object %s: %v", e.Path, err)
	}
	if !mac.Verify(v.Keys.MacKey, ciphertext, e.Tag) {
		return format.Entry{}, 0, errIntegrityCheckFailed()
	}

	var dstNonce [format.ObjectNonceSize]byte
	if _, err := rand.Read(dstNonce[:]); err != nil {
		return format.Entry{}, 0, errIo("generate object nonce: %v", err)
	}

	var written int64
	var srcCounter, dstCounter uint64

	var dstCiphertext bytes.Buffer
	for off := int64(0); off < int64(e.DataSize); off += stream.ChunkSize {
		end := off + stream.ChunkSize
		if end > int64(e.DataSize) {
			end = int64(e.DataSize)
		}
		chunk := ciphertext[off:end]

		plain := make([]byte, len(chunk))
		if err := stream.XOR(plain, chunk, e.Nonce[:], v.Keys.EncKey, srcCounter); err != nil {
			return format.Entry{}, 0, errIo("decrypt object %s: %v", e.Path, err)
		}
		srcCounter++

		dstChunk := make([]byte, len(plain))
		if err := stream.XOR(dstChunk, plain, dstNonce[:], dstEncKey, dstCounter); err != nil {
			return format.Entry{}, 0, errIo("encrypt object %s: %v", e.Path, err)
		}
		dstCounter++

		if _, err := w.Write(dstChunk); err != nil {
			return format.Entry{}, 0, errIo("write object %s: %v", e.Path, err)
		}
		dstCiphertext.Write(dstChunk)
		written += int64(len(dstChunk))
	}

	dstTag := mac.Compute(dstMacKey, dstCiphertext.Bytes())

	newEntry := format.Entry{
		Path:       e.Path,
		Type:       format.TypeFile,
		Flags:      format.FlagVisible,
		Size:       e.Size,
		DataOffset: uint64(pos),
		DataSize:   uint64(written),
		Nonce:      dstNonce,
		Tag:        dstTag,
	}
	return newEntry, written, nil
}
