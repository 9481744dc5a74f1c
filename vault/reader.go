package vault

import (
	"errors"
	"io"
	"os"

	"github.com/RatParty22222/1654/crypto/kdf"
	"github.com/RatParty22222/1654/crypto/mac"
	"github.com/RatParty22222/1654/crypto/object"
	"github.com/RatParty22222/1654/vault/format"
)

// legacyKeyBits and legacyCost are the fallback parameters used when a vault's
// header.reserved key_bits/kdf_cost fields are both zero, per spec §4.6 step 6 and
// §9's "tolerant reader" design note. New writers always populate the field.
const (
	legacyKeyBits = 512
	legacyCost    = 1
)

// Open is a vault opened for reading: header, trailer, index and derived keys are
// all loaded and verified, and the underlying file stays open so object bytes can
// be read on demand per index entry.
type Open struct {
	Header  format.GlobalHeader
	Trailer format.IndexTrailer
	Index   format.Index
	Keys    Keys

	file *os.File
}

// OpenForView implements spec §4.6: it verifies every container invariant of §3
// before returning, deriving keys from password and checking the trailer MAC
// against the encoded index bytes before decoding them. A wrong password and a tampered index are
// indistinguishable to the caller by design.
func OpenForView(path string, password []byte) (*Open, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errIo("open %s: %v", path, err)
	}

	v, err := openFrom(f, password)
	if err != nil {
		f.Close()
		return nil, err
	}
	return v, nil
}

func openFrom(f *os.File, password []byte) (*Open, error) {
	fsz, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, errIo("stat: %v", err)
	}
	if fsz < format.HeaderSize+format.TrailerSize {
		return nil, errWrongPasswordOrCorrupt()
	}

	headerBuf := make([]byte, format.HeaderSize)
	if _, err := f.ReadAt(headerBuf, 0); err != nil {
		return nil, errIo("read header: %v", err)
	}
	header, err := format.DecodeGlobalHeader(headerBuf)
	if err != nil {
		return nil, errWrongPasswordOrCorrupt()
	}
	if header.HeaderSize < format.HeaderSize || int64(header.HeaderSize) > fsz {
		return nil, errWrongPasswordOrCorrupt()
	}

	trailerBuf := make([]byte, format.TrailerSize)
	if _, err := f.ReadAt(trailerBuf, fsz-format.TrailerSize); err != nil {
		return nil, errIo("read trailer: %v", err)
	}
	trailer, err := format.DecodeIndexTrailer(trailerBuf)
	if err != nil || trailer.TrailerSize != format.TrailerSize {
		return nil, errWrongPasswordOrCorrupt()
	}

	if err := checkIndexBounds(&trailer, int64(header.HeaderSize), fsz); err != nil {
		return nil, err
	}

	indexBuf := make([]byte, trailer.IndexSize)
	if _, err := f.ReadAt(indexBuf, int64(trailer.IndexOffset)); err != nil {
		return nil, errIo("read index: %v", err)
	}

	keyBits, cost := keyParams(&header)
	encKey, macKey, err := kdf.Derive(password, header.Salt[:], kdf.BitsToBytes(keyBits), cost)
	if err != nil {
		return nil, errUsage("invalid key parameters: %v", err)
	}

	if !mac.Verify(macKey, indexBuf, trailer.IndexTag) {
		zero(encKey)
		zero(macKey)
		return nil, errWrongPasswordOrCorrupt()
	}

	idx, err := format.DecodeIndex(indexBuf)
	if err != nil {
		zero(encKey)
		zero(macKey)
		return nil, errWrongPasswordOrCorrupt()
	}

	if err := checkEntryBounds(&idx, int64(header.HeaderSize), int64(trailer.IndexOffset)); err != nil {
		zero(encKey)
		zero(macKey)
		return nil, err
	}

	return &Open{
		Header:  header,
		Trailer: trailer,
		Index:   idx,
		Keys:    Keys{EncKey: encKey, MacKey: macKey},
		file:    f,
	}, nil
}

// checkIndexBounds enforces container invariants 3-5 of spec §3.
func checkIndexBounds(t *format.IndexTrailer, headerSize, fsz int64) error {
	dataEnd := fsz - format.TrailerSize
	if !(headerSize <= int64(t.IndexOffset) && int64(t.IndexOffset) <= dataEnd) {
		return errWrongPasswordOrCorrupt()
	}
	if int64(t.IndexOffset)+int64(t.IndexSize) != dataEnd {
		return errWrongPasswordOrCorrupt()
	}
	if t.IndexSize == 0 || t.IndexSize > format.MaxIndexSize {
		return errWrongPasswordOrCorrupt()
	}
	return nil
}

// checkEntryBounds enforces container invariant 6 of spec §3: every non-Dir
// entry's object region must lie entirely within the object region proper — at or
// after the header, and entirely before the index. This guards against a crafted
// (but MAC-valid, i.e. password-holder-authored) index entry that points its
// data_offset/data_size at the header/salt/nonce region or into the index itself.
func checkEntryBounds(idx *format.Index, headerSize, indexOffset int64) error {
	for i := range idx.Entries {
		e := &idx.Entries[i]
		if e.Type == format.TypeDir {
			continue
		}
		off := int64(e.DataOffset)
		size := int64(e.DataSize)
		if off < headerSize || off+size > indexOffset {
			return errWrongPasswordOrCorrupt()
		}
	}
	return nil
}

func keyParams(h *format.GlobalHeader) (keyBits int, cost uint32) {
	if h.KeyBits == 0 && h.KDFCost == 0 {
		return legacyKeyBits, legacyCost
	}
	return int(h.KeyBits), h.KDFCost
}

// Close releases the underlying file handle and scrubs key material. Safe to call
// more than once.
func (v *Open) Close() error {
	v.Keys.Zero()
	if v.file == nil {
		return nil
	}
	f := v.file
	v.file = nil
	return f.Close()
}

// ReadObject writes the decrypted plaintext for the File entry e to w and returns
// the number of bytes written, verifying its per-object MAC tag before any
// plaintext is written (spec §4.5's
// permitted verify-before-release variant).
func (v *Open) ReadObject(w io.Writer, e *format.Entry) (int64, error) {
	if e.Type != format.TypeFile {
		return 0, errInternal("ReadObject called on a non-file entry")
	}

	r := io.NewSectionReader(v.file, int64(e.DataOffset), int64(e.DataSize))
	n, err := object.Decrypt(w, r, int64(e.DataSize), e.Nonce[:], v.Keys.EncKey, v.Keys.MacKey, e.Tag)
	if err != nil {
		if errors.Is(err, object.ErrIntegrity) {
			return 0, errIntegrityCheckFailed()
		}
		return 0, errIo("read object: %v", err)
	}
	return n, nil
}

