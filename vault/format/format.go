// Package format implements the vault container wire codec of spec §3 and §6.1:
// the 76-byte global header, the 40-byte index trailer, and the encoded index.
//
// All multi-byte integers are little-endian. Layout:
//
//	header (76B) || object_0 || object_1 || ... || object_n-1 || encoded_index || trailer (40B)
package format

import (
	"encoding/binary"
	"errors"
)

// Fixed sizes, per spec §3.
const (
	HeaderSize   = 76
	SaltSize     = 32
	HeaderNonceSize = 24
	TrailerSize  = 40
	ObjectNonceSize = 24
	TagSize      = 16
	MaxPathLen   = 4096
	MaxIndexSize = 64 * 1024 * 1024

	HeaderVersion    = 1
	IndexCodecVersion = 1
)

// Magic byte strings.
var (
	VaultMagic = [4]byte{'1', '6', '5', '4'}
	IndexMagic = [4]byte{'I', 'D', 'X', '1'}
)

// indexEntryMagic is the 4-byte little-endian magic (the bytes "IDX1" packed as a uint32)
// that begins the encoded index.
const indexEntryMagic uint32 = 0x31584449

// ErrMalformed is returned by decoders when the input does not parse, independent of
// cryptographic verification (those failures are the caller's IntegrityError, not
// this package's concern — this package only reports structural violations).
var ErrMalformed = errors.New("format: malformed input")

// EntryType distinguishes file objects from directory markers.
type EntryType uint8

const (
	TypeFile EntryType = 1
	TypeDir  EntryType = 2
)

// EntryFlags is a bitset over an index entry's lifecycle state.
type EntryFlags uint32

const (
	FlagVisible EntryFlags = 1 << 0
	FlagHidden  EntryFlags = 1 << 1
	FlagDeleted EntryFlags = 1 << 2
)

// GlobalHeader is the fixed 76-byte header at the start of every vault.
type GlobalHeader struct {
	Version    uint32
	HeaderSize uint32
	Salt       [SaltSize]byte
	Nonce      [HeaderNonceSize]byte
	KeyBits    uint32
	KDFCost    uint32
}

// Encode serializes h into a 76-byte buffer.
func (h *GlobalHeader) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:4], VaultMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], h.Version)
	binary.LittleEndian.PutUint32(buf[8:12], h.HeaderSize)
	copy(buf[12:44], h.Salt[:])
	copy(buf[44:68], h.Nonce[:])
	binary.LittleEndian.PutUint32(buf[68:72], h.KeyBits)
	binary.LittleEndian.PutUint32(buf[72:76], h.KDFCost)
	// The header ends here at 76 bytes: only key_bits and kdf_cost of the reserved
	// area are stored, and no further zero-filled reserved bytes are written.
	return buf
}

// DecodeGlobalHeader parses a GlobalHeader from buf, which must be at least
// HeaderSize bytes. It validates the magic but not header_size bounds against the
// file (the caller does that, since it needs the file size).
func DecodeGlobalHeader(buf []byte) (GlobalHeader, error) {
	var h GlobalHeader
	if len(buf) < HeaderSize {
		return h, ErrMalformed
	}
	if !equalMagic(buf[0:4], VaultMagic) {
		return h, ErrMalformed
	}
	h.Version = binary.LittleEndian.Uint32(buf[4:8])
	h.HeaderSize = binary.LittleEndian.Uint32(buf[8:12])
	copy(h.Salt[:], buf[12:44])
	copy(h.Nonce[:], buf[44:68])
	h.KeyBits = binary.LittleEndian.Uint32(buf[68:72])
	h.KDFCost = binary.LittleEndian.Uint32(buf[72:76])
	return h, nil
}

// IndexTrailer is the fixed 40-byte record at the end of every vault.
type IndexTrailer struct {
	TrailerSize uint32
	IndexOffset uint64
	IndexSize   uint64
	IndexTag    [TagSize]byte
}

// Encode serializes t into a 40-byte buffer.
func (t *IndexTrailer) Encode() []byte {
	buf := make([]byte, TrailerSize)
	copy(buf[0:4], IndexMagic[:])
	binary.LittleEndian.PutUint32(buf[4:8], t.TrailerSize)
	binary.LittleEndian.PutUint64(buf[8:16], t.IndexOffset)
	binary.LittleEndian.PutUint64(buf[16:24], t.IndexSize)
	copy(buf[24:40], t.IndexTag[:])
	return buf
}

// DecodeIndexTrailer parses an IndexTrailer from a 40-byte buffer.
func DecodeIndexTrailer(buf []byte) (IndexTrailer, error) {
	var t IndexTrailer
	if len(buf) < TrailerSize {
		return t, ErrMalformed
	}
	if !equalMagic(buf[0:4], IndexMagic) {
		return t, ErrMalformed
	}
	t.TrailerSize = binary.LittleEndian.Uint32(buf[4:8])
	t.IndexOffset = binary.LittleEndian.Uint64(buf[8:16])
	t.IndexSize = binary.LittleEndian.Uint64(buf[16:24])
	copy(t.IndexTag[:], buf[24:40])
	return t, nil
}

// Entry is a single index record (spec §3's "Index entry").
type Entry struct {
	Path       string
	Type       EntryType
	Flags      EntryFlags
	Size       uint64
	DataOffset uint64
	DataSize   uint64
	Nonce      [ObjectNonceSize]byte
	Tag        [TagSize]byte
}

// IsDeleted reports whether the DELETED flag is set.
func (e *Entry) IsDeleted() bool { return e.Flags&FlagDeleted != 0 }

// IsHidden reports whether the HIDDEN flag is set.
func (e *Entry) IsHidden() bool { return e.Flags&FlagHidden != 0 }

// Index is an ordered, append-only sequence of entries.
type Index struct {
	Entries []Entry
}

// EncodeIndex serializes idx per spec §3's "Encoded index layout".
func EncodeIndex(idx *Index) []byte {
	size := 4 + 4 + 4 // magic, version, count
	for _, e := range idx.Entries {
		size += entryEncodedSize(&e)
	}

	buf := make([]byte, 0, size)
	var hdr [12]byte
	binary.LittleEndian.PutUint32(hdr[0:4], indexEntryMagic)
	binary.LittleEndian.PutUint32(hdr[4:8], IndexCodecVersion)
	binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(idx.Entries)))
	buf = append(buf, hdr[:]...)

	for i := range idx.Entries {
		buf = appendEntry(buf, &idx.Entries[i])
	}
	return buf
}

func entryEncodedSize(e *Entry) int {
	return 4 + len(e.Path) + 1 + 4 + 8 + 8 + 8 + ObjectNonceSize + TagSize
}

func appendEntry(buf []byte, e *Entry) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(e.Path)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, e.Path...)
	buf = append(buf, byte(e.Type))

	var fixed [4 + 8 + 8 + 8]byte
	binary.LittleEndian.PutUint32(fixed[0:4], uint32(e.Flags))
	binary.LittleEndian.PutUint64(fixed[4:12], e.Size)
	binary.LittleEndian.PutUint64(fixed[12:20], e.DataOffset)
	binary.LittleEndian.PutUint64(fixed[20:28], e.DataSize)
	buf = append(buf, fixed[:]...)
	buf = append(buf, e.Nonce[:]...)
	buf = append(buf, e.Tag[:]...)
	return buf
}

// DecodeIndex parses an encoded index. Trailing bytes beyond the declared entry
// count are a format error, as is any truncation mid-entry.
func DecodeIndex(buf []byte) (Index, error) {
	var idx Index
	if len(buf) < 12 {
		return idx, ErrMalformed
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	version := binary.LittleEndian.Uint32(buf[4:8])
	count := binary.LittleEndian.Uint32(buf[8:12])
	if magic != indexEntryMagic || version != IndexCodecVersion {
		return idx, ErrMalformed
	}

	off := 12
	// Every entry takes at least minEntrySize bytes, so a count the buffer cannot
	// hold is rejected before it sizes an allocation.
	const minEntrySize = 4 + 1 + 4 + 8 + 8 + 8 + ObjectNonceSize + TagSize
	if uint64(count) > uint64(len(buf)-off)/minEntrySize {
		return idx, ErrMalformed
	}
	idx.Entries = make([]Entry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, n, err := decodeEntry(buf[off:])
		if err != nil {
			return Index{}, err
		}
		idx.Entries = append(idx.Entries, e)
		off += n
	}

	if off != len(buf) {
		return Index{}, ErrMalformed
	}
	return idx, nil
}

func decodeEntry(buf []byte) (Entry, int, error) {
	var e Entry
	if len(buf) < 4 {
		return e, 0, ErrMalformed
	}
	pathLen := binary.LittleEndian.Uint32(buf[0:4])
	off := 4
	if pathLen > MaxPathLen || uint64(off)+uint64(pathLen) > uint64(len(buf)) {
		return e, 0, ErrMalformed
	}
	e.Path = string(buf[off : off+int(pathLen)])
	off += int(pathLen)

	const fixedTail = 1 + 4 + 8 + 8 + 8 + ObjectNonceSize + TagSize
	if off+fixedTail > len(buf) {
		return e, 0, ErrMalformed
	}

	e.Type = EntryType(buf[off])
	off++
	e.Flags = EntryFlags(binary.LittleEndian.Uint32(buf[off : off+4]))
	off += 4
	e.Size = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	e.DataOffset = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	e.DataSize = binary.LittleEndian.Uint64(buf[off : off+8])
	off += 8
	copy(e.Nonce[:], buf[off:off+ObjectNonceSize])
	off += ObjectNonceSize
	copy(e.Tag[:], buf[off:off+TagSize])
	off += TagSize

	return e, off, nil
}

func equalMagic(got []byte, want [4]byte) bool {
	return got[0] == want[0] && got[1] == want[1] && got[2] == want[2] && got[3] == want[3]
}
