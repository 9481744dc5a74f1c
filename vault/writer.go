package vault

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/RatParty22222/1654/crypto/kdf"
	"github.com/RatParty22222/1654/crypto/mac"
	"github.com/RatParty22222/1654/crypto/object"
	"github.com/RatParty22222/1654/vault/format"
)

// VaultExtension is appended to an output path that does not already carry it, per
// spec §6.1.
const VaultExtension = ".1654"

// CreateOptions configures Create.
type CreateOptions struct {
	KeyBits int
	Cost    uint32
}

// WithDefaults fills zero fields with spec defaults.
func (o CreateOptions) WithDefaults() CreateOptions {
	if o.KeyBits == 0 {
		o.KeyBits = kdf.DefaultKeyBits
	}
	if o.Cost == 0 {
		o.Cost = kdf.DefaultCost
	}
	return o
}

// EnsureVaultExtension appends VaultExtension to path if it is missing.
func EnsureVaultExtension(path string) string {
	if strings.HasSuffix(path, VaultExtension) {
		return path
	}
	return path + VaultExtension
}

// Create implements spec §4.7: it walks inputPath depth-first and writes a fresh
// vault to outPath, one encrypted object per file and one zero-byte entry per
// directory.
func Create(outPath, inputPath string, password []byte, opts CreateOptions) error {
	opts = opts.WithDefaults()
	if opts.KeyBits < 256 || opts.KeyBits%8 != 0 {
		return errUsage("--bits must be >= 256 and a multiple of 8")
	}
	if opts.Cost == 0 {
		return errUsage("--cost must be >= 1")
	}

	entries, err := walkInput(inputPath)
	if err != nil {
		return err
	}

	outPath = EnsureVaultExtension(outPath)
	out, err := os.Create(outPath)
	if err != nil {
		return errIo("create %s: %v", outPath, err)
	}
	defer out.Close()

	var header format.GlobalHeader
	header.Version = format.HeaderVersion
	header.HeaderSize = format.HeaderSize
	header.KeyBits = uint32(opts.KeyBits)
	header.KDFCost = opts.Cost
	if _, err := rand.Read(header.Salt[:]); err != nil {
		return errIo("generate salt: %v", err)
	}
	if _, err := rand.Read(header.Nonce[:]); err != nil {
		return errIo("generate header nonce: %v", err)
	}

	encKey, macKey, err := kdf.Derive(password, header.Salt[:], kdf.BitsToBytes(opts.KeyBits), opts.Cost)
	if err != nil {
		return errUsage("derive keys: %v", err)
	}
	defer zero(encKey)
	defer zero(macKey)

	if _, err := out.Write(header.Encode()); err != nil {
		return errIo("write header: %v", err)
	}

	var idx format.Index
	pos := int64(format.HeaderSize)
	for _, we := range entries {
		if we.isDir {
			idx.Entries = append(idx.Entries, format.Entry{Path: we.vaultPath, Type: format.TypeDir, Flags: format.FlagVisible})
			continue
		}

		e, written, err := appendFileObject(out, we.hostPath, we.vaultPath, pos, encKey, macKey)
		if err != nil {
			return err
		}
		pos += written
		idx.Entries = append(idx.Entries, e)
	}

	return finishVault(out, &idx, macKey, pos)
}

// appendFileObject encrypts the file at hostPath with a fresh random nonce,
// appends its ciphertext to w at the current position pos, and returns the index
// entry describing it along with the number of ciphertext bytes written.
func appendFileObject(w *os.File, hostPath, vaultPath string, pos int64, encKey, macKey []byte) (format.Entry, int64, error) {
	in, err := os.Open(hostPath)
	if err != nil {
		return format.Entry{}, 0, errIo("open %s: %v", hostPath, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return format.Entry{}, 0, errIo("stat %s: %v", hostPath, err)
	}

	var nonce [format.ObjectNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return format.Entry{}, 0, errIo("generate object nonce: %v", err)
	}

	written, tag, err := object.Encrypt(w, in, nonce[:], encKey, macKey)
	if err != nil {
		return format.Entry{}, 0, errIo("encrypt %s: %v", hostPath, err)
	}

	e := format.Entry{
		Path:       vaultPath,
		Type:       format.TypeFile,
		Flags:      format.FlagVisible,
		Size:       uint64(info.Size()),
		DataOffset: uint64(pos),
		DataSize:   uint64(written),
		Nonce:      nonce,
		Tag:        tag,
	}
	return e, written, nil
}

// finishVault encodes idx, appends it and a trailer to w at the current position
// pos, and flushes w to stable storage.
func finishVault(w *os.File, idx *format.Index, macKey []byte, pos int64) error {
	encoded := format.EncodeIndex(idx)
	if _, err := w.Write(encoded); err != nil {
		return errIo("write index: %v", err)
	}

	trailer := format.IndexTrailer{
		TrailerSize: format.TrailerSize,
		IndexOffset: uint64(pos),
		IndexSize:   uint64(len(encoded)),
		IndexTag:    mac.Compute(macKey, encoded),
	}
	if _, err := w.Write(trailer.Encode()); err != nil {
		return errIo("write trailer: %v", err)
	}

	if err := w.Sync(); err != nil {
		return errIo("sync: %v", err)
	}
	return nil
}

// ensureParentDirs appends Dir entries for every ancestor of vaultPath not already
// present in idx (as a non-deleted Dir entry), in top-down order.
func ensureParentDirs(idx *format.Index, vaultPath string) {
	dir := filepath.ToSlash(filepath.Dir(vaultPath))
	if dir == "." || dir == "" {
		return
	}

	var missing []string
	for d := dir; d != "." && d != ""; d = filepath.ToSlash(filepath.Dir(d)) {
		if !hasDirEntry(idx, d) {
			missing = append([]string{d}, missing...)
		}
	}
	for _, d := range missing {
		idx.Entries = append(idx.Entries, format.Entry{Path: d, Type: format.TypeDir, Flags: format.FlagVisible})
	}
}

func hasDirEntry(idx *format.Index, p string) bool {
	for i := range idx.Entries {
		e := &idx.Entries[i]
		if e.Type == format.TypeDir && e.Path == p && !e.IsDeleted() {
			return true
		}
	}
	return false
}
