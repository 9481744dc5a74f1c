package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RatParty22222/1654/vault/format"
)

// updateOp is the sum type dispatched inside rewrite, replacing the source's
// nested-closure pattern per §9's design note. Each variant both appends any new
// ciphertext bytes to the temp file and mutates the new index; extra work always
// happens after the prefix copy and before the index is encoded.
type updateOp interface {
	apply(idx *format.Index, w *os.File, pos int64, keys Keys) (int64, error)
}

// flagOp mutates existing entries' flags in place (delete, stealth set/clear). It
// never appends bytes.
type flagOp struct {
	mutate func(idx *format.Index) (changed bool, err error)
}

func (o flagOp) apply(idx *format.Index, _ *os.File, pos int64, _ Keys) (int64, error) {
	changed, err := o.mutate(idx)
	if err != nil {
		return pos, err
	}
	if !changed {
		return pos, errIo("no matching paths")
	}
	return pos, nil
}

// appendFileOp encrypts one host file under the existing keys and appends it to
// idx at vaultPath.
type appendFileOp struct {
	hostPath  string
	vaultPath string
}

func (o appendFileOp) apply(idx *format.Index, w *os.File, pos int64, keys Keys) (int64, error) {
	e, written, err := appendFileObject(w, o.hostPath, o.vaultPath, pos, keys.EncKey, keys.MacKey)
	if err != nil {
		return pos, err
	}
	idx.Entries = append(idx.Entries, e)
	return pos + written, nil
}

// appendTreeOp appends the entries of a host tree already walked by walkInput: an
// object per file, a bare entry per directory, reusing the existing keys throughout.
type appendTreeOp struct {
	entries []walkEntry
}

func (o appendTreeOp) apply(idx *format.Index, w *os.File, pos int64, keys Keys) (int64, error) {
	for _, we := range o.entries {
		if we.isDir {
			idx.Entries = append(idx.Entries, format.Entry{Path: we.vaultPath, Type: format.TypeDir, Flags: format.FlagVisible})
			continue
		}
		e, written, err := appendFileObject(w, we.hostPath, we.vaultPath, pos, keys.EncKey, keys.MacKey)
		if err != nil {
			return pos, err
		}
		idx.Entries = append(idx.Entries, e)
		pos += written
	}
	return pos, nil
}

// compositeOp runs several ops in sequence, threading the write position.
type compositeOp []updateOp

func (ops compositeOp) apply(idx *format.Index, w *os.File, pos int64, keys Keys) (int64, error) {
	for _, op := range ops {
		var err error
		pos, err = op.apply(idx, w, pos, keys)
		if err != nil {
			return pos, err
		}
	}
	return pos, nil
}

// rewrite implements the atomic rewrite protocol of spec §4.8: it opens the vault,
// clones its index, copies the unchanged object-region prefix into a sibling temp
// file, dispatches op to append any new bytes and mutate the index, then writes a
// fresh index and trailer and renames the temp file into place.
func rewrite(vaultPath string, password []byte, op updateOp) error {
	v, err := OpenForView(vaultPath, password)
	if err != nil {
		return err
	}
	defer v.Close()

	newIndex := format.Index{Entries: append([]format.Entry(nil), v.Index.Entries...)}

	tmpPath := tempFilePath(vaultPath)
	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return errIo("create temp file: %v", err)
	}
	defer os.Remove(tmpPath)
	defer tmp.Close()

	prefixLen := int64(v.Trailer.IndexOffset)
	if _, err := tmp.Write(v.Header.Encode()); err != nil {
		return errIo("write header: %v", err)
	}
	if err := copyRange(tmp, v.file, format.HeaderSize, prefixLen-format.HeaderSize); err != nil {
		return errIo("copy object prefix: %v", err)
	}

	pos, err := op.apply(&newIndex, tmp, prefixLen, v.Keys)
	if err != nil {
		return err
	}

	if err := finishVault(tmp, &newIndex, v.Keys.MacKey, pos); err != nil {
		return err
	}
	fsyncParent(tmpPath)

	if err := renameAtomic(tmpPath, vaultPath); err != nil {
		return err
	}
	fsyncParent(vaultPath)
	return nil
}

func tempFilePath(vaultPath string) string {
	return fmt.Sprintf("%s.tmp.%d.%d", vaultPath, os.Getpid(), time.Now().UnixMilli())
}

// fsyncParent best-effort fsyncs the parent directory of path, per spec §4.8 steps
// 8 and 10. Not all platforms support fsync on a directory handle; failures are
// ignored.
func fsyncParent(path string) {
	dir, err := os.Open(filepath.Dir(path))
	if err != nil {
		return
	}
	defer dir.Close()
	_ = dir.Sync()
}

// copyRange copies exactly n bytes from src starting at offset off into w.
func copyRange(w *os.File, src *os.File, off, n int64) error {
	if n == 0 {
		return nil
	}
	buf := make([]byte, 1<<20)
	r := io.NewSectionReader(src, off, n)
	for remaining := n; remaining > 0; {
		chunk := int64(len(buf))
		if remaining < chunk {
			chunk = remaining
		}
		read, err := r.Read(buf[:chunk])
		if read > 0 {
			if _, werr := w.Write(buf[:read]); werr != nil {
				return werr
			}
			remaining -= int64(read)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// renameAtomic renames tmpPath to vaultPath, retrying once after removing
// vaultPath if the platform rejects renaming over an existing file, per spec
// §4.8 step 9.
func renameAtomic(tmpPath, vaultPath string) error {
	if err := os.Rename(tmpPath, vaultPath); err == nil {
		return nil
	}
	if err := os.Remove(vaultPath); err != nil {
		os.Remove(tmpPath)
		return errIo("replace vault: %v", err)
	}
	if err := os.Rename(tmpPath, vaultPath); err != nil {
		os.Remove(tmpPath)
		return errIo("replace vault: %v", err)
	}
	return nil
}

// pathMatches reports whether entry matches the target/prefix selection rule used
// by delete, stealth and transfer: exact match, or target as a "/"-joined prefix.
func pathMatches(entryPath, target string) bool {
	return entryPath == target || strings.HasPrefix(entryPath, target+"/")
}

// AddPaths implements the "add" command of spec §4.8: each path is walked and
// appended to the vault, failing the whole call on any path collision.
func AddPaths(vaultPath string, password []byte, paths []string) error {
	if len(paths) == 0 {
		return errUsage("add requires at least one path")
	}

	var ops compositeOp
	for _, p := range paths {
		entries, err := walkInput(p)
		if err != nil {
			return err
		}
		ops = append(ops, collisionCheckOp{entries: entries}, appendTreeOp{entries: entries})
	}
	return rewrite(vaultPath, password, ops)
}

// collisionCheckOp fails the rewrite if any of entries' paths already exist as a
// non-deleted entry.
type collisionCheckOp struct {
	entries []walkEntry
}

func (o collisionCheckOp) apply(idx *format.Index, _ *os.File, pos int64, _ Keys) (int64, error) {
	for _, we := range o.entries {
		if hasNonDeletedEntry(idx, we.vaultPath) {
			return pos, errIo("add: %s already exists in vault", we.vaultPath)
		}
	}
	return pos, nil
}

func hasNonDeletedEntry(idx *format.Index, p string) bool {
	for i := range idx.Entries {
		if idx.Entries[i].Path == p && !idx.Entries[i].IsDeleted() {
			return true
		}
	}
	return false
}

// Delete implements the "delete" command: every entry whose path matches one of
// targets (exact or "/"-prefixed) is flagged DELETED.
func Delete(vaultPath string, password []byte, targets []string) error {
	if len(targets) == 0 {
		return errUsage("delete requires at least one path")
	}
	op := flagOp{mutate: func(idx *format.Index) (bool, error) {
		changed := false
		for i := range idx.Entries {
			e := &idx.Entries[i]
			if e.IsDeleted() {
				continue
			}
			for _, t := range targets {
				if pathMatches(e.Path, t) {
					e.Flags |= format.FlagDeleted
					changed = true
					break
				}
			}
		}
		return changed, nil
	}}
	return rewrite(vaultPath, password, op)
}

// SetHidden implements "stealth+" (hidden=true) and "stealth-" (hidden=false).
func SetHidden(vaultPath string, password []byte, targets []string, hidden bool) error {
	if len(targets) == 0 {
		return errUsage("stealth requires at least one path")
	}
	op := flagOp{mutate: func(idx *format.Index) (bool, error) {
		changed := false
		for i := range idx.Entries {
			e := &idx.Entries[i]
			if e.IsDeleted() {
				continue
			}
			for _, t := range targets {
				if pathMatches(e.Path, t) {
					if hidden {
						e.Flags |= format.FlagHidden
					} else {
						e.Flags &^= format.FlagHidden
					}
					changed = true
					break
				}
			}
		}
		return changed, nil
	}}
	return rewrite(vaultPath, password, op)
}

// Edit implements the "edit" command: it marks the existing File entry at target
// DELETED and appends a new File entry at the same path from fromFile.
func Edit(vaultPath string, password []byte, target, fromFile string) error {
	found := false
	markDeleted := flagOp{mutate: func(idx *format.Index) (bool, error) {
		for i := range idx.Entries {
			e := &idx.Entries[i]
			if e.Type == format.TypeFile && e.Path == target && !e.IsDeleted() {
				e.Flags |= format.FlagDeleted
				found = true
			}
		}
		if !found {
			return false, errIo("edit: %s not found", target)
		}
		return true, nil
	}}

	ensureDirs := dirEnsureOp{vaultPath: target}
	appendNew := appendFileOp{hostPath: fromFile, vaultPath: target}

	return rewrite(vaultPath, password, compositeOp{markDeleted, ensureDirs, appendNew})
}

// dirEnsureOp appends Dir entries for every missing ancestor of vaultPath.
type dirEnsureOp struct {
	vaultPath string
}

func (o dirEnsureOp) apply(idx *format.Index, _ *os.File, pos int64, _ Keys) (int64, error) {
	ensureParentDirs(idx, o.vaultPath)
	return pos, nil
}
