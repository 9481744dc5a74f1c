package vault_test

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/RatParty22222/1654/crypto/kdf"
	"github.com/RatParty22222/1654/crypto/mac"
	"github.com/RatParty22222/1654/vault"
	"github.com/RatParty22222/1654/vault/format"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

// buildSampleTree creates root/a.txt, root/b.txt and root/sub/c.txt under dir, per
// the end-to-end scenario in spec §8.4.
func buildSampleTree(t *testing.T, dir string) string {
	t.Helper()
	root := filepath.Join(dir, "root")
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(root, "a.txt"), "hello 1654\n")
	writeFile(t, filepath.Join(root, "b.txt"), "second file\n")
	writeFile(t, filepath.Join(root, "sub", "c.txt"), "nested\n")
	return root
}

func TestCreateEndToEnd(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(vaultPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(raw[0:4], []byte("1654")) {
		t.Fatalf("bad header magic: %x", raw[0:4])
	}
	if !bytes.Equal(raw[len(raw)-format.TrailerSize:len(raw)-format.TrailerSize+4], []byte("IDX1")) {
		t.Fatalf("bad trailer magic")
	}

	header, err := format.DecodeGlobalHeader(raw[:format.HeaderSize])
	if err != nil {
		t.Fatal(err)
	}
	if header.Version != 1 {
		t.Fatalf("version = %d, want 1", header.Version)
	}
	if header.KeyBits != 1024 {
		t.Fatalf("key_bits = %d, want 1024", header.KeyBits)
	}
	if header.KDFCost != 50000 {
		t.Fatalf("kdf_cost = %d, want 50000", header.KDFCost)
	}

	v, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	paths := entryPaths(v.Index.Entries)
	for _, want := range []string{"root/a.txt", "root/b.txt", "root/sub/c.txt"} {
		if !paths[want] {
			t.Fatalf("missing entry %s in %v", want, paths)
		}
	}
}

func entryPaths(entries []format.Entry) map[string]bool {
	m := make(map[string]bool, len(entries))
	for _, e := range entries {
		m[e.Path] = true
	}
	return m
}

func TestRoundTripExtractMatchesInput(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("correct horse battery staple")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	v, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	want := map[string]string{
		"root/a.txt":     "hello 1654\n",
		"root/b.txt":     "second file\n",
		"root/sub/c.txt": "nested\n",
	}
	for i := range v.Index.Entries {
		e := &v.Index.Entries[i]
		if e.Type != format.TypeFile {
			continue
		}
		var buf bytes.Buffer
		if _, err := v.ReadObject(&buf, e); err != nil {
			t.Fatalf("read %s: %v", e.Path, err)
		}
		if buf.String() != want[e.Path] {
			t.Fatalf("content of %s = %q, want %q", e.Path, buf.String(), want[e.Path])
		}
	}
}

func TestDeleteHidesEntryFromDefaultView(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := vault.Delete(vaultPath, password, []string{"root/b.txt"}); err != nil {
		t.Fatal(err)
	}

	v, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	var found, deleted bool
	for _, e := range v.Index.Entries {
		if e.Path != "root/b.txt" {
			continue
		}
		found = true
		if e.IsDeleted() {
			deleted = true
		}
	}
	if !found || !deleted {
		t.Fatalf("expected root/b.txt marked DELETED, found=%v deleted=%v", found, deleted)
	}

	// The other files must still decrypt cleanly after a rewrite.
	for i := range v.Index.Entries {
		e := &v.Index.Entries[i]
		if e.Type != format.TypeFile || e.Path == "root/b.txt" {
			continue
		}
		var buf bytes.Buffer
		if _, err := v.ReadObject(&buf, e); err != nil {
			t.Fatalf("read %s after delete: %v", e.Path, err)
		}
	}
}

func TestDeleteNoMatchIsError(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	err := vault.Delete(vaultPath, password, []string{"root/does-not-exist.txt"})
	if err == nil {
		t.Fatal("expected error for no-op delete")
	}
	var status *vault.Status
	if !errAsStatus(err, &status) || status.Code != vault.IoError {
		t.Fatalf("got %v, want IoError status", err)
	}
}

func errAsStatus(err error, target **vault.Status) bool {
	s, ok := err.(*vault.Status)
	if ok {
		*target = s
	}
	return ok
}

func TestEditReplacesContent(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	replacement := filepath.Join(dir, "replaced.txt")
	writeFile(t, replacement, "replaced\n")

	if err := vault.Edit(vaultPath, password, "root/a.txt", replacement); err != nil {
		t.Fatal(err)
	}

	v, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	var deletedCount, visibleCount int
	var visible *format.Entry
	for i := range v.Index.Entries {
		e := &v.Index.Entries[i]
		if e.Path != "root/a.txt" {
			continue
		}
		if e.IsDeleted() {
			deletedCount++
		} else {
			visibleCount++
			visible = e
		}
	}
	if deletedCount != 1 || visibleCount != 1 {
		t.Fatalf("expected one deleted and one visible root/a.txt entry, got deleted=%d visible=%d", deletedCount, visibleCount)
	}

	var buf bytes.Buffer
	if _, err := v.ReadObject(&buf, visible); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "replaced\n" {
		t.Fatalf("got %q, want %q", buf.String(), "replaced\n")
	}
}

func TestAddRejectsCollision(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	// Adding the whole root tree again collides on every path it already contains
	// (root/a.txt, root/b.txt, root/sub, root/sub/c.txt all already exist).
	err := vault.AddPaths(vaultPath, password, []string{root})
	if err == nil {
		t.Fatal("expected collision error")
	}
}

func TestAddNewFile(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	newFile := filepath.Join(dir, "extra.txt")
	writeFile(t, newFile, "extra content\n")

	if err := vault.AddPaths(vaultPath, password, []string{newFile}); err != nil {
		t.Fatal(err)
	}

	v, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatal(err)
	}
	defer v.Close()

	for i := range v.Index.Entries {
		e := &v.Index.Entries[i]
		if e.Path != "extra.txt" {
			continue
		}
		var buf bytes.Buffer
		if _, err := v.ReadObject(&buf, e); err != nil {
			t.Fatal(err)
		}
		if buf.String() != "extra content\n" {
			t.Fatalf("got %q", buf.String())
		}
		return
	}
	t.Fatal("extra.txt not found after add")
}

func TestStealthSetAndClear(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := vault.SetHidden(vaultPath, password, []string{"root/a.txt"}, true); err != nil {
		t.Fatal(err)
	}

	v, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatal(err)
	}
	hiddenNow := false
	for _, e := range v.Index.Entries {
		if e.Path == "root/a.txt" && e.IsHidden() {
			hiddenNow = true
		}
	}
	v.Close()
	if !hiddenNow {
		t.Fatal("expected root/a.txt to be HIDDEN")
	}

	if err := vault.SetHidden(vaultPath, password, []string{"root/a.txt"}, false); err != nil {
		t.Fatal(err)
	}
	v2, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatal(err)
	}
	defer v2.Close()
	for _, e := range v2.Index.Entries {
		if e.Path == "root/a.txt" && e.IsHidden() {
			t.Fatal("expected root/a.txt HIDDEN flag cleared")
		}
	}
}

func TestWrongPasswordFailsWithIntegrityError(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")

	if err := vault.Create(vaultPath, root, []byte("correct"), vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	_, err := vault.OpenForView(vaultPath, []byte("wrong"))
	status, ok := err.(*vault.Status)
	if !ok || status.Code != vault.IntegrityError {
		t.Fatalf("got %v, want IntegrityError status", err)
	}
}

func TestTamperedTrailerFailsWithSameMessageAsWrongPassword(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(vaultPath)
	if err != nil {
		t.Fatal(err)
	}
	raw[len(raw)-1] ^= 0xFF
	if err := os.WriteFile(vaultPath, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = vault.OpenForView(vaultPath, password)
	status, ok := err.(*vault.Status)
	if !ok || status.Code != vault.IntegrityError {
		t.Fatalf("got %v, want IntegrityError", err)
	}
	if status.Msg != "wrong password or corrupted vault" {
		t.Fatalf("message = %q, want the wrong-password message", status.Msg)
	}
}

func TestTruncationFailsOpen(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("1654test")

	if err := vault.Create(vaultPath, root, password, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(vaultPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(vaultPath, raw[:len(raw)-1], 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := vault.OpenForView(vaultPath, password); err == nil {
		t.Fatal("expected truncated vault to fail open")
	}
}

func TestLegacyZeroReservedFieldsFallBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	vaultPath := filepath.Join(dir, "test.1654")
	password := []byte("legacy-pw")

	opts := vault.CreateOptions{KeyBits: 512, Cost: 1}
	if err := vault.Create(vaultPath, root, password, opts); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(vaultPath)
	if err != nil {
		t.Fatal(err)
	}
	binary.LittleEndian.PutUint32(raw[68:72], 0)
	binary.LittleEndian.PutUint32(raw[72:76], 0)
	if err := os.WriteFile(vaultPath, raw, 0o644); err != nil {
		t.Fatal(err)
	}

	// Key derivation with the legacy defaults (512 bits, cost 1) happens to equal
	// the parameters used above, so the zeroed header still opens successfully.
	v, err := vault.OpenForView(vaultPath, password)
	if err != nil {
		t.Fatalf("legacy-tolerant open failed: %v", err)
	}
	v.Close()
}

// TestEntryPointingIntoHeaderIsRejected builds a vault by hand whose single index
// entry carries a valid index MAC tag (as if crafted by someone who knows the
// password) but whose data_offset points into the header/salt/nonce region instead
// of the object region, violating spec §3 invariant 6. OpenForView must reject it
// rather than let ReadObject decrypt header bytes as if they were ciphertext.
func TestEntryPointingIntoHeaderIsRejected(t *testing.T) {
	dir := t.TempDir()
	vaultPath := filepath.Join(dir, "malicious.1654")
	password := []byte("1654test")

	var header format.GlobalHeader
	header.Version = format.HeaderVersion
	header.HeaderSize = format.HeaderSize
	header.KeyBits = 1024
	header.KDFCost = 50000
	if _, err := rand.Read(header.Salt[:]); err != nil {
		t.Fatal(err)
	}
	if _, err := rand.Read(header.Nonce[:]); err != nil {
		t.Fatal(err)
	}

	_, macKey, err := kdf.Derive(password, header.Salt[:], kdf.BitsToBytes(int(header.KeyBits)), header.KDFCost)
	if err != nil {
		t.Fatal(err)
	}

	idx := format.Index{Entries: []format.Entry{{
		Path:       "root/a.txt",
		Type:       format.TypeFile,
		Flags:      format.FlagVisible,
		Size:       10,
		DataOffset: 0, // inside the header, not the object region
		DataSize:   10,
	}}}
	encoded := format.EncodeIndex(&idx)

	trailer := format.IndexTrailer{
		TrailerSize: format.TrailerSize,
		IndexOffset: format.HeaderSize,
		IndexSize:   uint64(len(encoded)),
		IndexTag:    mac.Compute(macKey, encoded),
	}

	var buf bytes.Buffer
	buf.Write(header.Encode())
	buf.Write(encoded)
	buf.Write(trailer.Encode())
	if err := os.WriteFile(vaultPath, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = vault.OpenForView(vaultPath, password)
	status, ok := err.(*vault.Status)
	if !ok || status.Code != vault.IntegrityError {
		t.Fatalf("got %v, want IntegrityError status (invariant 6 violation)", err)
	}
}

func TestTransferProducesFreshRandomness(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	srcPath := filepath.Join(dir, "src.1654")
	dstPath := filepath.Join(dir, "dst.1654")
	srcPw := []byte("src-pw")
	dstPw := []byte("dst-pw")

	if err := vault.Create(srcPath, root, srcPw, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := vault.Transfer(srcPath, srcPw, dstPath, dstPw, vault.TransferOptions{}); err != nil {
		t.Fatal(err)
	}

	srcRaw, err := os.ReadFile(srcPath)
	if err != nil {
		t.Fatal(err)
	}
	dstRaw, err := os.ReadFile(dstPath)
	if err != nil {
		t.Fatal(err)
	}

	srcHeader, _ := format.DecodeGlobalHeader(srcRaw[:format.HeaderSize])
	dstHeader, _ := format.DecodeGlobalHeader(dstRaw[:format.HeaderSize])
	if srcHeader.Salt == dstHeader.Salt {
		t.Fatal("transfer did not generate a fresh salt")
	}
	if srcHeader.Nonce == dstHeader.Nonce {
		t.Fatal("transfer did not generate a fresh header nonce")
	}

	dst, err := vault.OpenForView(dstPath, dstPw)
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	want := map[string]string{
		"root/a.txt":     "hello 1654\n",
		"root/b.txt":     "second file\n",
		"root/sub/c.txt": "nested\n",
	}
	for i := range dst.Index.Entries {
		e := &dst.Index.Entries[i]
		if e.Type != format.TypeFile {
			continue
		}
		var buf bytes.Buffer
		if _, err := dst.ReadObject(&buf, e); err != nil {
			t.Fatalf("read %s from transferred vault: %v", e.Path, err)
		}
		if buf.String() != want[e.Path] {
			t.Fatalf("content of %s = %q, want %q", e.Path, buf.String(), want[e.Path])
		}
	}
}

func TestTransferSelectPathsAndHidden(t *testing.T) {
	dir := t.TempDir()
	root := buildSampleTree(t, dir)
	srcPath := filepath.Join(dir, "src.1654")
	dstPath := filepath.Join(dir, "dst.1654")
	srcPw := []byte("src-pw")
	dstPw := []byte("dst-pw")

	if err := vault.Create(srcPath, root, srcPw, vault.CreateOptions{}); err != nil {
		t.Fatal(err)
	}
	if err := vault.SetHidden(srcPath, srcPw, []string{"root/b.txt"}, true); err != nil {
		t.Fatal(err)
	}

	if err := vault.Transfer(srcPath, srcPw, dstPath, dstPw, vault.TransferOptions{
		SelectPaths: []string{"root/a.txt", "root/b.txt"},
	}); err != nil {
		t.Fatal(err)
	}

	dst, err := vault.OpenForView(dstPath, dstPw)
	if err != nil {
		t.Fatal(err)
	}
	defer dst.Close()

	paths := entryPaths(dst.Index.Entries)
	if !paths["root/a.txt"] {
		t.Fatal("expected root/a.txt to be carried over")
	}
	if paths["root/b.txt"] {
		t.Fatal("expected hidden root/b.txt to be excluded without --hidden")
	}
	if paths["root/sub/c.txt"] {
		t.Fatal("expected unselected root/sub/c.txt to be excluded")
	}
}
