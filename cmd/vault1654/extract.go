package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RatParty22222/1654/vault"
	"github.com/RatParty22222/1654/vault/format"
)

func runExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var out string
	var to string
	var passOut string
	var hidden bool
	var pass string
	fs.StringVar(&out, "out", ".", "output directory")
	fs.StringVar(&to, "to", "", "destination vault for a transfer instead of extracting to disk")
	fs.StringVar(&passOut, "pass-out", "", "destination vault password (prompted if omitted)")
	fs.BoolVar(&hidden, "hidden", false, "include HIDDEN entries")
	fs.StringVar(&pass, "pass", "", "source vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() < 2 {
		return userError{msg: "extract requires a <vault> and at least one path"}
	}
	vaultPath := fs.Arg(0)
	selectPaths := fs.Args()[1:]

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	if to != "" {
		return transferSelection(vaultPath, pw, to, passOut, selectPaths, hidden)
	}

	v, err := vault.OpenForView(vaultPath, pw)
	if err != nil {
		return err
	}
	defer v.Close()

	return extractToDir(v, out, selectPaths, hidden)
}

func runDecrypt(args []string) error {
	fs := flag.NewFlagSet("decrypt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var out string
	var to string
	var passOut string
	var hidden bool
	var pass string
	fs.StringVar(&out, "out", ".", "output directory")
	fs.StringVar(&to, "to", "", "destination vault for a transfer instead of extracting to disk")
	fs.StringVar(&passOut, "pass-out", "", "destination vault password (prompted if omitted)")
	fs.BoolVar(&hidden, "hidden", false, "include HIDDEN entries")
	fs.StringVar(&pass, "pass", "", "vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 1 {
		return userError{msg: "decrypt requires exactly one <vault>"}
	}
	vaultPath := fs.Arg(0)

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	if to != "" {
		return transferSelection(vaultPath, pw, to, passOut, nil, hidden)
	}

	v, err := vault.OpenForView(vaultPath, pw)
	if err != nil {
		return err
	}
	defer v.Close()

	return extractToDir(v, out, nil, hidden)
}

func transferSelection(vaultPath string, pw []byte, to, passOut string, selectPaths []string, hidden bool) error {
	dstPw, err := resolvePassword(passOut, "Destination vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(dstPw)

	return vault.Transfer(vaultPath, pw, to, dstPw, vault.TransferOptions{
		SelectPaths:   selectPaths,
		IncludeHidden: hidden,
	})
}

// extractToDir writes every selected, non-deleted entry of v into outDir,
// recreating the vault's relative directory structure. selectPaths uses the same
// exact-or-prefix matching rule as delete/stealth/transfer; an empty selectPaths
// means "everything".
func extractToDir(v *vault.Open, outDir string, selectPaths []string, includeHidden bool) error {
	for i := range v.Index.Entries {
		e := &v.Index.Entries[i]
		if e.IsDeleted() {
			continue
		}
		if e.IsHidden() && !includeHidden {
			continue
		}
		if !cliPathSelected(e.Path, selectPaths) {
			continue
		}

		dest := filepath.Join(outDir, filepath.FromSlash(e.Path))
		if e.Type == format.TypeDir {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return &vault.Status{Code: vault.IoError, Msg: fmt.Sprintf("create directory %s: %v", dest, err)}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return &vault.Status{Code: vault.IoError, Msg: fmt.Sprintf("create directory %s: %v", filepath.Dir(dest), err)}
		}
		f, err := os.Create(dest)
		if err != nil {
			return &vault.Status{Code: vault.IoError, Msg: fmt.Sprintf("create file %s: %v", dest, err)}
		}
		_, writeErr := v.ReadObject(f, e)
		closeErr := f.Close()
		if writeErr != nil {
			return writeErr
		}
		if closeErr != nil {
			return &vault.Status{Code: vault.IoError, Msg: fmt.Sprintf("write file %s: %v", dest, closeErr)}
		}
	}
	return nil
}

func cliPathSelected(p string, selectPaths []string) bool {
	if len(selectPaths) == 0 {
		return true
	}
	for _, w := range selectPaths {
		if p == w || strings.HasPrefix(p, w+"/") {
			return true
		}
	}
	return false
}
