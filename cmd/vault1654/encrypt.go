package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/RatParty22222/1654/vault"
)

func runEncrypt(args []string) error {
	fs := flag.NewFlagSet("encrypt", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var out string
	var bits int
	var cost uint
	var pass string
	fs.StringVar(&out, "out", "", "output vault path (default: <input>.1654)")
	fs.IntVar(&bits, "bits", 0, "key size in bits (default 1024)")
	fs.UintVar(&cost, "cost", 0, "KDF iteration count (default 50000)")
	fs.StringVar(&pass, "pass", "", "vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 1 {
		return userError{msg: "encrypt requires exactly one <path>"}
	}
	input := fs.Arg(0)

	if out == "" {
		out = vault.EnsureVaultExtension(input)
	}

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	opts := vault.CreateOptions{KeyBits: bits, Cost: uint32(cost)}
	if err := vault.Create(out, input, pw, opts); err != nil {
		return err
	}

	fmt.Printf("created %s\n", out)
	return nil
}
