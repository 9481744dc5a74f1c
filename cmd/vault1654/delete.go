package main

import (
	"flag"
	"io"

	"github.com/RatParty22222/1654/vault"
)

func runDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var pass string
	fs.StringVar(&pass, "pass", "", "vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() < 2 {
		return userError{msg: "delete requires a <vault> and at least one path"}
	}
	vaultPath := fs.Arg(0)
	targets := fs.Args()[1:]

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	return vault.Delete(vaultPath, pw, targets)
}
