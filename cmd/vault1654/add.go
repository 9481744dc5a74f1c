package main

import (
	"flag"
	"io"

	"github.com/RatParty22222/1654/vault"
)

func runAdd(args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var pass string
	fs.StringVar(&pass, "pass", "", "vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() < 2 {
		return userError{msg: "add requires a <vault> and at least one path"}
	}
	vaultPath := fs.Arg(0)
	paths := fs.Args()[1:]

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	return vault.AddPaths(vaultPath, pw, paths)
}
