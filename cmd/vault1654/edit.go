package main

import (
	"flag"
	"io"

	"github.com/RatParty22222/1654/vault"
)

func runEdit(args []string) error {
	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var from string
	var pass string
	fs.StringVar(&from, "from", "", "replacement file")
	fs.StringVar(&pass, "pass", "", "vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 2 {
		return userError{msg: "edit requires exactly a <vault> and a <target>"}
	}
	if from == "" {
		return userError{msg: "edit requires --from <file>"}
	}
	vaultPath := fs.Arg(0)
	target := fs.Arg(1)

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	return vault.Edit(vaultPath, pw, target, from)
}
