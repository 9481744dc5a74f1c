package main

import (
	"flag"
	"io"

	"github.com/RatParty22222/1654/vault"
)

func runStealth(args []string, hidden bool) error {
	name := "stealth-"
	if hidden {
		name = "stealth+"
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var pass string
	fs.StringVar(&pass, "pass", "", "vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() < 2 {
		return userError{msg: name + " requires a <vault> and at least one path"}
	}
	vaultPath := fs.Arg(0)
	targets := fs.Args()[1:]

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	return vault.SetHidden(vaultPath, pw, targets, hidden)
}
