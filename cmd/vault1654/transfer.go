package main

import (
	"flag"
	"io"

	"github.com/RatParty22222/1654/vault"
)

func runTransfer(args []string) error {
	fs := flag.NewFlagSet("transfer", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var hidden bool
	var pass string
	var passOut string
	fs.BoolVar(&hidden, "hidden", false, "include HIDDEN entries")
	fs.StringVar(&pass, "pass", "", "source vault password (prompted if omitted)")
	fs.StringVar(&passOut, "pass-out", "", "destination vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() < 2 {
		return userError{msg: "transfer requires a <src> and a <dst>"}
	}
	src := fs.Arg(0)
	dst := fs.Arg(1)
	selectPaths := fs.Args()[2:]

	pw, err := resolvePassword(pass, "Source vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	dstPw, err := resolvePassword(passOut, "Destination vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(dstPw)

	return vault.Transfer(src, pw, dst, dstPw, vault.TransferOptions{
		SelectPaths:   selectPaths,
		IncludeHidden: hidden,
	})
}
