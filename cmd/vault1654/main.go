// Command vault1654 is the CLI front end for the 1654 single-file encrypted vault
// format: it creates, inspects and mutates vaults per the command surface below.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/RatParty22222/1654/vault"
)

// userError is a usage mistake: bad flags, missing arguments, out-of-range values.
// It always maps to exit code vault.Usage.
type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(int(vault.Usage))
	}

	var err error
	switch os.Args[1] {
	case "encrypt":
		err = runEncrypt(os.Args[2:])
	case "decrypt":
		err = runDecrypt(os.Args[2:])
	case "view":
		err = runView(os.Args[2:])
	case "extract":
		err = runExtract(os.Args[2:])
	case "add":
		err = runAdd(os.Args[2:])
	case "delete":
		err = runDelete(os.Args[2:])
	case "edit":
		err = runEdit(os.Args[2:])
	case "stealth+":
		err = runStealth(os.Args[2:], true)
	case "stealth-":
		err = runStealth(os.Args[2:], false)
	case "transfer":
		err = runTransfer(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		printUsage()
		os.Exit(int(vault.Usage))
	}

	handleError(err)
}

// handleError maps err to a process exit code and a message on stderr. userError
// and *vault.Status both carry their own exit code; anything else is an
// InternalError, per spec §7's unreachable-state fallback.
func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(int(vault.Usage))
	}

	var status *vault.Status
	if errors.As(err, &status) {
		fmt.Fprintln(os.Stderr, status.Error())
		os.Exit(int(status.Code))
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(int(vault.InternalError))
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: vault1654 <command> [args]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  encrypt <path> [--out V] [--bits N] [--cost N]")
	fmt.Fprintln(os.Stderr, "  decrypt <vault> [--out DIR] [--to V2 --pass-out P] [--hidden]")
	fmt.Fprintln(os.Stderr, "  view <vault> [--search PATTERN] [--hidden] [--all]")
	fmt.Fprintln(os.Stderr, "  extract <vault> <paths...> [--out DIR] [--to V2 --pass-out P] [--hidden]")
	fmt.Fprintln(os.Stderr, "  add <vault> <paths...>")
	fmt.Fprintln(os.Stderr, "  delete <vault> <paths...>")
	fmt.Fprintln(os.Stderr, "  edit <vault> <target> --from <file>")
	fmt.Fprintln(os.Stderr, "  stealth+ <vault> <paths...>")
	fmt.Fprintln(os.Stderr, "  stealth- <vault> <paths...>")
	fmt.Fprintln(os.Stderr, "  transfer <src> <dst> [paths...] [--hidden]")
}
