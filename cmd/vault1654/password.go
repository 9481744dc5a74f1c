package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// zeroBytes overwrites b with zeros; used on every password and key buffer before
// it goes out of scope.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// promptPassword reads a password from the controlling terminal without local
// echo. Stdin must be a TTY; if it is not, the spec requires a usage error rather
// than silently reading a pipe.
func promptPassword(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, userError{msg: "password prompt requires an interactive terminal"}
	}

	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// resolvePassword returns flagValue if set, otherwise prompts interactively.
func resolvePassword(flagValue, prompt string) ([]byte, error) {
	if flagValue != "" {
		return []byte(flagValue), nil
	}
	return promptPassword(prompt)
}
