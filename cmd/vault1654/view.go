package main

import (
	"flag"
	"fmt"
	"io"
	"path"

	"github.com/RatParty22222/1654/vault"
	"github.com/RatParty22222/1654/vault/format"
)

func runView(args []string) error {
	fs := flag.NewFlagSet("view", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var search string
	var hidden bool
	var all bool
	var pass string
	fs.StringVar(&search, "search", "", "glob pattern (* and ?) to filter paths")
	fs.BoolVar(&hidden, "hidden", false, "include HIDDEN entries")
	fs.BoolVar(&all, "all", false, "include DELETED entries")
	fs.StringVar(&pass, "pass", "", "vault password (prompted if omitted)")

	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid arguments"}
	}
	if fs.NArg() != 1 {
		return userError{msg: "view requires exactly one <vault>"}
	}
	vaultPath := fs.Arg(0)

	pw, err := resolvePassword(pass, "Vault password: ")
	if err != nil {
		return err
	}
	defer zeroBytes(pw)

	v, err := vault.OpenForView(vaultPath, pw)
	if err != nil {
		return err
	}
	defer v.Close()

	if all {
		for i := range v.Index.Entries {
			printEntryAll(&v.Index.Entries[i], search, hidden)
		}
		return nil
	}

	for _, e := range resolveCurrent(v.Index.Entries) {
		if e.IsDeleted() {
			continue
		}
		if e.IsHidden() && !hidden {
			continue
		}
		if !matchesSearch(e.Path, search) {
			continue
		}
		fmt.Println(displayPath(e))
	}
	return nil
}

// resolveCurrent collapses entries sharing a path down to the last (most recent)
// one, preserving the order of each path's first appearance, per spec §3's
// "last visible entry wins" resolution.
func resolveCurrent(entries []format.Entry) []*format.Entry {
	order := make([]string, 0, len(entries))
	latest := make(map[string]*format.Entry, len(entries))
	for i := range entries {
		e := &entries[i]
		if _, seen := latest[e.Path]; !seen {
			order = append(order, e.Path)
		}
		latest[e.Path] = e
	}

	out := make([]*format.Entry, 0, len(order))
	for _, p := range order {
		out = append(out, latest[p])
	}
	return out
}

func matchesSearch(p, pattern string) bool {
	if pattern == "" {
		return true
	}
	ok, err := path.Match(pattern, p)
	return err == nil && ok
}

func displayPath(e *format.Entry) string {
	if e.Type == format.TypeDir {
		return e.Path + "/"
	}
	return e.Path
}

// printEntryAll prints e under --all: DELETED suppression is lifted, but HIDDEN
// suppression still depends solely on includeHidden, matching the two independent
// filters in original_source/modes/view.cpp.
func printEntryAll(e *format.Entry, search string, includeHidden bool) {
	if !matchesSearch(e.Path, search) {
		return
	}
	if e.IsHidden() && !includeHidden {
		return
	}
	line := displayPath(e)
	if e.IsDeleted() {
		line += " [deleted]"
	} else if e.IsHidden() {
		line += " [hidden]"
	}
	fmt.Println(line)
}
