package vault

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// walkEntry is one node discovered by walkInput: a file with its host path, or a
// directory with no associated bytes.
type walkEntry struct {
	vaultPath string
	hostPath  string
	isDir     bool
}

// rootVaultName derives the in-vault name for the root of an add/create input, per
// spec §4.7 step 5 and §9's second open question: the base name of the cleaned
// input path. filepath.Clean strips a trailing separator first, so "dir/" is named
// "dir"; the "file"/"folder" fallback applies only if the base name is still empty.
// ".", ".." and the filesystem root are rejected outright rather than silently
// walking an unintended root.
func rootVaultName(inputPath string, isDir bool) (string, error) {
	clean := filepath.Clean(inputPath)
	if clean == "." || clean == ".." || clean == string(filepath.Separator) {
		return "", errUsage("refusing to add %q as a vault root", inputPath)
	}

	name := filepath.Base(clean)
	if name == "." || name == string(filepath.Separator) || name == "" {
		if isDir {
			return "folder", nil
		}
		return "file", nil
	}
	return name, nil
}

// walkInput performs a depth-first traversal of inputPath (a file or directory on
// the host filesystem), yielding one walkEntry per node. Directories are yielded
// before their children. The root's vault-relative name comes from rootVaultName;
// children are forward-slash-joined relative paths beneath it.
func walkInput(inputPath string) ([]walkEntry, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, errIo("stat %s: %v", inputPath, err)
	}

	root, err := rootVaultName(inputPath, info.IsDir())
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return []walkEntry{{vaultPath: root, hostPath: inputPath, isDir: false}}, nil
	}

	var entries []walkEntry
	entries = append(entries, walkEntry{vaultPath: root, hostPath: inputPath, isDir: true})

	walkErr := filepath.WalkDir(inputPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == inputPath {
			return nil
		}
		rel, err := filepath.Rel(inputPath, p)
		if err != nil {
			return err
		}
		vp := path.Join(root, filepath.ToSlash(rel))
		entries = append(entries, walkEntry{vaultPath: vp, hostPath: p, isDir: d.IsDir()})
		return nil
	})
	if walkErr != nil {
		return nil, errIo("walk %s: %v", inputPath, walkErr)
	}

	return entries, nil
}
