// Package panicwipe implements the panic executor: secure-deletion of
// every vault-owned artifact followed by process termination. It is
// invoked by the coordinator the instant a panic password classifies,
// and never returns to its caller.
package panicwipe

import (
	"os"
	"path/filepath"
	"strings"

	"ghostvault/internal/auth"
	"ghostvault/internal/log"
	"ghostvault/internal/securedelete"
)

// Execute enumerates and secure-deletes every artifact under root,
// removes the vault's directories, then terminates the process with
// exit code 0 - the same code a normal, successful quit would use, so
// an observer watching only the exit status cannot distinguish a panic
// wipe from an ordinary exit.
//
// Execute is idempotent: invoking it on an already-wiped or
// never-initialized root is a no-op wipe that still terminates.
func Execute(root string) {
	Wipe(root)
	os.Exit(0)
}

// Wipe performs the artifact enumeration and secure-deletion without
// terminating the process, so callers (panic-mode tests, or a caller
// that wants to run further cleanup before exiting) can drive it
// directly. Execute is Wipe followed by a normal-looking os.Exit(0).
func Wipe(root string) {
	for _, path := range artifacts(root) {
		if err := securedelete.File(path); err != nil {
			log.Warn("panic wipe: secure delete failed", log.String("path", path), log.Err(err))
		}
	}

	if err := os.RemoveAll(root); err != nil {
		log.Warn("panic wipe: failed to remove vault root", log.String("root", root), log.Err(err))
	}
}

// artifacts lists every file the panic executor must overwrite before
// the containing directories are removed: every blob, the primary
// metadata file, every backup and preserved-corrupt copy, and the
// password config.
func artifacts(root string) []string {
	var paths []string

	filesDir := filepath.Join(root, "files")
	if entries, err := os.ReadDir(filesDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				paths = append(paths, filepath.Join(filesDir, e.Name()))
			}
		}
	}

	if entries, err := os.ReadDir(root); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if name == "metadata.enc" || name == auth.ConfigFileName ||
				strings.HasPrefix(name, "metadata.backup.") || strings.HasPrefix(name, "metadata.corrupt.") {
				paths = append(paths, filepath.Join(root, name))
			}
		}
	}

	backupsDir := filepath.Join(root, "backups")
	if entries, err := os.ReadDir(backupsDir); err == nil {
		for _, e := range entries {
			walkDir(filepath.Join(backupsDir, e.Name()), &paths)
		}
	}

	return paths
}

func walkDir(dir string, paths *[]string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			walkDir(full, paths)
			continue
		}
		*paths = append(*paths, full)
	}
}
