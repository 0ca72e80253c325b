// Package migration upgrades a vault whose blob files predate the
// frame format (legacy plaintext-on-disk blobs) to the current
// encrypted-and-framed layout: snapshot, encrypt in place, verify, and
// roll back on partial failure.
package migration

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"ghostvault/internal/crypto"
	vaulterrors "ghostvault/internal/errors"
	"ghostvault/internal/frame"
	"ghostvault/internal/log"
)

const legacyGlob = "*.dat"

// Status is the outcome of a Migrate call.
type Status int

const (
	Success Status = iota
	PartialFailure
)

// Result reports what Migrate did.
type Result struct {
	Status       Status
	SuccessCount int
	TotalCount   int
	FailedPaths  []string
	// SnapshotPath is the verbatim pre-migration copy, kept for
	// operator-initiated cleanup on full success and used internally
	// for Rollback on partial failure.
	SnapshotPath string
}

// Scan lists every legacy blob under <vaultRoot>/files/ whose leading
// bytes do not match the current frame magic.
func Scan(vaultRoot string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(vaultRoot, "files", legacyGlob))
	if err != nil {
		return nil, vaulterrors.NewStorageError("glob", vaultRoot, err)
	}

	var legacy []string
	for _, path := range matches {
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if !frame.IsEncryptedFrame(raw) {
			legacy = append(legacy, path)
		}
	}
	return legacy, nil
}

// Migrate snapshots every legacy file found by Scan, then encrypts and
// frames each one in place. On any per-file failure it rolls back the
// entire batch from the snapshot and reports PartialFailure.
func Migrate(vaultRoot, password string) (*Result, error) {
	legacy, err := Scan(vaultRoot)
	if err != nil {
		return nil, err
	}

	result := &Result{TotalCount: len(legacy)}
	if len(legacy) == 0 {
		result.Status = Success
		return result, nil
	}

	snapshotDir := filepath.Join(vaultRoot, "backups", "file_migration_backup_"+timestamp())
	if err := snapshotFiles(legacy, snapshotDir); err != nil {
		return nil, err
	}
	result.SnapshotPath = snapshotDir

	for _, path := range legacy {
		if err := migrateFile(path, password); err != nil {
			log.Warn("migration: file failed", log.String("path", path), log.Err(err))
			result.FailedPaths = append(result.FailedPaths, path)
			continue
		}
		result.SuccessCount++
	}

	if result.SuccessCount < result.TotalCount {
		result.Status = PartialFailure
		if err := Rollback(snapshotDir, vaultRoot); err != nil {
			log.Warn("migration: rollback failed", log.Err(err))
		}
		return result, nil
	}

	result.Status = Success
	return result, nil
}

// Rollback copies every file from snapshotPath back into
// <vaultRoot>/files/, overwriting whatever the partial migration left
// behind.
func Rollback(snapshotPath, vaultRoot string) error {
	entries, err := os.ReadDir(snapshotPath)
	if err != nil {
		return vaulterrors.NewStorageError("read", snapshotPath, err)
	}

	var firstErr error
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		src := filepath.Join(snapshotPath, e.Name())
		dest := filepath.Join(vaultRoot, "files", e.Name())

		data, err := os.ReadFile(src)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := os.WriteFile(dest, data, 0600); err != nil {
			if firstErr == nil {
				firstErr = vaulterrors.NewStorageError("write", dest, err)
			}
		}
	}
	return firstErr
}

func snapshotFiles(paths []string, destDir string) error {
	if err := os.MkdirAll(destDir, 0700); err != nil {
		return vaulterrors.NewStorageError("mkdir", destDir, err)
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return vaulterrors.NewStorageError("read", path, err)
		}
		dest := filepath.Join(destDir, filepath.Base(path))
		if err := os.WriteFile(dest, data, 0600); err != nil {
			return vaulterrors.NewStorageError("write", dest, err)
		}
	}
	return nil
}

func migrateFile(path, password string) error {
	plaintext, err := os.ReadFile(path)
	if err != nil {
		return vaulterrors.NewStorageError("read", path, err)
	}

	salt, iv, ciphertext, err := crypto.Encrypt(plaintext, []byte(password))
	if err != nil {
		return err
	}
	raw, err := frame.Serialize(frame.MagicBlob, salt, iv, ciphertext)
	if err != nil {
		return err
	}

	if err := atomicWrite(path, raw); err != nil {
		return err
	}

	verify, err := os.ReadFile(path)
	if err != nil {
		return vaulterrors.NewStorageError("read", path, err)
	}
	if !frame.IsEncryptedFrame(verify) {
		return vaulterrors.NewValidationError("migration", "migrated file does not sniff as framed: "+path)
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return vaulterrors.NewStorageError("open", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return vaulterrors.NewStorageError("write", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return vaulterrors.NewStorageError("flush", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return vaulterrors.NewStorageError("flush", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return vaulterrors.NewStorageError("rename", path, err)
	}
	return nil
}

func timestamp() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}
