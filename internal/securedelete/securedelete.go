// Package securedelete implements DoD 5220.22-M-style multi-pass
// overwrite-then-unlink deletion for vault artifacts. This is
// AUDIT-CRITICAL code - it is the only thing standing between a deleted
// file and forensic recovery of its plaintext-adjacent bytes.
package securedelete

import (
	"io"
	"os"

	"ghostvault/internal/crypto"
	vaulterrors "ghostvault/internal/errors"
	"ghostvault/internal/log"
	"ghostvault/internal/util"
)

// passes is the fixed 3-pass overwrite sequence: all-zero, all-one,
// then cryptographically random. The order and pass count MUST NOT
// change - it is a tested property of the delete path, not a tunable.
type fillMode int

const (
	fillZero fillMode = iota
	fillOnes
	fillRandom
)

var passes = []fillMode{fillZero, fillOnes, fillRandom}

// File securely deletes path: three overwrite passes, each followed by
// an fsync, then unlink. Missing files are a no-op success, matching
// the idempotence every caller (panicwipe in particular) depends on.
func File(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return vaulterrors.NewDeleteError("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return vaulterrors.NewDeleteError("stat", path, err)
	}
	size := info.Size()

	// A flush failure on one pass does not abort the remaining passes -
	// every pass still gets a best-effort overwrite - but it is surfaced
	// to the caller once all passes have run, instead of unlinking a
	// file whose overwrite may be incomplete.
	var flushErr error
	for _, pass := range passes {
		if err := overwritePass(f, size, pass); err != nil {
			return err
		}
		if err := f.Sync(); err != nil && flushErr == nil {
			flushErr = vaulterrors.NewDeleteError("flush", path, err)
		}
	}
	if flushErr != nil {
		return flushErr
	}

	if err := f.Close(); err != nil {
		return vaulterrors.NewDeleteError("flush", path, err)
	}

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return vaulterrors.NewDeleteError("unlink", path, err)
	}

	log.Debug("securely deleted file", log.String("path", path), log.Int64("size", size))
	return nil
}

func overwritePass(f *os.File, size int64, mode fillMode) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return vaulterrors.NewDeleteError("write", f.Name(), err)
	}

	buf := util.GetOverwriteBuffer()
	defer util.PutOverwriteBuffer(buf)

	var written int64
	for written < size {
		n := int64(len(buf))
		if remaining := size - written; remaining < n {
			n = remaining
		}

		if err := fillBuffer(buf[:n], mode); err != nil {
			return vaulterrors.NewDeleteError("write", f.Name(), err)
		}

		if _, err := f.Write(buf[:n]); err != nil {
			return vaulterrors.NewDeleteError("write", f.Name(), err)
		}
		written += n
	}

	return nil
}

func fillBuffer(buf []byte, mode fillMode) error {
	switch mode {
	case fillZero:
		for i := range buf {
			buf[i] = 0x00
		}
	case fillOnes:
		for i := range buf {
			buf[i] = 0xFF
		}
	case fillRandom:
		random, err := crypto.SecureRandom(len(buf))
		if err != nil {
			return err
		}
		copy(buf, random)
	}
	return nil
}
