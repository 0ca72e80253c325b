// Package frame reads and writes the on-disk envelope wrapping every
// encrypted artifact in the vault: a fixed-offset
// MAGIC‖SALT‖IV‖CIPHERTEXT layout. This is AUDIT-CRITICAL code - changes
// here directly affect on-disk format compatibility.
package frame

import (
	"bytes"

	vaulterrors "ghostvault/internal/errors"
	"ghostvault/internal/crypto"
)

// Magic values identifying the artifact a frame wraps. Blobs and
// metadata files use distinct magics so a misplaced file is caught by
// inspection alone, before any decryption is attempted.
const (
	MagicBlob     = "GVEF" // GhostVault Encrypted File
	MagicMetadata = "GVMD" // GhostVault Metadata
)

const (
	magicSize = 4
	saltSize  = crypto.SaltSize
	ivSize    = crypto.NonceSize

	// MinFrameSize is the smallest a valid frame can be: magic + salt +
	// iv + a zero-length plaintext sealed under AES-GCM (16-byte tag).
	MinFrameSize = magicSize + saltSize + ivSize + 16
)

// Frame is a parsed envelope: the magic that identifies its contents,
// the KDF salt, the GCM nonce, and the sealed ciphertext (tag included).
type Frame struct {
	Magic      string
	Salt       []byte
	IV         []byte
	Ciphertext []byte
}

// Serialize assembles a frame from its parts into the on-disk byte layout.
func Serialize(magic string, salt, iv, ciphertext []byte) ([]byte, error) {
	if len(magic) != magicSize {
		return nil, vaulterrors.NewFrameError("bad_magic_length")
	}
	if len(salt) != saltSize {
		return nil, vaulterrors.NewFrameError("bad_salt_length")
	}
	if len(iv) != ivSize {
		return nil, vaulterrors.NewFrameError("bad_iv_length")
	}

	buf := make([]byte, 0, magicSize+saltSize+ivSize+len(ciphertext))
	buf = append(buf, []byte(magic)...)
	buf = append(buf, salt...)
	buf = append(buf, iv...)
	buf = append(buf, ciphertext...)
	return buf, nil
}

// Deserialize parses the fixed-offset layout out of raw and validates
// its magic against wantMagic. It does not attempt decryption - a frame
// that parses cleanly may still fail authentication in crypto.Decrypt.
func Deserialize(raw []byte, wantMagic string) (*Frame, error) {
	if len(raw) < MinFrameSize {
		return nil, vaulterrors.NewFrameError("too_short")
	}

	magic := string(raw[:magicSize])
	if magic != wantMagic {
		return nil, vaulterrors.NewFrameError("bad_magic")
	}

	off := magicSize
	salt := raw[off : off+saltSize]
	off += saltSize
	iv := raw[off : off+ivSize]
	off += ivSize
	ciphertext := raw[off:]

	return &Frame{
		Magic:      magic,
		Salt:       salt,
		IV:         iv,
		Ciphertext: ciphertext,
	}, nil
}

// IsEncryptedFrame reports whether raw begins with a recognized magic
// and is at least MinFrameSize bytes long. It performs no decryption and
// is safe to call on untrusted or legacy (unframed) data, which is
// exactly what the migration scanner (C10) uses it for.
func IsEncryptedFrame(raw []byte) bool {
	if len(raw) < MinFrameSize {
		return false
	}
	magic := raw[:magicSize]
	return bytes.Equal(magic, []byte(MagicBlob)) || bytes.Equal(magic, []byte(MagicMetadata))
}
