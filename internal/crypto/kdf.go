// Package crypto provides the cryptographic primitives for GhostVault:
// key derivation, authenticated encryption, hashing, and secure random
// generation. This is AUDIT-CRITICAL code - changes here directly affect
// encryption/decryption of every vault artifact.
package crypto

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// KDF parameters.
//
// CRITICAL: these values MUST NOT change. Existing vaults derive their
// role keys with exactly these parameters; changing them makes every
// vault created under the old parameters permanently undecryptable.
const (
	PBKDF2Iterations = 100000
	KeySize          = 32 // AES-256
	SaltSize         = 32
	NonceSize        = 12 // AES-GCM standard nonce size
)

// SecureRandom generates n cryptographically secure random bytes.
func SecureRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("fatal crypto/rand error: %w", err)
	}

	// Sanity check: bytes should not be all zeros. A correct CSPRNG will
	// essentially never produce this; seeing it means rand itself is broken.
	allZero := true
	for _, v := range b {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, fmt.Errorf("fatal crypto/rand error: produced zero bytes")
	}

	return b, nil
}

// DeriveKey derives a 32-byte AES-256 key from password and salt using
// PBKDF2-HMAC-SHA256 at PBKDF2Iterations rounds.
func DeriveKey(password, salt []byte) ([]byte, error) {
	key := pbkdf2.Key(password, salt, PBKDF2Iterations, KeySize, sha256.New)

	// Sanity check: key should not be all zeros.
	if bytes.Equal(key, make([]byte, KeySize)) {
		return nil, fmt.Errorf("fatal pbkdf2 error: produced zero key")
	}

	return key, nil
}

// SHA256 returns the SHA-256 digest of b.
func SHA256(b []byte) [32]byte {
	return sha256.Sum256(b)
}
