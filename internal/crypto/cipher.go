package crypto

import (
	"crypto/aes"
	"crypto/cipher"

	vaulterrors "ghostvault/internal/errors"
)

// Encrypt derives a key from password using a fresh salt, generates a
// fresh nonce, and seals plaintext with AES-256-GCM under an empty AAD.
// It returns the salt, nonce and ciphertext (tag appended) separately so
// the caller can assemble them into a frame.
func Encrypt(plaintext, password []byte) (salt, nonce, ciphertext []byte, err error) {
	salt, err = SecureRandom(SaltSize)
	if err != nil {
		return nil, nil, nil, vaulterrors.NewCryptoError("rand", err)
	}

	nonce, err = SecureRandom(NonceSize)
	if err != nil {
		return nil, nil, nil, vaulterrors.NewCryptoError("rand", err)
	}

	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, nil, nil, vaulterrors.NewCryptoError("derive_key", err)
	}
	defer SecureZero(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, nil, vaulterrors.NewCryptoError("cipher_init", err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return salt, nonce, ciphertext, nil
}

// Decrypt derives a key from password and salt, then opens ciphertext
// with AES-256-GCM. A tag mismatch and a derive/init failure are both
// reported as ErrAuthenticationFailed: the caller must not be able to
// distinguish "wrong password" from "corrupted ciphertext".
func Decrypt(salt, nonce, ciphertext, password []byte) ([]byte, error) {
	key, err := DeriveKey(password, salt)
	if err != nil {
		return nil, vaulterrors.ErrAuthenticationFailed
	}
	defer SecureZero(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, vaulterrors.ErrAuthenticationFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, vaulterrors.ErrAuthenticationFailed
	}

	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
