package crypto

import "testing"

// BenchmarkDeriveKey measures PBKDF2-HMAC-SHA256 key derivation at the
// production iteration count. This is intentionally slow for security.
func BenchmarkDeriveKey(b *testing.B) {
	password := []byte("test-password-123")
	salt := make([]byte, SaltSize)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DeriveKey(password, salt)
	}
}

// BenchmarkEncrypt measures AES-256-GCM sealing, including key derivation.
func BenchmarkEncrypt(b *testing.B) {
	password := []byte("test-password-123")
	data := make([]byte, 1<<20) // 1 MiB

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		_, _, _, _ = Encrypt(data, password)
	}
}

// BenchmarkSecureZero measures secure memory zeroing performance.
func BenchmarkSecureZero(b *testing.B) {
	data := make([]byte, 32) // Typical key size

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SecureZero(data)
	}
}

// BenchmarkSecureZeroLarge measures secure zeroing of larger buffers.
func BenchmarkSecureZeroLarge(b *testing.B) {
	data := make([]byte, 1<<20) // 1 MiB

	b.ResetTimer()
	b.SetBytes(int64(len(data)))
	for i := 0; i < b.N; i++ {
		SecureZero(data)
	}
}
