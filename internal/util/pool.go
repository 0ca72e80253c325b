package util

import (
	"sync"
)

// BufferPool provides reusable byte buffers to reduce GC pressure
// during large file operations. Buffers are securely zeroed before
// being returned to the pool.
type BufferPool struct {
	pool sync.Pool
	size int
}

// NewBufferPool creates a new buffer pool with the specified buffer size.
func NewBufferPool(size int) *BufferPool {
	return &BufferPool{
		size: size,
		pool: sync.Pool{
			New: func() any {
				b := make([]byte, size)
				return &b
			},
		},
	}
}

// Get retrieves a buffer from the pool.
// The buffer contents are undefined and should be overwritten.
func (p *BufferPool) Get() []byte {
	return *p.pool.Get().(*[]byte)
}

// Put returns a buffer to the pool after securely zeroing it.
// The buffer should not be used after calling Put.
func (p *BufferPool) Put(b []byte) {
	if len(b) != p.size {
		// Don't return mismatched buffers to avoid corruption
		return
	}
	// Secure zero before returning to pool
	secureZeroBytes(b)
	p.pool.Put(&b)
}

// secureZeroBytes zeros a byte slice in a way that won't be optimized away.
// This is a simplified version - the full SecureZero is in crypto package.
func secureZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// OverwritePool provides 8 KiB buffers for secure-delete overwrite
// passes (zero fill, 0xFF fill, random fill) — the only buffer size this
// vault actually recycles, since spec.md excludes streaming encryption of
// files too large to hold in memory.
var OverwritePool = NewBufferPool(8 * 1024)

// GetOverwriteBuffer gets an 8 KiB buffer from the default overwrite pool.
func GetOverwriteBuffer() []byte {
	return OverwritePool.Get()
}

// PutOverwriteBuffer returns an 8 KiB buffer to the default overwrite pool.
func PutOverwriteBuffer(b []byte) {
	OverwritePool.Put(b)
}
