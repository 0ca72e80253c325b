// Package metadata implements the in-memory file registry and its
// encrypted on-disk persistence: the primary metadata file, a rolling
// backup ring, and the load/recovery state machine.
package metadata

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	vaulterrors "ghostvault/internal/errors"
)

// FileDescriptor is the metadata record for one uploaded file. It is
// mutated only by a tag-edit, and destroyed (along with its blob) by
// delete.
type FileDescriptor struct {
	FileID          uuid.UUID `json:"file_id"`
	OriginalName    string    `json:"original_name"`
	BlobName        string    `json:"blob_name"`
	PlaintextSize   uint64    `json:"plaintext_size"`
	PlaintextSHA256 [32]byte  `json:"plaintext_sha256"`
	UploadTimeMs    int64     `json:"upload_time_ms"`
	Tags            string    `json:"tags,omitempty"`
	MimeType        string    `json:"mime_type,omitempty"`
}

// Registry is the in-memory file_id -> FileDescriptor map. It is safe
// for concurrent use; GhostVault is single-process but the CLI and a
// future host surface may share one Registry across goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*FileDescriptor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[uuid.UUID]*FileDescriptor)}
}

// Add inserts desc, keyed by its FileID.
func (r *Registry) Add(desc *FileDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[desc.FileID] = desc
}

// Remove deletes the descriptor for id, if present.
func (r *Registry) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// UpdateTags sets tags on the descriptor for id.
func (r *Registry) UpdateTags(id uuid.UUID, tags string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	desc, ok := r.entries[id]
	if !ok {
		return vaulterrors.ErrNoSuchFile
	}
	desc.Tags = tags
	return nil
}

// Get returns the descriptor for id.
func (r *Registry) Get(id uuid.UUID) (*FileDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.entries[id]
	if !ok {
		return nil, vaulterrors.ErrNoSuchFile
	}
	return desc, nil
}

// List returns every descriptor in the registry, in no particular order.
func (r *Registry) List() []*FileDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*FileDescriptor, 0, len(r.entries))
	for _, desc := range r.entries {
		out = append(out, desc)
	}
	return out
}

// Search returns every descriptor whose OriginalName or Tags contains
// query as a case-insensitive substring.
func (r *Registry) Search(query string) []*FileDescriptor {
	q := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*FileDescriptor
	for _, desc := range r.entries {
		if strings.Contains(strings.ToLower(desc.OriginalName), q) ||
			strings.Contains(strings.ToLower(desc.Tags), q) {
			out = append(out, desc)
		}
	}
	return out
}

// GetByExtension returns every descriptor whose OriginalName has the
// given extension (e.g. ".txt"; the leading dot is optional).
func (r *Registry) GetByExtension(ext string) []*FileDescriptor {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	ext = strings.ToLower(ext)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*FileDescriptor
	for _, desc := range r.entries {
		if strings.ToLower(filepath.Ext(desc.OriginalName)) == ext {
			out = append(out, desc)
		}
	}
	return out
}

// TotalSize sums PlaintextSize across every descriptor.
func (r *Registry) TotalSize() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var total uint64
	for _, desc := range r.entries {
		total += desc.PlaintextSize
	}
	return total
}

// Count returns the number of descriptors in the registry.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear empties the registry, used on logout to drop the in-memory
// session view without touching anything on disk.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[uuid.UUID]*FileDescriptor)
}

// replaceAll atomically swaps the registry's contents, used when
// loading a freshly decrypted snapshot from disk.
func (r *Registry) replaceAll(entries map[uuid.UUID]*FileDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
}

// snapshot returns a shallow copy of the map suitable for serialization.
func (r *Registry) snapshot() map[uuid.UUID]*FileDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[uuid.UUID]*FileDescriptor, len(r.entries))
	for k, v := range r.entries {
		out[k] = v
	}
	return out
}
