// Package filestore manages the on-disk blob files that hold the
// encrypted bytes of every uploaded file: storing, retrieving, deleting,
// verifying, and exporting them under <vault_root>/files/<uuid>.enc.
package filestore

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"ghostvault/internal/crypto"
	vaulterrors "ghostvault/internal/errors"
	"ghostvault/internal/frame"
	"ghostvault/internal/log"
	"ghostvault/internal/metadata"
	"ghostvault/internal/securedelete"
)

// Store manages blob files under a single root directory.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created if it
// does not already exist.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, vaulterrors.NewStorageError("mkdir", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the directory the store writes blobs under.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) blobPath(fileID uuid.UUID) string {
	return filepath.Join(s.root, fileID.String()+".enc")
}

// StoreBytes encrypts plaintext under password, writes the resulting
// frame atomically, and returns a populated FileDescriptor. Atomicity:
// the frame is written to a ".tmp" sibling, fsynced, then renamed over
// the final path, so a crash mid-write never leaves a half-written blob
// that would later fail MAGIC validation.
func (s *Store) StoreBytes(plaintext []byte, originalName, password string) (*metadata.FileDescriptor, error) {
	fileID := uuid.New()
	sha := crypto.SHA256(plaintext)

	salt, iv, ciphertext, err := crypto.Encrypt(plaintext, []byte(password))
	if err != nil {
		return nil, err
	}

	raw, err := frame.Serialize(frame.MagicBlob, salt, iv, ciphertext)
	if err != nil {
		return nil, err
	}

	path := s.blobPath(fileID)
	if err := atomicWrite(path, raw); err != nil {
		return nil, err
	}

	desc := &metadata.FileDescriptor{
		FileID:          fileID,
		OriginalName:    originalName,
		BlobName:        fileID.String() + ".enc",
		PlaintextSize:   uint64(len(plaintext)),
		PlaintextSHA256: sha,
		UploadTimeMs:    time.Now().UnixMilli(),
	}

	log.Debug("stored blob", log.String("file_id", fileID.String()), log.Int64("size", int64(len(plaintext))))
	return desc, nil
}

// Retrieve reads, decodes, decrypts, and integrity-checks the blob for
// desc, returning its plaintext bytes.
func (s *Store) Retrieve(desc *metadata.FileDescriptor, password string) ([]byte, error) {
	path := s.blobPath(desc.FileID)
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterrors.ErrNoSuchFile
		}
		return nil, vaulterrors.NewStorageError("read", path, err)
	}

	f, err := frame.Deserialize(raw, frame.MagicBlob)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.Decrypt(f.Salt, f.IV, f.Ciphertext, []byte(password))
	if err != nil {
		return nil, err
	}

	sum := crypto.SHA256(plaintext)
	if sum != desc.PlaintextSHA256 {
		crypto.SecureZero(plaintext)
		return nil, vaulterrors.ErrIntegrityFailed
	}

	return plaintext, nil
}

// Verify behaves like Retrieve but discards the plaintext, returning
// only whether integrity held. The decrypted copy is zeroed as soon as
// the check completes.
func (s *Store) Verify(desc *metadata.FileDescriptor, password string) bool {
	plaintext, err := s.Retrieve(desc, password)
	if err != nil {
		return false
	}
	crypto.SecureZero(plaintext)
	return true
}

// Export retrieves desc's plaintext and writes it to destPath.
func (s *Store) Export(desc *metadata.FileDescriptor, password, destPath string) error {
	plaintext, err := s.Retrieve(desc, password)
	if err != nil {
		return err
	}
	defer crypto.SecureZero(plaintext)

	if err := os.WriteFile(destPath, plaintext, 0600); err != nil {
		return vaulterrors.NewStorageError("write", destPath, err)
	}
	return nil
}

// Delete securely deletes the blob backing desc. A missing blob is not
// an error.
func (s *Store) Delete(desc *metadata.FileDescriptor) error {
	return securedelete.File(s.blobPath(desc.FileID))
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
