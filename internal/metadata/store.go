package metadata

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ghostvault/internal/crypto"
	vaulterrors "ghostvault/internal/errors"
	"ghostvault/internal/frame"
	"ghostvault/internal/log"
	"ghostvault/internal/securedelete"
)

// LoadState models the metadata store's lifecycle, per the component's
// load/recovery design: Unloaded -> Loading -> {Loaded, Recovering};
// Recovering -> {Loaded, Unrecoverable}. Unrecoverable is terminal and
// requires re-initialization of the store.
type LoadState int

const (
	Unloaded LoadState = iota
	Loading
	Loaded
	Recovering
	Unrecoverable
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Recovering:
		return "recovering"
	case Unrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

const (
	primaryFileName = "metadata.enc"
	backupPrefix    = "metadata.backup."
	corruptPrefix   = "metadata.corrupt."
	maxBackups      = 5
)

// Store persists a Registry under dir, with an encrypted primary file
// and a rolling ring of timestamped backups.
type Store struct {
	dir      string
	Registry *Registry
	state    LoadState
}

// New returns a Store rooted at dir with an empty, unloaded Registry.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, vaulterrors.NewStorageError("mkdir", dir, err)
	}
	return &Store{dir: dir, Registry: NewRegistry(), state: Unloaded}, nil
}

// State returns the store's current load state.
func (s *Store) State() LoadState {
	return s.state
}

func (s *Store) primaryPath() string {
	return filepath.Join(s.dir, primaryFileName)
}

// Load decrypts the primary metadata file and replaces the in-memory
// registry. If the primary is missing, corrupt, or fails to decrypt, it
// walks the backup ring newest-first and restores the first backup that
// decrypts successfully, preserving the broken primary alongside it.
func (s *Store) Load(password string) error {
	s.state = Loading

	if entries, err := s.loadFile(s.primaryPath(), password); err == nil {
		s.Registry.replaceAll(entries)
		s.state = Loaded
		return nil
	}

	s.state = Recovering
	if err := s.preservePrimary(); err != nil {
		log.Warn("failed to preserve corrupt primary metadata", log.Err(err))
	}

	for _, backup := range s.backupsNewestFirst() {
		entries, err := s.loadFile(backup, password)
		if err != nil {
			continue
		}
		s.Registry.replaceAll(entries)
		if err := copyFile(backup, s.primaryPath()); err != nil {
			log.Warn("failed to restore backup as primary", log.String("backup", backup), log.Err(err))
		}
		s.state = Loaded
		return nil
	}

	s.state = Unrecoverable
	s.Registry.replaceAll(map[uuid.UUID]*FileDescriptor{})
	return vaulterrors.ErrUnrecoverableMetadata
}

// Save backs up the existing primary, enforces the backup ring policy,
// then encrypts and atomically writes the current registry as the new
// primary.
func (s *Store) Save(password string) error {
	if err := s.rotateBackup(); err != nil {
		log.Warn("failed to rotate metadata backup", log.Err(err))
	}
	if err := s.enforceRingPolicy(); err != nil {
		log.Warn("failed to enforce metadata backup ring policy", log.Err(err))
	}

	plaintext, err := json.Marshal(s.Registry.snapshot())
	if err != nil {
		return vaulterrors.NewMetadataError("save", err)
	}
	defer crypto.SecureZero(plaintext)

	salt, iv, ciphertext, err := crypto.Encrypt(plaintext, []byte(password))
	if err != nil {
		return vaulterrors.NewMetadataError("save", err)
	}

	raw, err := frame.Serialize(frame.MagicMetadata, salt, iv, ciphertext)
	if err != nil {
		return vaulterrors.NewMetadataError("save", err)
	}

	if err := atomicWrite(s.primaryPath(), raw); err != nil {
		return vaulterrors.NewMetadataError("save", err)
	}

	s.state = Loaded
	return nil
}

func (s *Store) loadFile(path, password string) (map[uuid.UUID]*FileDescriptor, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, vaulterrors.NewMetadataError("load", err)
	}

	f, err := frame.Deserialize(raw, frame.MagicMetadata)
	if err != nil {
		return nil, err
	}

	plaintext, err := crypto.Decrypt(f.Salt, f.IV, f.Ciphertext, []byte(password))
	if err != nil {
		return nil, err
	}
	defer crypto.SecureZero(plaintext)

	var entries map[uuid.UUID]*FileDescriptor
	if err := json.Unmarshal(plaintext, &entries); err != nil {
		return nil, vaulterrors.NewMetadataError("load", err)
	}
	return entries, nil
}

func (s *Store) preservePrimary() error {
	primary := s.primaryPath()
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		return nil
	}
	dest := filepath.Join(s.dir, corruptPrefix+timestamp())
	return copyFile(primary, dest)
}

func (s *Store) rotateBackup() error {
	primary := s.primaryPath()
	if _, err := os.Stat(primary); os.IsNotExist(err) {
		return nil
	}
	dest := filepath.Join(s.dir, backupPrefix+timestamp())
	return copyFile(primary, dest)
}

func (s *Store) enforceRingPolicy() error {
	backups := s.backupsNewestFirst()
	if len(backups) <= maxBackups {
		return nil
	}
	for _, stale := range backups[maxBackups:] {
		if err := securedelete.File(stale); err != nil {
			return err
		}
	}
	return nil
}

// backupsNewestFirst returns backup file paths sorted by their embedded
// timestamp, newest first.
func (s *Store) backupsNewestFirst() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil
	}

	var backups []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), backupPrefix) {
			backups = append(backups, filepath.Join(s.dir, e.Name()))
		}
	}

	sort.Slice(backups, func(i, j int) bool {
		return backupTimestamp(backups[i]) > backupTimestamp(backups[j])
	})
	return backups
}

func backupTimestamp(path string) int64 {
	name := filepath.Base(path)
	ts := strings.TrimPrefix(name, backupPrefix)
	n, _ := strconv.ParseInt(ts, 10, 64)
	return n
}

func timestamp() string {
	return strconv.FormatInt(time.Now().UnixNano(), 10)
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return atomicWrite(dst, data)
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
