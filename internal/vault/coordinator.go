// Package vault ties authentication, key material, and the file and
// metadata stores into the single surface a front-end or CLI consumes:
// init, authenticate, upload, retrieve, delete, list, search, export,
// retag, logout, and the backup/restore delegation.
package vault

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"ghostvault/internal/auth"
	"ghostvault/internal/backup"
	"ghostvault/internal/crypto"
	vaulterrors "ghostvault/internal/errors"
	"ghostvault/internal/filestore"
	"ghostvault/internal/log"
	"ghostvault/internal/metadata"
	"ghostvault/internal/panicwipe"
)

// AuthOutcome is what authenticate() reports to the front-end. Panic
// never surfaces here because the process has already terminated by
// the time a caller could observe the result.
type AuthOutcome int

const (
	AuthInvalid AuthOutcome = iota
	AuthMaster
	AuthDecoy
)

func (o AuthOutcome) String() string {
	switch o {
	case AuthMaster:
		return "master"
	case AuthDecoy:
		return "decoy"
	default:
		return "invalid"
	}
}

// mode tracks which, if any, session is active.
type mode int

const (
	modeLocked mode = iota
	modeMaster
	modeDecoy
)

// DecoyContentProvider supplies the plausible filler view exposed while
// a decoy session is active. The coordinator never calls into the real
// file or metadata stores on its behalf; implementations of this
// interface own their own (fabricated) content entirely.
type DecoyContentProvider interface {
	List() []DecoyEntry
	Retrieve(id string) ([]byte, error)
}

// DecoyEntry describes one entry in the decoy view.
type DecoyEntry struct {
	ID   string
	Name string
	Size uint64
}

// Coordinator is the vault's single entry point. It owns no blobs or
// metadata directly; it holds a weak (non-owning) reference to the
// FileStore and MetadataStore for the duration of the process, and the
// session's authenticated password for the duration of a session.
type Coordinator struct {
	root       string
	dispatcher *auth.Dispatcher
	files      *filestore.Store
	meta       *metadata.Store
	decoy      DecoyContentProvider

	mu              sync.Mutex
	currentMode     mode
	sessionPassword []byte
}

// Open wires a Coordinator to an existing (or not-yet-initialized)
// vault root. Call Init on first use.
func Open(root string, decoy DecoyContentProvider) (*Coordinator, error) {
	dispatcher, err := auth.NewDispatcher(filepath.Join(root, auth.ConfigFileName))
	if err != nil {
		return nil, err
	}
	files, err := filestore.New(filepath.Join(root, "files"))
	if err != nil {
		return nil, err
	}
	meta, err := metadata.New(root)
	if err != nil {
		return nil, err
	}
	return &Coordinator{
		root:       root,
		dispatcher: dispatcher,
		files:      files,
		meta:       meta,
		decoy:      decoy,
	}, nil
}

// Init performs first-time setup: directory layout, C6 password
// initialization, and an empty metadata file encrypted under the
// master password so a subsequent Authenticate(master) has something
// to load.
func (c *Coordinator) Init(master, decoy, panicPw string) error {
	if err := os.MkdirAll(c.files.Root(), 0700); err != nil {
		return vaulterrors.NewStorageError("mkdir", c.files.Root(), err)
	}
	if err := c.dispatcher.SetPasswords(master, decoy, panicPw); err != nil {
		return err
	}
	return c.meta.Save(master)
}

// Authenticate classifies password and transitions the session
// accordingly. PANIC invokes the panic executor and never returns.
func (c *Coordinator) Authenticate(password string) (AuthOutcome, error) {
	role, err := c.dispatcher.Classify(password)
	if err != nil {
		return AuthInvalid, err
	}

	switch role {
	case auth.RoleMaster:
		if err := c.meta.Load(password); err != nil {
			return AuthInvalid, err
		}
		c.mu.Lock()
		c.currentMode = modeMaster
		c.sessionPassword = []byte(password)
		c.mu.Unlock()
		return AuthMaster, nil

	case auth.RoleDecoy:
		c.mu.Lock()
		c.currentMode = modeDecoy
		c.sessionPassword = []byte(password)
		c.mu.Unlock()
		return AuthDecoy, nil

	case auth.RolePanic:
		panicwipe.Execute(c.root)
		panic("unreachable: panicwipe.Execute terminates the process")

	default:
		return AuthInvalid, nil
	}
}

// Upload encrypts the file at path and adds it to the registry.
// Requires an active MASTER session.
func (c *Coordinator) Upload(path string) (uuid.UUID, error) {
	password, err := c.requireMaster()
	if err != nil {
		return uuid.Nil, err
	}

	plaintext, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, vaulterrors.NewStorageError("read", path, err)
	}

	desc, err := c.files.StoreBytes(plaintext, filepath.Base(path), string(password))
	if err != nil {
		return uuid.Nil, err
	}
	c.meta.Registry.Add(desc)

	if err := c.meta.Save(string(password)); err != nil {
		return uuid.Nil, err
	}
	log.Info("uploaded file", log.String("file_id", desc.FileID.String()))
	return desc.FileID, nil
}

// Retrieve decrypts and returns the bytes for id. In a DECOY session it
// routes to the decoy content provider and never touches the real
// blob store.
func (c *Coordinator) Retrieve(id uuid.UUID) ([]byte, error) {
	c.mu.Lock()
	m := c.currentMode
	password := c.sessionPassword
	c.mu.Unlock()

	if m == modeDecoy {
		if c.decoy == nil {
			return nil, vaulterrors.ErrDecoyModeRestricted
		}
		return c.decoy.Retrieve(id.String())
	}
	if m != modeMaster {
		return nil, vaulterrors.ErrNotInitialized
	}

	desc, err := c.meta.Registry.Get(id)
	if err != nil {
		return nil, err
	}
	return c.files.Retrieve(desc, string(password))
}

// Delete removes a file's blob and descriptor. Requires MASTER.
func (c *Coordinator) Delete(id uuid.UUID) error {
	password, err := c.requireMaster()
	if err != nil {
		return err
	}

	desc, err := c.meta.Registry.Get(id)
	if err != nil {
		return err
	}
	if err := c.files.Delete(desc); err != nil {
		return err
	}
	c.meta.Registry.Remove(id)
	return c.meta.Save(string(password))
}

// List returns every descriptor in the real registry under MASTER, or
// the decoy view under DECOY.
func (c *Coordinator) List() ([]*metadata.FileDescriptor, []DecoyEntry, error) {
	c.mu.Lock()
	m := c.currentMode
	c.mu.Unlock()

	switch m {
	case modeMaster:
		return c.meta.Registry.List(), nil, nil
	case modeDecoy:
		if c.decoy == nil {
			return nil, nil, nil
		}
		return nil, c.decoy.List(), nil
	default:
		return nil, nil, vaulterrors.ErrNotInitialized
	}
}

// Search looks up descriptors by substring match. Restricted to MASTER.
func (c *Coordinator) Search(query string) ([]*metadata.FileDescriptor, error) {
	if _, err := c.requireMaster(); err != nil {
		return nil, err
	}
	return c.meta.Registry.Search(query), nil
}

// Export writes id's plaintext to destPath. Restricted to MASTER.
func (c *Coordinator) Export(id uuid.UUID, destPath string) error {
	password, err := c.requireMaster()
	if err != nil {
		return err
	}
	desc, err := c.meta.Registry.Get(id)
	if err != nil {
		return err
	}
	return c.files.Export(desc, string(password), destPath)
}

// Retag updates a descriptor's tags. Restricted to MASTER.
func (c *Coordinator) Retag(id uuid.UUID, tags string) error {
	password, err := c.requireMaster()
	if err != nil {
		return err
	}
	if err := c.meta.Registry.UpdateTags(id, tags); err != nil {
		return err
	}
	return c.meta.Save(string(password))
}

// CreateBackup delegates to the backup archive builder. Restricted to
// MASTER.
func (c *Coordinator) CreateBackup(outputPath string, opts backup.Options, backupKey string) error {
	if _, err := c.requireMaster(); err != nil {
		return err
	}
	return backup.CreateBackup(c.files, c.meta, c.root, outputPath, opts, backupKey)
}

// VerifyBackup checks a backup archive's integrity without touching
// the live vault. Available regardless of session mode.
func (c *Coordinator) VerifyBackup(path, backupKey string) (*backup.Manifest, error) {
	return backup.VerifyBackup(path, backupKey)
}

// RestoreBackup delegates to the backup restore routine. Restricted to
// MASTER.
func (c *Coordinator) RestoreBackup(path string, opts backup.Options, backupKey string) (*backup.RestoreResult, error) {
	password, err := c.requireMaster()
	if err != nil {
		return nil, err
	}
	result, err := backup.RestoreBackup(c.files, c.meta, c.root, path, opts, backupKey)
	if err != nil {
		return nil, err
	}
	if err := c.meta.Load(string(password)); err != nil {
		return nil, err
	}
	return result, nil
}

// Logout zeroizes the session key and clears the in-memory registry.
func (c *Coordinator) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	crypto.SecureZero(c.sessionPassword)
	c.sessionPassword = nil
	c.currentMode = modeLocked
	c.meta.Registry.Clear()
}

// Files returns the coordinator's FileStore, for components (backup,
// migration) that need to operate on blobs directly.
func (c *Coordinator) Files() *filestore.Store { return c.files }

// Meta returns the coordinator's MetadataStore.
func (c *Coordinator) Meta() *metadata.Store { return c.meta }

// Root returns the vault root directory.
func (c *Coordinator) Root() string { return c.root }

func (c *Coordinator) requireMaster() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.currentMode == modeDecoy {
		return nil, vaulterrors.ErrDecoyModeRestricted
	}
	if c.currentMode != modeMaster {
		return nil, vaulterrors.ErrNotInitialized
	}
	return c.sessionPassword, nil
}
