package vault

import (
	"os"
	"path/filepath"
	"testing"

	vaulterrors "ghostvault/internal/errors"
)

const (
	testMaster = "Correct-Horse-99"
	testDecoy  = "Battery-Staple-42"
	testPanic  = "Xk7!mQvz29Lp"
)

type fakeDecoyProvider struct {
	entries []DecoyEntry
	content map[string][]byte
}

func (f *fakeDecoyProvider) List() []DecoyEntry { return f.entries }

func (f *fakeDecoyProvider) Retrieve(id string) ([]byte, error) {
	b, ok := f.content[id]
	if !ok {
		return nil, vaulterrors.ErrNoSuchFile
	}
	return b, nil
}

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	root := filepath.Join(t.TempDir(), "vault")
	decoy := &fakeDecoyProvider{
		entries: []DecoyEntry{{ID: "d1", Name: "vacation.jpg", Size: 4096}},
		content: map[string][]byte{"d1": []byte("fake vacation photo bytes")},
	}
	c, err := Open(root, decoy)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := c.Init(testMaster, testDecoy, testPanic); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return c
}

func TestUploadRetrieveRoundtrip(t *testing.T) {
	c := newTestCoordinator(t)

	outcome, err := c.Authenticate(testMaster)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if outcome != AuthMaster {
		t.Fatalf("Authenticate = %v; want AuthMaster", outcome)
	}

	srcPath := filepath.Join(t.TempDir(), "report.txt")
	contents := []byte("A")
	if err := os.WriteFile(srcPath, contents, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	id, err := c.Upload(srcPath)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	got, err := c.Retrieve(id)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if string(got) != string(contents) {
		t.Errorf("Retrieve = %q; want %q", got, contents)
	}

	descs, decoyEntries, err := c.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(descs) != 1 || decoyEntries != nil {
		t.Errorf("List() = %d descs, %d decoy entries; want 1, 0", len(descs), len(decoyEntries))
	}
}

func TestDecoyModeIsolation(t *testing.T) {
	c := newTestCoordinator(t)

	// Populate a real file under master first.
	if _, err := c.Authenticate(testMaster); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	srcPath := filepath.Join(t.TempDir(), "real.txt")
	os.WriteFile(srcPath, []byte("real secret"), 0600)
	realID, err := c.Upload(srcPath)
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	c.Logout()

	outcome, err := c.Authenticate(testDecoy)
	if err != nil {
		t.Fatalf("Authenticate(decoy) failed: %v", err)
	}
	if outcome != AuthDecoy {
		t.Fatalf("Authenticate(decoy) = %v; want AuthDecoy", outcome)
	}

	descs, decoyEntries, err := c.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if descs != nil {
		t.Error("List() under decoy mode must not expose real descriptors")
	}
	if len(decoyEntries) != 1 || decoyEntries[0].ID != "d1" {
		t.Errorf("List() decoy entries = %+v; want the fake d1 entry", decoyEntries)
	}

	if _, err := c.Retrieve(realID); err == nil {
		t.Error("Retrieve(realID) under decoy mode must not succeed")
	}

	if _, err := c.Upload(srcPath); !vaulterrors.Is(err, vaulterrors.ErrDecoyModeRestricted) {
		t.Errorf("Upload under decoy mode: err = %v; want ErrDecoyModeRestricted", err)
	}
	if err := c.Delete(realID); !vaulterrors.Is(err, vaulterrors.ErrDecoyModeRestricted) {
		t.Errorf("Delete under decoy mode: err = %v; want ErrDecoyModeRestricted", err)
	}
}

func TestAuthenticateInvalidPassword(t *testing.T) {
	c := newTestCoordinator(t)
	outcome, err := c.Authenticate("not-a-configured-password")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if outcome != AuthInvalid {
		t.Errorf("Authenticate = %v; want AuthInvalid", outcome)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	c := newTestCoordinator(t)
	if _, err := c.Authenticate(testMaster); err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	c.Logout()

	if _, err := c.Search("anything"); !vaulterrors.Is(err, vaulterrors.ErrNotInitialized) {
		t.Errorf("Search after logout: err = %v; want ErrNotInitialized", err)
	}
}
