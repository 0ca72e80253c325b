package migration

import (
	"os"
	"path/filepath"
	"testing"

	"ghostvault/internal/frame"
)

const testPassword = "correct horse battery staple"

func newLegacyVault(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	filesDir := filepath.Join(root, "files")
	if err := os.MkdirAll(filesDir, 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(filesDir, "legacy-one.dat"), []byte("plaintext contents one"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(filesDir, "legacy-two.dat"), []byte("plaintext contents two"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return root
}

func TestScanFindsLegacyFiles(t *testing.T) {
	root := newLegacyVault(t)

	paths, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(paths) != 2 {
		t.Errorf("Scan found %d legacy files; want 2", len(paths))
	}
}

func TestScanSkipsAlreadyFramedFiles(t *testing.T) {
	root := newLegacyVault(t)

	if _, err := Migrate(root, testPassword); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	paths, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("Scan after migration found %d legacy files; want 0", len(paths))
	}
}

func TestMigrateEncryptsInPlaceAndVerifies(t *testing.T) {
	root := newLegacyVault(t)

	result, err := Migrate(root, testPassword)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if result.Status != Success {
		t.Fatalf("Status = %v; want Success", result.Status)
	}
	if result.SuccessCount != 2 || result.TotalCount != 2 {
		t.Errorf("SuccessCount/TotalCount = %d/%d; want 2/2", result.SuccessCount, result.TotalCount)
	}

	raw, err := os.ReadFile(filepath.Join(root, "files", "legacy-one.dat"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !frame.IsEncryptedFrame(raw) {
		t.Error("migrated file does not sniff as framed")
	}
}

func TestMigrateOnCleanVaultIsNoop(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "files"), 0700); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	result, err := Migrate(root, testPassword)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if result.Status != Success || result.TotalCount != 0 {
		t.Errorf("result = %+v; want Success with TotalCount 0", result)
	}
}

func TestRollbackRestoresSnapshot(t *testing.T) {
	root := newLegacyVault(t)
	original, err := os.ReadFile(filepath.Join(root, "files", "legacy-one.dat"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	result, err := Migrate(root, testPassword)
	if err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	if err := Rollback(result.SnapshotPath, root); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	restored, err := os.ReadFile(filepath.Join(root, "files", "legacy-one.dat"))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(restored) != string(original) {
		t.Errorf("restored content = %q; want %q", restored, original)
	}
}
