package auth

import (
	"path/filepath"
	"testing"
	"time"

	vaulterrors "ghostvault/internal/errors"
)

const (
	testMaster = "Correct-Horse-99"
	testDecoy  = "Battery-Staple-42"
	testPanic  = "Xk7!mQvz29Lp"
)

func newTestDispatcher(t *testing.T) *Dispatcher {
	t.Helper()
	path := filepath.Join(t.TempDir(), "passwords.json")
	d, err := NewDispatcher(path)
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}
	return d
}

func TestSetPasswordsRejectsNonDistinct(t *testing.T) {
	d := newTestDispatcher(t)
	err := d.SetPasswords(testMaster, testMaster, testPanic)
	if !vaulterrors.Is(err, vaulterrors.ErrPasswordsNotDistinct) {
		t.Fatalf("err = %v; want ErrPasswordsNotDistinct", err)
	}
}

func TestSetPasswordsRejectsWeak(t *testing.T) {
	d := newTestDispatcher(t)
	err := d.SetPasswords("short", testDecoy, testPanic)
	if !vaulterrors.Is(err, vaulterrors.ErrPasswordTooWeak) {
		t.Fatalf("err = %v; want ErrPasswordTooWeak", err)
	}
}

func TestClassifyEachRole(t *testing.T) {
	d := newTestDispatcher(t)
	if err := d.SetPasswords(testMaster, testDecoy, testPanic); err != nil {
		t.Fatalf("SetPasswords failed: %v", err)
	}

	cases := []struct {
		password string
		want     Role
	}{
		{testMaster, RoleMaster},
		{testDecoy, RoleDecoy},
		{testPanic, RolePanic},
		{"not-a-configured-password", RoleInvalid},
	}

	for _, tc := range cases {
		role, err := d.Classify(tc.password)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", tc.password, err)
		}
		if role != tc.want {
			t.Errorf("Classify(%q) = %v; want %v", tc.password, role, tc.want)
		}
	}
}

func TestClassifyPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passwords.json")
	d, err := NewDispatcher(path)
	if err != nil {
		t.Fatalf("NewDispatcher failed: %v", err)
	}
	if err := d.SetPasswords(testMaster, testDecoy, testPanic); err != nil {
		t.Fatalf("SetPasswords failed: %v", err)
	}

	reloaded, err := NewDispatcher(path)
	if err != nil {
		t.Fatalf("NewDispatcher (reload) failed: %v", err)
	}
	role, err := reloaded.Classify(testMaster)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if role != RoleMaster {
		t.Errorf("Classify(master) after reload = %v; want RoleMaster", role)
	}
}

func TestClassifyLockoutAfterConsecutiveFailures(t *testing.T) {
	d := newTestDispatcher(t)
	if err := d.SetPasswords(testMaster, testDecoy, testPanic); err != nil {
		t.Fatalf("SetPasswords failed: %v", err)
	}

	for i := 0; i < maxFailCount; i++ {
		role, err := d.Classify("wrong-password")
		if err != nil {
			t.Fatalf("Classify failure %d returned error: %v", i, err)
		}
		if role != RoleInvalid {
			t.Fatalf("Classify failure %d = %v; want RoleInvalid", i, role)
		}
	}

	// Now locked out; even the correct master password must report
	// RoleInvalid with ErrLocked.
	role, err := d.Classify(testMaster)
	if role != RoleInvalid {
		t.Errorf("Classify while locked = %v; want RoleInvalid", role)
	}
	if !vaulterrors.IsLocked(err) {
		t.Errorf("err = %v; want ErrLocked", err)
	}
}

func TestClassifyLockoutExtends(t *testing.T) {
	d := newTestDispatcher(t)
	if err := d.SetPasswords(testMaster, testDecoy, testPanic); err != nil {
		t.Fatalf("SetPasswords failed: %v", err)
	}

	for i := 0; i < maxFailCount; i++ {
		d.Classify("wrong-password")
	}

	d.mu.Lock()
	firstLockUntil := d.lockUntil
	d.lockUntil = time.Now().Add(-time.Millisecond) // force expiry for the test
	d.mu.Unlock()

	// One more failure after the lock nominally expired should
	// re-lock with a longer duration than the first lockout.
	d.Classify("wrong-password")

	d.mu.Lock()
	secondDuration := d.lockDuration
	d.mu.Unlock()

	if secondDuration <= baseLockDuration {
		t.Errorf("lockDuration after second lockout = %v; want > %v", secondDuration, baseLockDuration)
	}
	_ = firstLockUntil
}

func TestClassifyBeforeSetPasswords(t *testing.T) {
	d := newTestDispatcher(t)
	_, err := d.Classify(testMaster)
	if !vaulterrors.Is(err, vaulterrors.ErrNotInitialized) {
		t.Fatalf("err = %v; want ErrNotInitialized", err)
	}
}

func TestGenerateRolePasswordsDistinctAndStrong(t *testing.T) {
	master, decoy, panicPw, err := GenerateRolePasswords()
	if err != nil {
		t.Fatalf("GenerateRolePasswords failed: %v", err)
	}

	for _, pw := range []string{master, decoy, panicPw} {
		if len(pw) != generatedPasswordLength {
			t.Errorf("generated password length = %d; want %d", len(pw), generatedPasswordLength)
		}
		if err := checkStrength(pw); err != nil {
			t.Errorf("generated password failed checkStrength: %v", err)
		}
	}

	if master == decoy || master == panicPw || decoy == panicPw {
		t.Errorf("generated passwords not pairwise distinct: %q %q %q", master, decoy, panicPw)
	}
}

func TestGenerateRolePasswordsAcceptedBySetPasswords(t *testing.T) {
	d := newTestDispatcher(t)
	master, decoy, panicPw, err := GenerateRolePasswords()
	if err != nil {
		t.Fatalf("GenerateRolePasswords failed: %v", err)
	}
	if err := d.SetPasswords(master, decoy, panicPw); err != nil {
		t.Fatalf("SetPasswords rejected a generated password set: %v", err)
	}
}
