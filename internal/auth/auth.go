package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	zxcvbn "github.com/Picocrypt/zxcvbn-go"

	"ghostvault/internal/crypto"
	vaulterrors "ghostvault/internal/errors"
)

const (
	minPasswordLength = 12
	minStrengthScore  = 2
	maxFailCount      = 5
	baseLockDuration  = 30 * time.Second

	// generatedPasswordLength is long enough that a password built from
	// generatedCharset almost always clears minStrengthScore on zxcvbn's
	// scale on the first draw; generatePassword redraws when it does not.
	generatedPasswordLength = 28
	generatedCharset        = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-=_+!@#$^&()?<>"
)

// ConfigFileName is the conventional password-config filename under a
// vault root.
const ConfigFileName = "config.enc"

// roleEntry is one role's persisted verifier: a salt plus the PBKDF2
// output of the role's password under that salt. The password itself
// is never stored.
type roleEntry struct {
	Salt     []byte `json:"salt"`
	Verifier []byte `json:"verifier"`
}

// config is the on-disk password configuration. It is stored as plain
// JSON, not wrapped in a further encryption layer: encrypting it would
// require a key derived from a password this file is itself meant to
// validate.
type config struct {
	Master roleEntry `json:"master"`
	Decoy  roleEntry `json:"decoy"`
	Panic  roleEntry `json:"panic"`
}

// Dispatcher classifies candidate passwords against the configured
// master, decoy, and panic passwords, and tracks consecutive failures
// for lockout.
type Dispatcher struct {
	configPath string

	mu           sync.Mutex
	cfg          *config
	failCount    int
	lockUntil    time.Time
	lockDuration time.Duration
}

// NewDispatcher loads an existing password config at configPath, if
// one exists, or returns an unconfigured Dispatcher otherwise.
func NewDispatcher(configPath string) (*Dispatcher, error) {
	d := &Dispatcher{configPath: configPath}

	raw, err := os.ReadFile(configPath)
	if os.IsNotExist(err) {
		return d, nil
	}
	if err != nil {
		return nil, vaulterrors.NewStorageError("read", configPath, err)
	}

	var cfg config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, vaulterrors.NewValidationError("config", "malformed password config")
	}
	d.cfg = &cfg
	return d, nil
}

// SetPasswords validates and persists the master, decoy, and panic
// passwords. All three must be pairwise distinct and meet the minimum
// strength requirement.
func (d *Dispatcher) SetPasswords(master, decoy, panicPw string) error {
	for _, pw := range []string{master, decoy, panicPw} {
		if err := checkStrength(pw); err != nil {
			return err
		}
	}
	if master == decoy || master == panicPw || decoy == panicPw {
		return vaulterrors.ErrPasswordsNotDistinct
	}

	masterEntry, err := newRoleEntry(master)
	if err != nil {
		return err
	}
	decoyEntry, err := newRoleEntry(decoy)
	if err != nil {
		return err
	}
	panicEntry, err := newRoleEntry(panicPw)
	if err != nil {
		return err
	}

	cfg := &config{Master: masterEntry, Decoy: decoyEntry, Panic: panicEntry}
	raw, err := json.Marshal(cfg)
	if err != nil {
		return vaulterrors.NewValidationError("config", "failed to marshal password config")
	}
	if err := os.WriteFile(d.configPath, raw, 0600); err != nil {
		return vaulterrors.NewStorageError("write", d.configPath, err)
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	return nil
}

// Classify reports which role, if any, candidate matches. While locked
// out, it returns RoleInvalid and ErrLocked even for a correct password.
func (d *Dispatcher) Classify(candidate string) (Role, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cfg == nil {
		return RoleInvalid, vaulterrors.ErrNotInitialized
	}

	if !d.lockUntil.IsZero() && time.Now().Before(d.lockUntil) {
		return RoleInvalid, vaulterrors.ErrLocked
	}

	matchMaster := verifyEntry(d.cfg.Master, candidate)
	matchDecoy := verifyEntry(d.cfg.Decoy, candidate)
	matchPanic := verifyEntry(d.cfg.Panic, candidate)

	role := RoleInvalid
	switch {
	case matchMaster:
		role = RoleMaster
	case matchDecoy:
		role = RoleDecoy
	case matchPanic:
		role = RolePanic
	}

	if role == RoleInvalid {
		d.failCount++
		if d.failCount >= maxFailCount {
			d.extendLockout()
		}
		return RoleInvalid, nil
	}

	d.failCount = 0
	d.lockDuration = 0
	d.lockUntil = time.Time{}
	return role, nil
}

// extendLockout sets or extends the lockout window. Each lockout
// triggered while already in, or just past, a prior lockout doubles
// the previous duration, so repeated guessing sprees keep growing the
// wait instead of resetting to the floor every time.
func (d *Dispatcher) extendLockout() {
	if d.lockDuration == 0 {
		d.lockDuration = baseLockDuration
	} else {
		d.lockDuration *= 2
	}
	d.lockUntil = time.Now().Add(d.lockDuration)
}

// GenerateRolePasswords produces three independent, high-entropy
// passwords for the master, decoy, and panic roles, for operators who
// want to record them in a separate password manager instead of typing
// their own. Each is drawn from generatedCharset and re-verified against
// checkStrength before being returned, so a generated password can never
// fail the same gate SetPasswords applies to a typed one.
func GenerateRolePasswords() (master, decoy, panicPw string, err error) {
	if master, err = generatePassword(); err != nil {
		return "", "", "", err
	}
	if decoy, err = generatePassword(); err != nil {
		return "", "", "", err
	}
	if panicPw, err = generatePassword(); err != nil {
		return "", "", "", err
	}
	return master, decoy, panicPw, nil
}

// generatePassword draws a generatedPasswordLength password from
// generatedCharset using crypto/rand, retrying on the rare draw that
// doesn't clear checkStrength (e.g. a skewed sample zxcvbn scores low).
func generatePassword() (string, error) {
	for {
		buf := make([]byte, generatedPasswordLength)
		for i := range buf {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(generatedCharset))))
			if err != nil {
				return "", err
			}
			buf[i] = generatedCharset[n.Int64()]
		}
		candidate := string(buf)
		if checkStrength(candidate) == nil {
			return candidate, nil
		}
	}
}

func newRoleEntry(password string) (roleEntry, error) {
	salt, err := crypto.SecureRandom(crypto.SaltSize)
	if err != nil {
		return roleEntry{}, err
	}
	verifier, err := crypto.DeriveKey([]byte(password), salt)
	if err != nil {
		return roleEntry{}, err
	}
	return roleEntry{Salt: salt, Verifier: verifier}, nil
}

func verifyEntry(entry roleEntry, candidate string) bool {
	if len(entry.Salt) == 0 {
		return false
	}
	derived, err := crypto.DeriveKey([]byte(candidate), entry.Salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(derived, entry.Verifier) == 1
}

// checkStrength rejects passwords shorter than the minimum length or
// scoring below minStrengthScore on zxcvbn's 0-4 scale.
func checkStrength(password string) error {
	if len(password) < minPasswordLength {
		return vaulterrors.ErrPasswordTooWeak
	}
	if !hasMixedClasses(password) {
		return vaulterrors.ErrPasswordTooWeak
	}
	if zxcvbn.PasswordStrength(password, nil).Score < minStrengthScore {
		return vaulterrors.ErrPasswordTooWeak
	}
	return nil
}

func hasMixedClasses(password string) bool {
	var hasLower, hasUpper, hasDigit, hasOther bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case !strings.ContainsRune(" ", r):
			hasOther = true
		}
	}
	classes := 0
	for _, b := range []bool{hasLower, hasUpper, hasDigit, hasOther} {
		if b {
			classes++
		}
	}
	return classes >= 3
}
