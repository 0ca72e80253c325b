package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"ghostvault/internal/vault"
)

var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrPasswordEmpty    = errors.New("password cannot be empty")
)

// openCoordinator wires a Coordinator to the --vault directory. The
// decoy content provider is left nil: producing a plausible filler
// view is an opaque collaborator this CLI does not implement.
func openCoordinator() (*vault.Coordinator, error) {
	return vault.Open(vaultRoot, nil)
}

// authenticate opens the coordinator and classifies password,
// returning the coordinator for a master or decoy session and an
// error for an invalid or locked-out password. PANIC never returns a value here because the process has already
// exited by the time Authenticate would return.
func authenticate(password string) (*vault.Coordinator, error) {
	c, err := openCoordinator()
	if err != nil {
		return nil, err
	}

	outcome, err := c.Authenticate(password)
	if err != nil {
		return nil, err
	}
	if outcome == vault.AuthInvalid {
		return nil, fmt.Errorf("invalid password")
	}
	return c, nil
}

// passwordFromFlagOrPrompt returns flagValue if set, otherwise prompts
// interactively (no confirmation: this is an unlock, not a set).
func passwordFromFlagOrPrompt(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return ReadPasswordInteractive(false)
}

// stdinIsTerminal reports whether stdin is an interactive terminal
// rather than a pipe or redirect, so password prompts know whether to
// disable echo or just read a line.
func stdinIsTerminal() bool {
	return term.IsTerminal(int(syscall.Stdin))
}

// promptHidden writes prompt to stderr and reads one line of response
// from stdin, with echo disabled when stdin is a real terminal.
func promptHidden(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	if !stdinIsTerminal() {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

// ReadPasswordInteractive prompts for one of the vault's three role
// passwords. When confirm is true (setting a new password, as opposed
// to unlocking with an existing one) it prompts a second time and
// requires the two entries to match.
func ReadPasswordInteractive(confirm bool) (string, error) {
	password, err := promptHidden("Password: ")
	if err != nil {
		return "", err
	}
	if password == "" {
		return "", ErrPasswordEmpty
	}

	if confirm {
		confirmation, err := promptHidden("Confirm password: ")
		if err != nil {
			return "", err
		}
		if password != confirmation {
			return "", ErrPasswordMismatch
		}
	}

	return password, nil
}
