package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ghostvault/internal/auth"
)

var initGenerate bool

func init() {
	initCmd.SilenceErrors = true
	initCmd.SilenceUsage = true
	initCmd.Flags().BoolVar(&initGenerate, "generate", false, "generate the three passwords instead of prompting for them")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new vault",
	Long: `Create a new vault at --vault and set its three passwords:
master (real access), decoy (plausible-deniability view), and panic
(self-destruct). All three must be distinct and meet the minimum
strength requirement.`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(vaultRoot); err == nil {
		return fmt.Errorf("vault already exists at %s", vaultRoot)
	}

	fmt.Fprintln(os.Stderr, "Setting up a new vault at", vaultRoot)

	var master, decoy, panicPw string
	var err error
	if initGenerate {
		master, decoy, panicPw, err = generatePasswords()
	} else {
		master, decoy, panicPw, err = promptPasswords()
	}
	if err != nil {
		return err
	}

	c, err := openCoordinator()
	if err != nil {
		return err
	}
	if err := c.Init(master, decoy, panicPw); err != nil {
		return err
	}

	globalReporter.PrintSuccess("vault initialized at %s", vaultRoot)
	return nil
}

func promptPasswords() (master, decoy, panicPw string, err error) {
	fmt.Fprintln(os.Stderr, "Master password (real access):")
	if master, err = ReadPasswordInteractive(true); err != nil {
		return "", "", "", fmt.Errorf("master password: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Decoy password (plausible-deniability view):")
	if decoy, err = ReadPasswordInteractive(true); err != nil {
		return "", "", "", fmt.Errorf("decoy password: %w", err)
	}

	fmt.Fprintln(os.Stderr, "Panic password (self-destructs the vault):")
	if panicPw, err = ReadPasswordInteractive(true); err != nil {
		return "", "", "", fmt.Errorf("panic password: %w", err)
	}
	return master, decoy, panicPw, nil
}

// generatePasswords produces three independent high-entropy passwords
// rather than prompting, for operators who want to store them in a
// separate password manager instead of typing them.
func generatePasswords() (master, decoy, panicPw string, err error) {
	master, decoy, panicPw, err = auth.GenerateRolePasswords()
	if err != nil {
		return "", "", "", err
	}

	fmt.Println("master password:", master)
	fmt.Println("decoy password: ", decoy)
	fmt.Println("panic password: ", panicPw)
	fmt.Fprintln(os.Stderr, "Record these now; they are not stored or shown again.")
	return master, decoy, panicPw, nil
}
