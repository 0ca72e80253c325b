// Package cli provides the command-line interface for GhostVault.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"ghostvault/internal/log"
)

// Version is set by main.go
var Version = "dev"

// rootCmd is the base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "vaultctl",
	Short: "Encrypted local file vault",
	Long: `vaultctl manages a GhostVault: an encrypted local file store with
three password roles (master, decoy, panic), PBKDF2-HMAC-SHA256 key
derivation, and AES-256-GCM authenticated encryption for every blob and
the metadata registry.`,
	Version: Version,
	// PersistentPreRunE runs after cobra parses --debug/--log-file, so
	// the logger is configured before any subcommand's RunE executes.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch {
		case logFilePath != "":
			if err := log.EnableFileLogging(logFilePath, log.LevelInfo); err != nil {
				return fmt.Errorf("opening log file %s: %w", logFilePath, err)
			}
		case debugLog:
			log.EnableDebugLogging()
		}
		return nil
	},
}

var (
	vaultRoot   string
	debugLog    bool
	logFilePath string
)

// Execute runs the CLI application.
func Execute(version string) {
	Version = version
	rootCmd.Version = version

	// Set up signal handling for graceful cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		globalReporter.Cancel()
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		os.Exit(1)
	}()

	if err := rootCmd.Execute(); err != nil {
		globalReporter.PrintError("%v", err)
		os.Exit(1)
	}
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&vaultRoot, "vault", defaultVaultRoot(), "path to the vault root directory")
	rootCmd.PersistentFlags().BoolVar(&debugLog, "debug", false, "log operations at debug level to stderr")
	rootCmd.PersistentFlags().StringVar(&logFilePath, "log-file", "", "log operations to this file instead of stderr")
}

func defaultVaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ghostvault"
	}
	return filepath.Join(home, ".ghostvault")
}
