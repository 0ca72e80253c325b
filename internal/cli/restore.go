package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghostvault/internal/backup"
)

var (
	restorePassword  string
	restoreKey       string
	restoreOverwrite bool
	restoreSnapshot  bool
	restoreVerify    bool
	restoreConfig    bool
)

func init() {
	restoreCmd.SilenceErrors = true
	restoreCmd.SilenceUsage = true
	restoreCmd.Flags().StringVarP(&restorePassword, "password", "p", "", "vault password (prompted if omitted)")
	restoreCmd.Flags().StringVar(&restoreKey, "backup-key", "", "passphrase protecting the backup archive (prompted if omitted)")
	restoreCmd.Flags().BoolVar(&restoreOverwrite, "overwrite", false, "overwrite blobs already present in the vault")
	restoreCmd.Flags().BoolVar(&restoreSnapshot, "snapshot-first", true, "snapshot the current vault before restoring, for rollback on failure")
	restoreCmd.Flags().BoolVar(&restoreVerify, "verify", true, "verify restored blobs after copying")
	restoreCmd.Flags().BoolVar(&restoreConfig, "restore-config", false, "also restore the password configuration from the archive")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore <archive_path>",
	Short: "Restore a vault from an encrypted backup archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	password, err := passwordFromFlagOrPrompt(restorePassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	key := restoreKey
	if key == "" {
		fmt.Println("Backup archive passphrase:")
		key, err = ReadPasswordInteractive(false)
		if err != nil {
			return err
		}
	}

	opts := backup.Options{
		OverwriteExisting:    restoreOverwrite,
		BackupExistingVault:  restoreSnapshot,
		VerifyIntegrity:      restoreVerify,
		RestoreConfiguration: restoreConfig,
	}
	result, err := c.RestoreBackup(args[0], opts, key)
	if err != nil {
		return err
	}
	globalReporter.PrintSuccess("restored %d file(s), skipped %d", result.Restored, result.Skipped)
	return nil
}
