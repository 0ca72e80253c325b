package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghostvault/internal/backup"
)

var verifyBackupKey string

func init() {
	verifyBackupCmd.SilenceErrors = true
	verifyBackupCmd.SilenceUsage = true
	verifyBackupCmd.Flags().StringVar(&verifyBackupKey, "backup-key", "", "passphrase protecting the backup archive (prompted if omitted)")
	rootCmd.AddCommand(verifyBackupCmd)
}

var verifyBackupCmd = &cobra.Command{
	Use:   "verify-backup <archive_path>",
	Short: "Check a backup archive's integrity without touching the live vault",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerifyBackup,
}

func runVerifyBackup(cmd *cobra.Command, args []string) error {
	key := verifyBackupKey
	if key == "" {
		fmt.Println("Backup archive passphrase:")
		var err error
		key, err = ReadPasswordInteractive(false)
		if err != nil {
			return err
		}
	}

	manifest, err := backup.VerifyBackup(args[0], key)
	if err != nil {
		return err
	}
	fmt.Printf("ok: %d file(s), %d total plaintext bytes\n", manifest.FileCount, manifest.TotalPlaintextSize)
	return nil
}
