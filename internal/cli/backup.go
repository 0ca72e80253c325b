package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghostvault/internal/backup"
)

var (
	backupPassword    string
	backupKey         string
	backupIncludeCfg  bool
	backupCompression int
)

func init() {
	backupCmd.SilenceErrors = true
	backupCmd.SilenceUsage = true
	backupCmd.Flags().StringVarP(&backupPassword, "password", "p", "", "vault password (prompted if omitted)")
	backupCmd.Flags().StringVar(&backupKey, "backup-key", "", "passphrase protecting the backup archive (prompted if omitted)")
	backupCmd.Flags().BoolVar(&backupIncludeCfg, "include-config", false, "include the password configuration in the archive")
	backupCmd.Flags().IntVar(&backupCompression, "compression", 6, "zip compression level (1-9; 0 selects the default, 6)")
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup <output_path>",
	Short: "Create an encrypted backup archive of the vault",
	Args:  cobra.ExactArgs(1),
	RunE:  runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	password, err := passwordFromFlagOrPrompt(backupPassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	key, err := backupKeyFromFlagOrPrompt()
	if err != nil {
		return err
	}

	opts := backup.Options{
		IncludeConfiguration: backupIncludeCfg,
		CompressionLevel:     backupCompression,
	}
	if err := c.CreateBackup(args[0], opts, key); err != nil {
		return err
	}
	globalReporter.PrintSuccess("backup written to %s", args[0])
	return nil
}

func backupKeyFromFlagOrPrompt() (string, error) {
	if backupKey != "" {
		return backupKey, nil
	}
	fmt.Println("Backup archive passphrase:")
	return ReadPasswordInteractive(true)
}
