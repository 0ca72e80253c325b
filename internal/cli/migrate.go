package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ghostvault/internal/migration"
)

var (
	migratePassword string
	migrateScanOnly bool
)

func init() {
	migrateCmd.SilenceErrors = true
	migrateCmd.SilenceUsage = true
	migrateCmd.Flags().StringVarP(&migratePassword, "password", "p", "", "vault password (prompted if omitted)")
	migrateCmd.Flags().BoolVar(&migrateScanOnly, "scan-only", false, "list legacy unframed blobs without migrating them")
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Encrypt and frame legacy unframed blobs in place",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateScanOnly {
		paths, err := migration.Scan(vaultRoot)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	}

	password, err := passwordFromFlagOrPrompt(migratePassword)
	if err != nil {
		return err
	}

	result, err := migration.Migrate(vaultRoot, password)
	if err != nil {
		return err
	}

	switch result.Status {
	case migration.Success:
		globalReporter.PrintSuccess("migrated %d/%d file(s)", result.SuccessCount, result.TotalCount)
	case migration.PartialFailure:
		globalReporter.PrintError("migration failed for %d file(s), rolled back from %s", len(result.FailedPaths), result.SnapshotPath)
	}
	return nil
}
