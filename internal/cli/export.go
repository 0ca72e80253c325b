package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var exportPassword string

func init() {
	exportCmd.SilenceErrors = true
	exportCmd.SilenceUsage = true
	exportCmd.Flags().StringVarP(&exportPassword, "password", "p", "", "vault password (prompted if omitted)")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export <file_id> <dest_path>",
	Short: "Decrypt a file and write its plaintext to dest_path",
	Args:  cobra.ExactArgs(2),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid file id: %w", err)
	}

	password, err := passwordFromFlagOrPrompt(exportPassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	if err := c.Export(id, args[1]); err != nil {
		return err
	}
	globalReporter.PrintSuccess("exported to %s", args[1])
	return nil
}
