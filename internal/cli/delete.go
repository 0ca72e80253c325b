package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var deletePassword string

func init() {
	deleteCmd.SilenceErrors = true
	deleteCmd.SilenceUsage = true
	deleteCmd.Flags().StringVarP(&deletePassword, "password", "p", "", "vault password (prompted if omitted)")
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <file_id>",
	Short: "Securely delete a file's blob and descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid file id: %w", err)
	}

	password, err := passwordFromFlagOrPrompt(deletePassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	if err := c.Delete(id); err != nil {
		return err
	}
	globalReporter.PrintSuccess("deleted %s", id)
	return nil
}
