package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var retagPassword string

func init() {
	retagCmd.SilenceErrors = true
	retagCmd.SilenceUsage = true
	retagCmd.Flags().StringVarP(&retagPassword, "password", "p", "", "vault password (prompted if omitted)")
	rootCmd.AddCommand(retagCmd)
}

var retagCmd = &cobra.Command{
	Use:   "retag <file_id> <tags>",
	Short: "Replace a file's tags",
	Args:  cobra.ExactArgs(2),
	RunE:  runRetag,
}

func runRetag(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid file id: %w", err)
	}

	password, err := passwordFromFlagOrPrompt(retagPassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	return c.Retag(id, args[1])
}
