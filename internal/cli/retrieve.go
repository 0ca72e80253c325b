package cli

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	retrievePassword string
	retrieveOutput   string
)

func init() {
	retrieveCmd.SilenceErrors = true
	retrieveCmd.SilenceUsage = true
	retrieveCmd.Flags().StringVarP(&retrievePassword, "password", "p", "", "vault password (prompted if omitted)")
	retrieveCmd.Flags().StringVarP(&retrieveOutput, "output", "o", "", "write plaintext here instead of stdout")
	rootCmd.AddCommand(retrieveCmd)
}

var retrieveCmd = &cobra.Command{
	Use:   "retrieve <file_id>",
	Short: "Decrypt and print (or save) a file's plaintext",
	Args:  cobra.ExactArgs(1),
	RunE:  runRetrieve,
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid file id: %w", err)
	}

	password, err := passwordFromFlagOrPrompt(retrievePassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	plaintext, err := c.Retrieve(id)
	if err != nil {
		return err
	}

	if retrieveOutput == "" {
		_, err = os.Stdout.Write(plaintext)
		return err
	}
	return os.WriteFile(retrieveOutput, plaintext, 0600)
}
