package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadPassword string

func init() {
	uploadCmd.SilenceErrors = true
	uploadCmd.SilenceUsage = true
	uploadCmd.Flags().StringVarP(&uploadPassword, "password", "p", "", "vault password (prompted if omitted)")
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <path>",
	Short: "Encrypt a file and add it to the vault",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpload,
}

func runUpload(cmd *cobra.Command, args []string) error {
	password, err := passwordFromFlagOrPrompt(uploadPassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	id, err := c.Upload(args[0])
	if err != nil {
		return err
	}
	globalReporter.PrintSuccess("uploaded as %s", id)
	fmt.Println(id.String())
	return nil
}
