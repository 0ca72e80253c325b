package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listPassword string

func init() {
	listCmd.SilenceErrors = true
	listCmd.SilenceUsage = true
	listCmd.Flags().StringVarP(&listPassword, "password", "p", "", "vault password (prompted if omitted)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List files in the vault (master) or the decoy view (decoy)",
	RunE:  runList,
}

func runList(cmd *cobra.Command, args []string) error {
	password, err := passwordFromFlagOrPrompt(listPassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	real, decoy, err := c.List()
	if err != nil {
		return err
	}

	for _, d := range real {
		fmt.Printf("%s\t%s\t%d\t%s\n", d.FileID, d.OriginalName, d.PlaintextSize, d.Tags)
	}
	for _, d := range decoy {
		fmt.Printf("%s\t%s\t%d\n", d.ID, d.Name, d.Size)
	}
	return nil
}
