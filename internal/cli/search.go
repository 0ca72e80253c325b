package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var searchPassword string

func init() {
	searchCmd.SilenceErrors = true
	searchCmd.SilenceUsage = true
	searchCmd.Flags().StringVarP(&searchPassword, "password", "p", "", "vault password (prompted if omitted)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search files by name or tag substring",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	password, err := passwordFromFlagOrPrompt(searchPassword)
	if err != nil {
		return err
	}
	c, err := authenticate(password)
	if err != nil {
		return err
	}

	results, err := c.Search(args[0])
	if err != nil {
		return err
	}
	for _, d := range results {
		fmt.Printf("%s\t%s\t%d\t%s\n", d.FileID, d.OriginalName, d.PlaintextSize, d.Tags)
	}
	return nil
}
