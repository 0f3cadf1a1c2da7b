package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallbe/recall/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Generate a random value for API_TOKEN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := auth.NewToken()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
