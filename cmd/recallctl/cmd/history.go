package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallbe/recall/internal/domain/callhistory"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent call history",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("phone", "", "Only calls to or from this number")
	historyCmd.Flags().Int("limit", 20, "Maximum records")
	historyCmd.Flags().Int("offset", 0, "Records to skip")
}

func runHistory(cmd *cobra.Command, args []string) error {
	phone, _ := cmd.Flags().GetString("phone")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.Services.History.List(cmd.Context(), callhistory.Filter{PhoneNumber: phone, Offset: offset, Limit: limit})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no call history")
		return nil
	}
	for _, r := range records {
		meeting := "-"
		if r.MeetingDate != nil {
			meeting = *r.MeetingDate
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %s  meeting=%s  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.CallID, r.PhoneNumber, r.Name, meeting, r.Notes)
	}
	return nil
}
