package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallbe/recall/internal/domain/scheduling"
)

var slotsCmd = &cobra.Command{
	Use:   "slots",
	Short: "List the next available meeting slots",
	RunE:  runSlots,
}

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Check whether a date and time can be booked",
	Long: `Check whether a date and time can be booked.

Examples:
  recallctl availability --date tomorrow --time 2pm
  recallctl availability --date 2026-10-20 --time "10:30 AM"`,
	RunE: runAvailability,
}

func init() {
	rootCmd.AddCommand(slotsCmd)
	slotsCmd.Flags().String("from", "", "Search from this date (default today)")
	slotsCmd.Flags().IntP("count", "n", scheduling.DefaultSlotCount, "Number of slots")

	rootCmd.AddCommand(availabilityCmd)
	availabilityCmd.Flags().String("date", "", "Date to check")
	availabilityCmd.Flags().String("time", "", "Time to check")
	_ = availabilityCmd.MarkFlagRequired("date")
	_ = availabilityCmd.MarkFlagRequired("time")
}

func runSlots(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.Services.Scheduling
	from := svc.Now()
	if v, _ := cmd.Flags().GetString("from"); v != "" {
		day, err := scheduling.ParseDate(v, from, svc.Profile().Loc())
		if err != nil {
			return err
		}
		from = day
	}
	count, _ := cmd.Flags().GetInt("count")

	slots, err := svc.NextAvailableSlots(cmd.Context(), from, count)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no available slots in the next two weeks")
		return nil
	}
	for i, s := range slots {
		fmt.Fprintf(cmd.OutOrStdout(), "%d. %s\n", i+1, s.Formatted())
	}
	return nil
}

func runAvailability(cmd *cobra.Command, args []string) error {
	date, _ := cmd.Flags().GetString("date")
	clock, _ := cmd.Flags().GetString("time")

	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.Services.Scheduling
	start, err := scheduling.ParseDateTime(date, clock, svc.Now(), svc.Profile().Loc())
	if err != nil {
		return err
	}
	formatted := start.Format(scheduling.SlotLayout)

	free, err := svc.CheckBookable(cmd.Context(), start)
	switch {
	case errors.Is(err, scheduling.ErrClosedDay):
		fmt.Fprintf(cmd.OutOrStdout(), "%s: closed\n", formatted)
	case errors.Is(err, scheduling.ErrOutsideHours):
		fmt.Fprintf(cmd.OutOrStdout(), "%s: outside business hours\n", formatted)
	case err != nil:
		return err
	case free:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: available\n", formatted)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "%s: booked\n", formatted)
	}
	return nil
}
