package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallbe/recall/internal/telephony"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Dispatch an outbound recall call",
	Long: `Ask the outbound agent worker to call a customer about a missed meeting.

Examples:
  recallctl dispatch --phone +15551234567 --name "Jordan" --date 2026-10-10 --time "3:00 PM" --purpose "Consultation"`,
	RunE: runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)
	f := dispatchCmd.Flags()
	f.String("phone", "", "Customer phone number in E.164 form")
	f.String("name", "", "Customer name")
	f.String("date", "", "Missed meeting date")
	f.String("time", "", "Missed meeting time")
	f.String("purpose", "", "Missed meeting purpose")
	f.String("room", "", "Room name (defaults to outbound-<uuid>)")
	f.String("trunk", "", "SIP trunk override")
	f.String("caller-id", "", "Caller ID override")
	_ = dispatchCmd.MarkFlagRequired("phone")
}

func runDispatch(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	var md telephony.Metadata
	md.PhoneNumber, _ = f.GetString("phone")
	md.CustomerName, _ = f.GetString("name")
	md.Date, _ = f.GetString("date")
	md.Time, _ = f.GetString("time")
	md.Purpose, _ = f.GetString("purpose")
	md.SIPTrunkID, _ = f.GetString("trunk")
	md.CallerID, _ = f.GetString("caller-id")
	room, _ := f.GetString("room")

	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.LiveKit == nil {
		return errors.New("telephony not configured: set LIVEKIT_URL, LIVEKIT_API_KEY and LIVEKIT_API_SECRET")
	}
	if _, err := telephony.Resolve(md, a.Defaults()); err != nil {
		return err
	}

	d, err := a.LiveKit.Dispatch(cmd.Context(), room, md)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "dispatched %s to agent %s in room %s\n", d.DispatchID, d.AgentName, d.Room)
	return nil
}
