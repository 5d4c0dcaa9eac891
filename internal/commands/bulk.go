package commands

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/timeutil"
)

var stopAllCmd = &cobra.Command{
	Use:   "stop-all",
	Short: "Stop every running line",
	Long: `Stop every open session in one go. Either all of them are closed or none is;
a failure exits with a non-zero status.`,
	Args: cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		closed, err := e.ledger.StopAllOpenSessions(cmd.Context())
		if err != nil {
			return err
		}

		if len(closed) == 0 {
			fmt.Println("No active time tracking session")
			return nil
		}
		for _, s := range closed {
			fmt.Printf("⏹️  Stopped line #%d after %s\n", s.LineID, timeutil.Compact(ledger.Elapsed(s, *s.EndedAt)))
		}
		pterm.Success.Printfln("Stopped %d session(s)", len(closed))
		return nil
	}),
}

var errResetNotConfirmed = errors.New("refusing to delete everything without --yes")

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete all trackers, lines and sessions",
	Long: `Delete every tracker, line and session and restart the ids from 1.
This cannot be undone.`,
	Args: cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			return errResetNotConfirmed
		}

		if err := e.ledger.TruncateAll(cmd.Context()); err != nil {
			return err
		}
		pterm.Warning.Println("All trackers, lines and sessions were deleted")
		return nil
	}),
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Confirm deleting all data")
}
