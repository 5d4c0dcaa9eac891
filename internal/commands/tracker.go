package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/models"
	"github.com/balkashynov/trakr/internal/timeutil"
)

var trackerCmd = &cobra.Command{
	Use:     "tracker",
	Aliases: []string{"t"},
	Short:   "Manage trackers",
	Long:    "Create, list, rename and delete trackers. A tracker groups the lines you work on.",
}

var trackerAddCmd = &cobra.Command{
	Use:   "add <label>",
	Short: "Create a tracker",
	Long: `Create a tracker.

Examples:
  trakr tracker add Writing
  trakr tracker add "Client work"`,
	Args: cobra.MinimumNArgs(1),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		tracker, err := e.ledger.CreateTracker(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Created tracker #%d: %s", tracker.ID, tracker.Label)
		return nil
	}),
}

var trackerListCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List trackers with their entry counts and totals",
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		trackers, err := e.ledger.GetTrackers(cmd.Context())
		if err != nil {
			return err
		}

		if len(trackers) == 0 {
			fmt.Println("No trackers found. Use 'trakr tracker add <label>' to create your first tracker.")
			return nil
		}

		live, _ := cmd.Flags().GetBool("live")
		printTable(trackerRows(trackers, e.ledger, live))
		return nil
	}),
}

func trackerRows(trackers []models.Tracker, l *ledger.Ledger, live bool) [][]string {
	now := l.Now()
	rows := [][]string{{"ID", "Label", "Entries", "Total", "Running"}}
	for _, t := range trackers {
		running := ""
		if active := t.ActiveLine(); active != nil {
			running = fmt.Sprintf("⏱ #%d", active.ID)
		}
		rows = append(rows, []string{
			strconv.FormatUint(uint64(t.ID), 10),
			truncate(t.Label, 30),
			strconv.Itoa(ledger.EntryCount(t)),
			timeutil.Compact(ledger.TrackerTotal(t, now, live)),
			running,
		})
	}
	return rows
}

var trackerRenameCmd = &cobra.Command{
	Use:   "rename <tracker-id|@label> <new label>",
	Short: "Rename a tracker",
	Args:  cobra.MinimumNArgs(2),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		tracker, err := resolveTracker(ctx, e.ledger, args[0])
		if err != nil {
			return err
		}

		renamed, err := e.ledger.RenameTracker(ctx, tracker.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Renamed tracker #%d: %s → %s", renamed.ID, tracker.Label, renamed.Label)
		return nil
	}),
}

var trackerRemoveCmd = &cobra.Command{
	Use:     "rm <tracker-id|@label>",
	Aliases: []string{"delete"},
	Short:   "Delete a tracker with all its lines and sessions",
	Args:    cobra.ExactArgs(1),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		tracker, err := resolveTracker(ctx, e.ledger, args[0])
		if err != nil {
			return err
		}

		if err := e.ledger.DeleteTracker(ctx, tracker.ID); err != nil {
			return err
		}
		pterm.Success.Printfln("Deleted tracker #%d: %s (%d lines)", tracker.ID, tracker.Label, ledger.EntryCount(*tracker))
		return nil
	}),
}

func init() {
	trackerListCmd.Flags().Bool("live", true, "Include running sessions in totals")

	trackerCmd.AddCommand(trackerAddCmd)
	trackerCmd.AddCommand(trackerListCmd)
	trackerCmd.AddCommand(trackerRenameCmd)
	trackerCmd.AddCommand(trackerRemoveCmd)
}
