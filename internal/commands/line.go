package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/models"
	"github.com/balkashynov/trakr/internal/timeutil"
)

var lineCmd = &cobra.Command{
	Use:     "line",
	Aliases: []string{"l"},
	Short:   "Manage lines",
	Long:    "List, add, rename and delete lines. A line is one piece of work inside a tracker.",
}

var lineListCmd = &cobra.Command{
	Use:     "ls [tracker-id|@label]",
	Aliases: []string{"list"},
	Short:   "List lines, optionally of one tracker",
	Args:    cobra.MaximumNArgs(1),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()

		var lines []models.Line
		if len(args) == 1 {
			tracker, err := resolveTracker(ctx, e.ledger, args[0])
			if err != nil {
				return err
			}
			lines = tracker.Lines
		} else {
			var err error
			lines, err = e.ledger.GetLines(ctx)
			if err != nil {
				return err
			}
		}

		if len(lines) == 0 {
			fmt.Println("No lines found. Use 'trakr start \"description @tracker\"' to start one.")
			return nil
		}

		printTable(lineRows(lines, e.ledger, e.loc))
		return nil
	}),
}

func lineRows(lines []models.Line, l *ledger.Ledger, loc *time.Location) [][]string {
	now := l.Now()
	rows := [][]string{{"ID", "Tracker", "Description", "Sessions", "Last started", "Total", "Status"}}
	for _, line := range lines {
		status := "stopped"
		if line.IsActive() {
			status = "⏱ running"
		} else if len(line.Sessions) == 0 {
			status = "idle"
		}
		lastStarted := "-"
		if last := line.LastSession(); last != nil {
			lastStarted = last.StartedAt.In(loc).Format("Jan 02 15:04")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", line.ID),
			fmt.Sprintf("#%d", line.TrackerID),
			truncate(line.Desc, 40),
			fmt.Sprintf("%d", len(line.Sessions)),
			lastStarted,
			timeutil.Compact(ledger.LiveTotal(line, now)),
			status,
		})
	}
	return rows
}

var lineAddCmd = &cobra.Command{
	Use:   "add <tracker-id|@label> <description>",
	Short: "Add a line without starting it",
	Args:  cobra.MinimumNArgs(2),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		tracker, err := resolveTracker(ctx, e.ledger, args[0])
		if err != nil {
			return err
		}

		line, err := e.ledger.CreateLine(ctx, tracker.ID, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Added line #%d to %s: %s", line.ID, tracker.Label, line.Desc)
		return nil
	}),
}

var lineRenameCmd = &cobra.Command{
	Use:   "rename <line-id> <description>",
	Short: "Change a line's description",
	Args:  cobra.MinimumNArgs(2),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		id, err := parseID("line", args[0])
		if err != nil {
			return err
		}

		line, err := e.ledger.RenameLine(cmd.Context(), id, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		pterm.Success.Printfln("Renamed line #%d: %s", line.ID, line.Desc)
		return nil
	}),
}

var lineRemoveCmd = &cobra.Command{
	Use:     "rm <line-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a line and its sessions",
	Args:    cobra.ExactArgs(1),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		id, err := parseID("line", args[0])
		if err != nil {
			return err
		}

		if err := e.ledger.DeleteLine(cmd.Context(), id); err != nil {
			return err
		}
		pterm.Success.Printfln("Deleted line #%d", id)
		return nil
	}),
}

func init() {
	lineCmd.AddCommand(lineListCmd)
	lineCmd.AddCommand(lineAddCmd)
	lineCmd.AddCommand(lineRenameCmd)
	lineCmd.AddCommand(lineRemoveCmd)
}
