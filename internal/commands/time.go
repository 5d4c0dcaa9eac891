package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/models"
	"github.com/balkashynov/trakr/internal/parser"
	"github.com/balkashynov/trakr/internal/timeutil"
	"github.com/balkashynov/trakr/internal/tui"
)

var startCmd = &cobra.Command{
	Use:   "start [description] [@tracker]",
	Short: "Create a line and start tracking time on it",
	Long: `Create a line in a tracker and open its first session. Opens the interactive
timer by default, use --no-ui for a simple start.

The tracker is picked with @label inside the description or with --tracker.
Without a description an input prompt is shown.

Examples:
  trakr start "Draft chapter two @Writing"
  trakr start Fix flaky test -t 3 --no-ui
  trakr start @Writing          # prompt for the description`,
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		noUI, _ := cmd.Flags().GetBool("no-ui")
		trackerRef, _ := cmd.Flags().GetString("tracker")

		parsed := parser.ParseLine(strings.Join(args, " "))
		if len(parsed.Errors) > 0 {
			return fmt.Errorf("%s", strings.Join(parsed.Errors, "; "))
		}

		switch {
		case parsed.Tracker != "" && trackerRef != "":
			return fmt.Errorf("use either @%s or --tracker, not both", parsed.Tracker)
		case parsed.Tracker != "":
			trackerRef = "@" + parsed.Tracker
		case trackerRef == "":
			return fmt.Errorf("a tracker is required: add @label to the description or use --tracker")
		}

		tracker, err := resolveTracker(ctx, e.ledger, trackerRef)
		if err != nil {
			return err
		}

		desc := parsed.Desc
		if desc == "" {
			if noUI {
				return fmt.Errorf("a description is required with --no-ui")
			}
			var ok bool
			desc, ok, err = tui.RunPromptTUI(tracker.Label)
			if err != nil {
				return err
			}
			if !ok {
				pterm.Info.Println("Cancelled, nothing was started")
				return nil
			}
		}

		line, err := e.ledger.CreateLineAndStart(ctx, tracker.ID, desc)
		if err != nil {
			return err
		}

		if noUI {
			fmt.Printf("⏱️  Started line #%d in %s: %s\n", line.ID, tracker.Label, line.Desc)
			fmt.Printf("Started at: %s\n", line.Sessions[0].StartedAt.In(e.loc).Format("15:04:05"))
			return nil
		}
		return tui.RunTimerTUI(ctx, e.ledger, tracker.Label, line)
	}),
}

var stopCmd = &cobra.Command{
	Use:   "stop <line-id>",
	Short: "Stop tracking time on a line",
	Args:  cobra.ExactArgs(1),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		lineID, err := parseID("line", args[0])
		if err != nil {
			return err
		}

		session, err := e.ledger.StopSession(ctx, lineID)
		if err != nil {
			return err
		}

		line, err := e.ledger.GetLine(ctx, lineID)
		if err != nil {
			return err
		}

		fmt.Printf("⏹️  Stopped line #%d: %s\n", line.ID, line.Desc)
		fmt.Printf("Session duration: %s\n", timeutil.Compact(ledger.Elapsed(*session, *session.EndedAt)))
		fmt.Printf("Line total: %s\n", timeutil.Compact(ledger.ClosedTotal(*line)))
		return nil
	}),
}

var resumeCmd = &cobra.Command{
	Use:   "resume <line-id>",
	Short: "Open a new session on a stopped line",
	Long: `Open a new session on a stopped line. Earlier sessions are kept and the
line total keeps growing from where it was.

Examples:
  trakr resume 42
  trakr resume 42 --no-ui`,
	Args: cobra.ExactArgs(1),
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		lineID, err := parseID("line", args[0])
		if err != nil {
			return err
		}

		session, err := e.ledger.ResumeSession(ctx, lineID)
		if err != nil {
			return err
		}

		line, err := e.ledger.GetLine(ctx, lineID)
		if err != nil {
			return err
		}
		tracker, err := e.ledger.GetTracker(ctx, line.TrackerID)
		if err != nil {
			return err
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		if noUI {
			fmt.Printf("⏱️  Resumed line #%d in %s: %s\n", line.ID, tracker.Label, line.Desc)
			fmt.Printf("Started at: %s\n", session.StartedAt.In(e.loc).Format("15:04:05"))
			fmt.Printf("Recorded so far: %s\n", timeutil.Compact(ledger.ClosedTotal(*line)))
			return nil
		}
		return tui.RunTimerTUI(ctx, e.ledger, tracker.Label, line)
	}),
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every running line",
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		open, err := e.ledger.OpenSessions(ctx)
		if err != nil {
			return err
		}

		if len(open) == 0 {
			fmt.Println("No active time tracking session")
			return nil
		}

		trackers, err := e.ledger.GetTrackers(ctx)
		if err != nil {
			return err
		}

		printTable(statusRows(open, trackers, e.ledger.Now(), e.loc))
		return nil
	}),
}

// statusRows lists the open sessions with their line and tracker
func statusRows(open []models.Session, trackers []models.Tracker, now time.Time, loc *time.Location) [][]string {
	type owner struct {
		tracker string
		line    models.Line
	}
	owners := make(map[uint]owner)
	for _, t := range trackers {
		for _, line := range t.Lines {
			owners[line.ID] = owner{tracker: t.Label, line: line}
		}
	}

	rows := [][]string{{"Line", "Tracker", "Description", "Started", "Elapsed", "Line total"}}
	for _, s := range open {
		o := owners[s.LineID]
		rows = append(rows, []string{
			fmt.Sprintf("#%d", s.LineID),
			truncate(o.tracker, 20),
			truncate(o.line.Desc, 40),
			s.StartedAt.In(loc).Format("Jan 02 15:04:05"),
			timeutil.Clock(ledger.Elapsed(s, now)),
			timeutil.Compact(ledger.LiveTotal(o.line, now)),
		})
	}
	return rows
}

func init() {
	startCmd.Flags().Bool("no-ui", false, "Start without the interactive timer")
	startCmd.Flags().StringP("tracker", "t", "", "Tracker id or @label")
	resumeCmd.Flags().Bool("no-ui", false, "Resume without the interactive timer")
}
