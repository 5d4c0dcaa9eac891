package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/models"
	"github.com/balkashynov/trakr/internal/parser"
	"github.com/balkashynov/trakr/internal/timeutil"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show a timesheet of tracked time per line",
	Long: `Show a timesheet of tracked time grouped by line and day.

A session counts towards the day it started on. Windows longer than a week
are grouped by Monday-based weeks instead of days. Running sessions count up
to now.

Examples:
  trakr report                  # this week
  trakr report --since today
  trakr report --since "3 days"
  trakr report --since 01/03/2024`,
	Args: cobra.NoArgs,
	RunE: withLedger(func(cmd *cobra.Command, args []string, e *env) error {
		ctx := cmd.Context()
		now := e.ledger.Now().In(e.loc)

		sinceFlag, _ := cmd.Flags().GetString("since")
		since, err := parser.ParseSince(sinceFlag, now)
		if err != nil {
			return err
		}

		sessions, err := e.ledger.SessionsStartedBetween(ctx, since, now.Add(time.Second))
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Printf("No time tracked since %s.\n", since.Format("Jan 2, 2006 15:04"))
			return nil
		}

		trackers, err := e.ledger.GetTrackers(ctx)
		if err != nil {
			return err
		}

		sheet := buildTimesheet(sessions, lineNames(trackers), since, now)
		printTable(sheet.table())
		fmt.Printf("From %s to %s\n", since.Format("Jan 2 15:04"), now.Format("Jan 2, 2006 15:04"))
		return nil
	}),
}

// lineNames maps line ids to a display name including the tracker label
func lineNames(trackers []models.Tracker) map[uint]string {
	names := make(map[uint]string)
	for _, t := range trackers {
		for _, line := range t.Lines {
			names[line.ID] = fmt.Sprintf("#%d %s (%s)", line.ID, truncate(line.Desc, 30), truncate(t.Label, 15))
		}
	}
	return names
}

type sheetColumn struct {
	label      string
	start, end time.Time
}

type sheetRow struct {
	lineID uint
	name   string
	cells  []time.Duration
	total  time.Duration
}

type timesheet struct {
	columns []sheetColumn
	rows    []sheetRow
	totals  []time.Duration
	total   time.Duration
}

// buildTimesheet spreads sessions over day columns, or week columns when
// the window is longer than a week. since and now must share a location.
func buildTimesheet(sessions []models.Session, names map[uint]string, since, now time.Time) timesheet {
	sheet := timesheet{columns: sheetColumns(since, now)}
	sheet.totals = make([]time.Duration, len(sheet.columns))

	byLine := make(map[uint]*sheetRow)
	for col, c := range sheet.columns {
		for _, s := range ledger.StartedWithin(sessions, c.start, c.end) {
			row, ok := byLine[s.LineID]
			if !ok {
				name, known := names[s.LineID]
				if !known {
					name = fmt.Sprintf("#%d", s.LineID)
				}
				row = &sheetRow{lineID: s.LineID, name: name, cells: make([]time.Duration, len(sheet.columns))}
				byLine[s.LineID] = row
			}

			d := ledger.Elapsed(s, now)
			row.cells[col] += d
			row.total += d
			sheet.totals[col] += d
			sheet.total += d
		}
	}

	for _, row := range byLine {
		sheet.rows = append(sheet.rows, *row)
	}
	sort.Slice(sheet.rows, func(i, j int) bool {
		return sheet.rows[i].lineID < sheet.rows[j].lineID
	})
	return sheet
}

func sheetColumns(since, now time.Time) []sheetColumn {
	var columns []sheetColumn

	first := timeutil.StartOfDay(since)
	if timeutil.StartOfDay(now).Sub(first) < 7*24*time.Hour {
		for day := first; !day.After(now); day = day.AddDate(0, 0, 1) {
			columns = append(columns, sheetColumn{
				label: day.Format("Mon 02"),
				start: day,
				end:   day.AddDate(0, 0, 1),
			})
		}
		return columns
	}

	for week := timeutil.StartOfWeek(since); !week.After(now); week = week.AddDate(0, 0, 7) {
		columns = append(columns, sheetColumn{
			label: "wk " + week.Format("Jan 02"),
			start: week,
			end:   week.AddDate(0, 0, 7),
		})
	}
	return columns
}

func (s timesheet) table() [][]string {
	header := []string{"Line"}
	for _, c := range s.columns {
		header = append(header, c.label)
	}
	header = append(header, "Total")

	data := [][]string{header}
	for _, row := range s.rows {
		data = append(data, sheetLine(row.name, row.cells, row.total))
	}
	return append(data, sheetLine("Total", s.totals, s.total))
}

func sheetLine(name string, cells []time.Duration, total time.Duration) []string {
	line := []string{name}
	for _, d := range cells {
		if d == 0 {
			line = append(line, "-")
			continue
		}
		line = append(line, timeutil.Hours(d))
	}
	return append(line, timeutil.Hours(total))
}

func init() {
	reportCmd.Flags().StringP("since", "s", "week", "Start of the window: today, yesterday, week, dd/mm/yyyy, X hours, X days, X weeks")
}
