package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
)

// printTable renders data as a boxed table; the first row is the header
func printTable(data [][]string) {
	fprintTable(os.Stdout, data)
}

func fprintTable(w io.Writer, data [][]string) {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		pterm.Error.Printfln("Failed to render table: %s", err.Error())
		return
	}

	fmt.Fprintln(w, str)
}

// truncate shortens s to max runes with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max || max < 4 {
		return s
	}
	return string(r[:max-3]) + "..."
}
