package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for trakr",
	Long:  `Display detailed help for all trakr commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(renderHelp(helpSections))
	},
}

const helpBanner = `
████████╗██████╗  █████╗ ██╗  ██╗██████╗
╚══██╔══╝██╔══██╗██╔══██╗██║ ██╔╝██╔══██╗
   ██║   ██████╔╝███████║█████╔╝ ██████╔╝
   ██║   ██╔══██╗██╔══██║██╔═██╗ ██╔══██╗
   ██║   ██║  ██║██║  ██║██║  ██╗██║  ██║
   ╚═╝   ╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝  ╚═╝

trakr - trackers, lines and sessions from the terminal
`

type helpSection struct {
	title    string
	commands []helpCommand
}

type helpCommand struct {
	name        string
	description string
	flags       []helpFlag
	examples    []string
}

type helpFlag struct {
	name        string
	description string
}

var helpSections = []helpSection{
	{
		title: "TRACKING",
		commands: []helpCommand{
			{
				name:        "start [description] [@tracker]",
				description: "Create a line and start its first session",
				flags: []helpFlag{
					{"-t, --tracker", "Tracker id or @label"},
					{"--no-ui", "Skip the interactive timer"},
				},
				examples: []string{`trakr start "Draft chapter two @Writing"`},
			},
			{name: "stop <line-id>", description: "Stop the running session of a line"},
			{
				name:        "resume <line-id>",
				description: "Open a new session on a stopped line",
				flags:       []helpFlag{{"--no-ui", "Skip the interactive timer"}},
			},
			{name: "status", description: "Show every running line"},
			{name: "stop-all", description: "Stop every running line at once"},
		},
	},
	{
		title: "TRACKERS AND LINES",
		commands: []helpCommand{
			{name: "tracker add <label>", description: "Create a tracker"},
			{
				name:        "tracker ls",
				description: "List trackers with entry counts and totals",
				flags:       []helpFlag{{"--live", "Count running sessions (default true)"}},
			},
			{name: "tracker rename <id|@label> <label>", description: "Rename a tracker"},
			{name: "tracker rm <id|@label>", description: "Delete a tracker, its lines and sessions"},
			{name: "line ls [id|@label]", description: "List lines, optionally of one tracker"},
			{name: "line add <id|@label> <description>", description: "Add a line without starting it"},
			{name: "line rename <line-id> <description>", description: "Change a line's description"},
			{name: "line rm <line-id>", description: "Delete a line and its sessions"},
		},
	},
	{
		title: "REPORTS AND API",
		commands: []helpCommand{
			{
				name:        "report",
				description: "Timesheet of tracked time per line and day",
				flags:       []helpFlag{{"-s, --since", "today, yesterday, week, dd/mm/yyyy, X hours, X days, X weeks"}},
				examples:    []string{`trakr report --since "3 days"`},
			},
			{
				name:        "serve",
				description: "Serve the JSON API",
				flags:       []helpFlag{{"--addr", "Listen address, overrides server.addr"}},
			},
			{
				name:        "reset",
				description: "Delete all data and restart ids from 1",
				flags:       []helpFlag{{"--yes", "Confirm"}},
			},
			{name: "version", description: "Print the version"},
			{name: "help", description: "Show this help"},
		},
	},
}

func renderHelp(sections []helpSection) string {
	var b strings.Builder
	b.WriteString(helpBanner)

	for _, section := range sections {
		fmt.Fprintf(&b, "\n%s:\n\n", section.title)
		for _, c := range section.commands {
			fmt.Fprintf(&b, "  %-38s %s\n", c.name, c.description)
			for _, f := range c.flags {
				fmt.Fprintf(&b, "    %-36s %s\n", f.name, f.description)
			}
			for _, ex := range c.examples {
				fmt.Fprintf(&b, "    e.g. %s\n", ex)
			}
		}
	}

	b.WriteString("\nGLOBAL FLAGS:\n\n")
	fmt.Fprintf(&b, "  %-38s %s\n", "--config <file>", "Config file (default $XDG_CONFIG_HOME/trakr/config.yml)")
	fmt.Fprintf(&b, "  %-38s %s\n", "--db <file>", "Database file, overrides database.path")
	b.WriteString("\nSettings can also be given as TRAKR_* environment variables, e.g. TRAKR_SERVER_ADDR.\n\n")
	return b.String()
}
