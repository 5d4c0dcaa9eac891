package main

import (
	"os"

	"github.com/pterm/pterm"

	"github.com/balkashynov/trakr/internal/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersion(version, commit, date)
	if err := commands.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}
