package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/balkashynov/trakr/internal/config"
	"github.com/balkashynov/trakr/internal/db"
	"github.com/balkashynov/trakr/internal/ledger"
	"github.com/balkashynov/trakr/internal/logging"
	"github.com/balkashynov/trakr/internal/models"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configPath string
	dbPath     string
)

var rootCmd = &cobra.Command{
	Use:   "trakr",
	Short: "A CLI time tracker built on trackers, lines and sessions",
	Long: `trakr records work as sessions on lines grouped under trackers.
Start a line, stop it, resume it later, and see the totals from the terminal
or over the local HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// env is everything a command needs once the config is loaded
type env struct {
	cfg    *config.Config
	log    *logging.Logger
	db     *gorm.DB
	ledger *ledger.Ledger
	loc    *time.Location
}

// setup loads the config and opens the log file, the database and the ledger
func setup() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	loc, err := cfg.Display.Location()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	gdb, err := db.Open(cfg.Database.Path)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	log.Debug("trakr started", "config", cfg.Path, "database", cfg.Database.Path, "version", version)

	return &env{
		cfg:    cfg,
		log:    log,
		db:     gdb,
		ledger: ledger.New(gdb, ledger.WithLogger(log.Logger)),
		loc:    loc,
	}, nil
}

func (e *env) close() {
	if err := db.Close(e.db); err != nil {
		e.log.Error("failed to close database", "error", err)
	}
	_ = e.log.Close()
}

// withLedger wraps a command function to set up the environment first.
// A returned error makes the process exit 1.
func withLedger(fn func(*cobra.Command, []string, *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := setup()
		if err != nil {
			return err
		}
		defer e.close()
		return fn(cmd, args, e)
	}
}

// parseID parses a positive numeric id argument
func parseID(kind, arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'", kind, arg)
	}
	return uint(id), nil
}

// resolveTracker finds a tracker by numeric id or by @label
func resolveTracker(ctx context.Context, l *ledger.Ledger, ref string) (*models.Tracker, error) {
	if label, ok := strings.CutPrefix(ref, "@"); ok {
		return l.FindTrackerByLabel(ctx, label)
	}
	id, err := parseID("tracker", ref)
	if err != nil {
		return nil, err
	}
	return l.GetTracker(ctx, id)
}

// SetVersion sets the version information
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("trakr %s (commit %s, built %s)\n", version, commit, date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $XDG_CONFIG_HOME/trakr/config.yml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database file, overrides database.path")

	rootCmd.AddCommand(trackerCmd)
	rootCmd.AddCommand(lineCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(stopAllCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.SetHelpCommand(helpCmd)
	rootCmd.AddCommand(versionCmd)
}
