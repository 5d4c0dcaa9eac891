package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yml")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}

	if c.Path != path {
		t.Errorf("Path = %q, want %q", c.Path, path)
	}
	if c.Log.Level != "info" || c.Server.Addr != "127.0.0.1:7420" || !c.Server.StopOnExit {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if filepath.Base(c.Database.Path) != "trakr.db" {
		t.Errorf("database path = %q", c.Database.Path)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "work.db")
	path := writeConfig(t, `
database:
  path: `+dbPath+`
log:
  level: debug
  max_backups: 7
server:
  addr: ":9000"
  stop_on_exit: false
display:
  timezone: UTC
`)

	t.Setenv("TRAKR_SERVER_ADDR", ":9999")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Config{
		Database: DatabaseConfig{Path: dbPath},
		Log: LogConfig{
			File:       c.Log.File,
			Level:      "debug",
			MaxSizeMB:  10,
			MaxBackups: 7,
		},
		Server:  ServerConfig{Addr: ":9999", StopOnExit: false},
		Display: DisplayConfig{Timezone: "UTC"},
		Path:    path,
	}
	if diff := cmp.Diff(want, *c); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	level, err := c.Log.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("SlogLevel = %v, %v", level, err)
	}
	loc, err := c.Display.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location = %v, %v", loc, err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"bad timezone", "display:\n  timezone: Mars/Olympus_Mons\n"},
		{"malformed yaml", "log: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.content)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
