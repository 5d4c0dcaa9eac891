package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/balkashynov/trakr/internal/config"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "trakr.log")

	log, err := New(config.LogConfig{File: path, Level: "warn", MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatal(err)
	}

	log.Info("dropped")
	log.Warn("session closed", "line_id", 7)

	if err := log.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %s", len(lines), data)
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatal(err)
	}
	if record["msg"] != "session closed" || record["line_id"] != float64(7) {
		t.Errorf("unexpected record: %v", record)
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LogConfig{File: "x.log", Level: "chatty"}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestDiscard(t *testing.T) {
	log := Discard()

	if log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("discard logger should drop info records")
	}
	log.Error("dropped")

	if err := log.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
