package ledger

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gorm.io/gorm"

	store "github.com/balkashynov/trakr/internal/db"
	"github.com/balkashynov/trakr/internal/models"
)

var t0 = time.Date(2024, time.March, 14, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLedger(t *testing.T) (*Ledger, *gorm.DB, *fakeClock) {
	t.Helper()

	gdb, err := store.Open(filepath.Join(t.TempDir(), "trakr.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(gdb)
	})

	clock := &fakeClock{now: t0}
	return New(gdb, WithClock(clock.Now)), gdb, clock
}

func TestNewDefaultsToQuietLogger(t *testing.T) {
	gdb, err := store.Open(filepath.Join(t.TempDir(), "trakr.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(gdb) })

	l := New(gdb)
	if l.log.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("default logger should drop mutation records")
	}

	if _, err := l.CreateTracker(context.Background(), "Writing"); err != nil {
		t.Fatalf("create tracker: %v", err)
	}
}

func mustTracker(t *testing.T, l *Ledger, label string) *models.Tracker {
	t.Helper()

	tracker, err := l.CreateTracker(context.Background(), label)
	if err != nil {
		t.Fatalf("create tracker %q: %v", label, err)
	}
	return tracker
}

func mustLine(t *testing.T, l *Ledger, trackerID uint, desc string) *models.Line {
	t.Helper()

	line, err := l.CreateLine(context.Background(), trackerID, desc)
	if err != nil {
		t.Fatalf("create line %q: %v", desc, err)
	}
	return line
}

func count(t *testing.T, gdb *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()

	var n int64
	q := gdb.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCreateTracker(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	testCases := []struct {
		name    string
		label   string
		want    string
		wantErr error
	}{
		{name: "plain", label: "Writing", want: "Writing"},
		{name: "trimmed", label: "  Reading \t", want: "Reading"},
		{name: "empty", label: "", wantErr: ErrInvalidArgument},
		{name: "blank", label: "   ", wantErr: ErrInvalidArgument},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tracker, err := l.CreateTracker(ctx, tc.label)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tracker.Label != tc.want {
				t.Errorf("label = %q, want %q", tracker.Label, tc.want)
			}
			if len(tracker.Lines) != 0 {
				t.Errorf("expected no lines, got %d", len(tracker.Lines))
			}
			if !tracker.CreatedAt.Equal(t0) || !tracker.UpdatedAt.Equal(t0) {
				t.Errorf("timestamps = %v/%v, want %v", tracker.CreatedAt, tracker.UpdatedAt, t0)
			}
		})
	}
}

func TestGetTrackersOrdering(t *testing.T) {
	l, _, clock := newTestLedger(t)
	ctx := context.Background()

	first := mustTracker(t, l, "First")
	clock.Advance(time.Minute)
	second := mustTracker(t, l, "Second")

	a := mustLine(t, l, second.ID, "a")
	clock.Advance(time.Minute)
	b := mustLine(t, l, second.ID, "b")

	trackers, err := l.GetTrackers(ctx)
	if err != nil {
		t.Fatal(err)
	}

	var gotIDs []uint
	for _, tr := range trackers {
		gotIDs = append(gotIDs, tr.ID)
	}
	if diff := cmp.Diff([]uint{second.ID, first.ID}, gotIDs); diff != "" {
		t.Fatalf("tracker order mismatch (-want +got):\n%s", diff)
	}

	var lineIDs []uint
	for _, line := range trackers[0].Lines {
		lineIDs = append(lineIDs, line.ID)
	}
	if diff := cmp.Diff([]uint{a.ID, b.ID}, lineIDs); diff != "" {
		t.Errorf("line order mismatch (-want +got):\n%s", diff)
	}
}

func TestRenameTrackerAndLine(t *testing.T) {
	l, _, clock := newTestLedger(t)
	ctx := context.Background()

	tracker := mustTracker(t, l, "Writing")
	line := mustLine(t, l, tracker.ID, "Draft")
	clock.Advance(time.Hour)

	renamed, err := l.RenameTracker(ctx, tracker.ID, " Editing ")
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Label != "Editing" || !renamed.UpdatedAt.Equal(t0.Add(time.Hour)) {
		t.Errorf("unexpected tracker after rename: %+v", renamed)
	}
	if !renamed.CreatedAt.Equal(t0) {
		t.Errorf("created_at changed to %v", renamed.CreatedAt)
	}

	renamedLine, err := l.RenameLine(ctx, line.ID, "Second draft")
	if err != nil {
		t.Fatal(err)
	}
	if renamedLine.Desc != "Second draft" || renamedLine.TrackerID != tracker.ID {
		t.Errorf("unexpected line after rename: %+v", renamedLine)
	}

	if _, err := l.RenameTracker(ctx, tracker.ID, ""); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
	if _, err := l.RenameLine(ctx, 999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestFindTrackerByLabel(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	writing := mustTracker(t, l, "Writing")
	mustTracker(t, l, "Reading")

	got, err := l.FindTrackerByLabel(ctx, "wRiTiNg")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != writing.ID {
		t.Errorf("found tracker #%d, want #%d", got.ID, writing.ID)
	}

	if _, err := l.FindTrackerByLabel(ctx, "Cooking"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestNotFound(t *testing.T) {
	l, _, _ := newTestLedger(t)
	ctx := context.Background()

	const missing = 4242

	testCases := []struct {
		name string
		fn   func() error
	}{
		{"start", func() error { _, err := l.StartSession(ctx, missing); return err }},
		{"stop", func() error { _, err := l.StopSession(ctx, missing); return err }},
		{"resume", func() error { _, err := l.ResumeSession(ctx, missing); return err }},
		{"create line", func() error { _, err := l.CreateLine(ctx, missing, "x"); return err }},
		{"create line and start", func() error { _, err := l.CreateLineAndStart(ctx, missing, "x"); return err }},
		{"delete tracker", func() error { return l.DeleteTracker(ctx, missing) }},
		{"delete line", func() error { return l.DeleteLine(ctx, missing) }},
		{"get tracker", func() error { _, err := l.GetTracker(ctx, missing); return err }},
		{"get line", func() error { _, err := l.GetLine(ctx, missing); return err }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fn()
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected not found, got %v", err)
			}

			var lerr *Error
			if !errors.As(err, &lerr) || lerr.Op == "" {
				t.Errorf("expected *Error with an op, got %#v", err)
			}
		})
	}
}

func TestCreateLineAndStart(t *testing.T) {
	l, gdb, _ := newTestLedger(t)
	ctx := context.Background()

	tracker := mustTracker(t, l, "Writing")

	if _, err := l.CreateLineAndStart(ctx, tracker.ID, " "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if n := count(t, gdb, &models.Line{}, ""); n != 0 {
		t.Fatalf("rejected call created %d lines", n)
	}

	line, err := l.CreateLineAndStart(ctx, tracker.ID, "Draft")
	if err != nil {
		t.Fatal(err)
	}
	if len(line.Sessions) != 1 || !line.Sessions[0].IsOpen() {
		t.Fatalf("expected one open session, got %+v", line.Sessions)
	}
	if !line.Sessions[0].StartedAt.Equal(t0) {
		t.Errorf("started_at = %v, want %v", line.Sessions[0].StartedAt, t0)
	}

	stored, err := l.GetLine(ctx, line.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(line, stored); diff != "" {
		t.Errorf("stored line mismatch (-returned +stored):\n%s", diff)
	}
}

func TestDeleteTrackerCascades(t *testing.T) {
	l, gdb, clock := newTestLedger(t)
	ctx := context.Background()

	const n, m = 3, 4

	doomed := mustTracker(t, l, "Doomed")
	kept := mustTracker(t, l, "Kept")
	keptLine := mustLine(t, l, kept.ID, "stays")
	if _, err := l.StartSession(ctx, keptLine.ID); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < n; i++ {
		line := mustLine(t, l, doomed.ID, "work")
		for j := 0; j < m; j++ {
			if _, err := l.StartSession(ctx, line.ID); err != nil {
				t.Fatal(err)
			}
			clock.Advance(time.Minute)
			if _, err := l.StopSession(ctx, line.ID); err != nil {
				t.Fatal(err)
			}
		}
	}

	if got := count(t, gdb, &models.Session{}, ""); got != n*m+1 {
		t.Fatalf("setup: %d sessions, want %d", got, n*m+1)
	}

	if err := l.DeleteTracker(ctx, doomed.ID); err != nil {
		t.Fatal(err)
	}

	if got := count(t, gdb, &models.Line{}, "tracker_id = ?", doomed.ID); got != 0 {
		t.Errorf("%d lines survived", got)
	}
	if got := count(t, gdb, &models.Session{}, ""); got != 1 {
		t.Errorf("%d sessions left, want only the kept one", got)
	}

	trackers, err := l.GetTrackers(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(trackers) != 1 || trackers[0].ID != kept.ID {
		t.Errorf("expected only tracker #%d, got %+v", kept.ID, trackers)
	}

	if err := l.DeleteTracker(ctx, doomed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
}

func TestDeleteLineCascades(t *testing.T) {
	l, gdb, _ := newTestLedger(t)
	ctx := context.Background()

	tracker := mustTracker(t, l, "Writing")
	line, err := l.CreateLineAndStart(ctx, tracker.ID, "Draft")
	if err != nil {
		t.Fatal(err)
	}
	other := mustLine(t, l, tracker.ID, "Outline")

	if err := l.DeleteLine(ctx, line.ID); err != nil {
		t.Fatal(err)
	}

	if got := count(t, gdb, &models.Session{}, "line_id = ?", line.ID); got != 0 {
		t.Errorf("%d sessions survived", got)
	}

	got, err := l.GetTracker(ctx, tracker.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Lines) != 1 || got.Lines[0].ID != other.ID {
		t.Errorf("unexpected lines after delete: %+v", got.Lines)
	}
}

func TestTruncateAll(t *testing.T) {
	l, gdb, _ := newTestLedger(t)
	ctx := context.Background()

	tracker := mustTracker(t, l, "Writing")
	if _, err := l.CreateLineAndStart(ctx, tracker.ID, "Draft"); err != nil {
		t.Fatal(err)
	}

	if err := l.TruncateAll(ctx); err != nil {
		t.Fatal(err)
	}

	for _, model := range []any{&models.Tracker{}, &models.Line{}, &models.Session{}} {
		if got := count(t, gdb, model, ""); got != 0 {
			t.Errorf("%T: %d rows left", model, got)
		}
	}

	again := mustTracker(t, l, "Again")
	if again.ID != 1 {
		t.Errorf("ids not reset: new tracker got #%d", again.ID)
	}
}

func TestStorageFailure(t *testing.T) {
	l, gdb, _ := newTestLedger(t)

	if err := store.Close(gdb); err != nil {
		t.Fatal(err)
	}

	_, err := l.CreateTracker(context.Background(), "Writing")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if errors.Unwrap(err) == nil {
		t.Error("expected the store error to stay reachable")
	}

	if _, err := l.StopAllOpenSessions(context.Background()); !errors.Is(err, ErrStorage) {
		t.Errorf("stop all: expected storage failure, got %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	l, _, _ := newTestLedger(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := l.CreateTracker(ctx, "Writing"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
