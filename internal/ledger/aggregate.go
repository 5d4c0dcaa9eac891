package ledger

import (
	"time"

	"github.com/balkashynov/trakr/internal/models"
)

// Elapsed is the length of a session: end minus start when closed, now
// minus start while open. It never goes negative.
func Elapsed(s models.Session, now time.Time) time.Duration {
	return s.Elapsed(now)
}

// ClosedTotal sums the closed sessions of a line.
func ClosedTotal(line models.Line) time.Duration {
	var total time.Duration
	for _, s := range line.Sessions {
		if s.IsOpen() {
			continue
		}
		total += s.Elapsed(*s.EndedAt)
	}
	return total
}

// LiveTotal is ClosedTotal plus the running time of the open session.
func LiveTotal(line models.Line, now time.Time) time.Duration {
	total := ClosedTotal(line)
	if open := line.OpenSession(); open != nil {
		total += open.Elapsed(now)
	}
	return total
}

// EntryCount is the number of lines a tracker holds.
func EntryCount(tracker models.Tracker) int {
	return tracker.EntryCount()
}

// TrackerTotal sums the line totals of a tracker. Open sessions count only
// when includeLive is set.
func TrackerTotal(tracker models.Tracker, now time.Time, includeLive bool) time.Duration {
	var total time.Duration
	for _, line := range tracker.Lines {
		if includeLive {
			total += LiveTotal(line, now)
		} else {
			total += ClosedTotal(line)
		}
	}
	return total
}

// StartedWithin keeps the sessions whose start instant lies in [from, to).
func StartedWithin(sessions []models.Session, from, to time.Time) []models.Session {
	var out []models.Session
	for _, s := range sessions {
		if !s.StartedAt.Before(from) && s.StartedAt.Before(to) {
			out = append(out, s)
		}
	}
	return out
}
