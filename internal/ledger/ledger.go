// Package ledger enforces the session rules of trakr: how a line's
// sessions are opened, closed, resumed, deleted and aggregated.
//
// The ledger owns no timers. Live durations are derived on demand from the
// stored timestamps and a caller-supplied "now" (see Elapsed, LiveTotal).
//
// Every single-line mutation runs under that line's mutex and inside one
// store transaction. Bulk operations (StopAllOpenSessions, TruncateAll,
// DeleteTracker) hold the ledger-wide lock exclusively, so they never
// interleave with per-line mutations.
package ledger

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/trakr/internal/logging"
)

// Ledger is the single entry point for tracker, line and session mutations.
// It is safe for concurrent use.
type Ledger struct {
	db  *gorm.DB
	now func() time.Time
	log *slog.Logger

	// mu is held shared by single-line operations and exclusively by bulk ones
	mu sync.RWMutex

	locksMu sync.Mutex
	locks   map[uint]*lineLock
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces the wall clock used to stamp mutations.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the structured logger for mutation events.
func WithLogger(log *slog.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// New returns a ledger backed by db.
func New(db *gorm.DB, opts ...Option) *Ledger {
	l := &Ledger{
		db:    db,
		now:   time.Now,
		log:   logging.Discard().Logger,
		locks: make(map[uint]*lineLock),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns the ledger clock in UTC. Callers use it to compute live
// durations against the same clock that stamps mutations.
func (l *Ledger) Now() time.Time {
	return l.now().UTC()
}

type lineLock struct {
	mu   sync.Mutex
	refs int
}

// lockLine serializes mutations of one line. The returned func releases
// the line and the shared ledger lock.
func (l *Ledger) lockLine(id uint) func() {
	l.mu.RLock()

	l.locksMu.Lock()
	ll, ok := l.locks[id]
	if !ok {
		ll = &lineLock{}
		l.locks[id] = ll
	}
	ll.refs++
	l.locksMu.Unlock()

	ll.mu.Lock()

	return func() {
		ll.mu.Unlock()

		l.locksMu.Lock()
		ll.refs--
		if ll.refs == 0 {
			delete(l.locks, id)
		}
		l.locksMu.Unlock()

		l.mu.RUnlock()
	}
}

// lockAll excludes every other mutation until the returned func is called.
func (l *Ledger) lockAll() func() {
	l.mu.Lock()
	return l.mu.Unlock
}

// lockShared is taken by mutations that touch no existing line.
func (l *Ledger) lockShared() func() {
	l.mu.RLock()
	return l.mu.RUnlock
}

func (l *Ledger) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.db.WithContext(ctx).Transaction(fn)
}
