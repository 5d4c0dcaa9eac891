package ledger

import (
	"context"

	"gorm.io/gorm"

	store "github.com/balkashynov/trakr/internal/db"
	"github.com/balkashynov/trakr/internal/models"
)

// StopAllOpenSessions closes every open session in one transaction and
// returns them. Either all of them are closed or none is, and the failure
// is reported.
func (l *Ledger) StopAllOpenSessions(ctx context.Context) ([]models.Session, error) {
	const op = "stop all open sessions"

	defer l.lockAll()()

	now := l.Now()
	var closed []models.Session
	err := l.tx(ctx, func(tx *gorm.DB) error {
		var open []models.Session
		if err := tx.Where("ended_at IS NULL").Order("line_id ASC, id ASC").Find(&open).Error; err != nil {
			return err
		}
		for i := range open {
			if err := closeSession(tx, &open[i], now); err != nil {
				return err
			}
		}
		closed = open
		return nil
	})
	if err != nil {
		l.log.Error("stop all open sessions failed", "error", err)
		return nil, storageErr(op, err)
	}

	l.log.Info("open sessions stopped", "count", len(closed))
	return closed, nil
}

// TruncateAll deletes every tracker, line and session and resets the id
// counters.
func (l *Ledger) TruncateAll(ctx context.Context) error {
	const op = "truncate all"

	defer l.lockAll()()

	if err := l.tx(ctx, store.Truncate); err != nil {
		return storageErr(op, err)
	}

	l.log.Warn("all data truncated")
	return nil
}
