package ledger

import (
	"context"
	"time"

	"github.com/balkashynov/trakr/internal/models"
	"github.com/balkashynov/trakr/internal/timeutil"
)

// SessionsStartedBetween returns the sessions whose start instant lies in
// [from, to), ordered by start.
func (l *Ledger) SessionsStartedBetween(ctx context.Context, from, to time.Time) ([]models.Session, error) {
	if !from.Before(to) {
		return nil, invalid("sessions between", "range start %s is not before end %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}

	var sessions []models.Session
	err := l.db.WithContext(ctx).
		Where("started_at >= ? AND started_at < ?", from.UTC(), to.UTC()).
		Order("started_at ASC, id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, storageErr("sessions between", err)
	}
	return sessions, nil
}

// TodaySessions returns the sessions started on the current calendar day
// in loc. A session running across midnight belongs to the day it started.
func (l *Ledger) TodaySessions(ctx context.Context, loc *time.Location) ([]models.Session, error) {
	if loc == nil {
		loc = time.UTC
	}
	start := timeutil.StartOfDay(l.Now().In(loc))
	return l.SessionsStartedBetween(ctx, start, start.AddDate(0, 0, 1))
}
