package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/trakr/internal/models"
)

// StartSession opens a session on an idle line.
func (l *Ledger) StartSession(ctx context.Context, lineID uint) (*models.Session, error) {
	return l.open(ctx, "start session", lineID)
}

// ResumeSession opens a new session on a line whose previous session is
// closed. The earlier sessions are left untouched.
func (l *Ledger) ResumeSession(ctx context.Context, lineID uint) (*models.Session, error) {
	return l.open(ctx, "resume session", lineID)
}

func (l *Ledger) open(ctx context.Context, op string, lineID uint) (*models.Session, error) {
	defer l.lockLine(lineID)()

	now := l.Now()
	var session models.Session
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findLine(tx, op, lineID); err != nil {
			return err
		}

		last, err := lastSession(tx, lineID)
		if err != nil {
			return err
		}

		start := now
		if last != nil {
			if last.IsOpen() {
				return conflict(op, "line #%d already has an open session #%d", lineID, last.ID)
			}
			// never start before the previous session ended
			if last.EndedAt.After(start) {
				start = *last.EndedAt
			}
		}

		session = models.Session{
			LineID:    lineID,
			StartedAt: start,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	l.log.Info("session opened", "op", op, "line_id", lineID, "session_id", session.ID)
	return &session, nil
}

// StopSession closes the open session of a line.
func (l *Ledger) StopSession(ctx context.Context, lineID uint) (*models.Session, error) {
	const op = "stop session"

	defer l.lockLine(lineID)()

	now := l.Now()
	var session models.Session
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findLine(tx, op, lineID); err != nil {
			return err
		}

		err := tx.Where("line_id = ? AND ended_at IS NULL", lineID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return conflict(op, "line #%d has no open session", lineID)
		}
		if err != nil {
			return err
		}

		return closeSession(tx, &session, now)
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	l.log.Info("session closed", "line_id", lineID, "session_id", session.ID,
		"elapsed", session.Elapsed(now).String())
	return &session, nil
}

// OpenSessions returns every open session across all trackers.
func (l *Ledger) OpenSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	err := l.db.WithContext(ctx).
		Where("ended_at IS NULL").
		Order("started_at ASC, id ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, storageErr("open sessions", err)
	}
	return sessions, nil
}

// lastSession returns the most recently started session of a line, or nil.
// Sessions of a line never overlap, so it also carries the latest end.
func lastSession(tx *gorm.DB, lineID uint) (*models.Session, error) {
	var last models.Session
	err := tx.Where("line_id = ?", lineID).
		Order("started_at DESC, id DESC").
		First(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &last, nil
}

// closeSession sets ended_at exactly once. The end is clamped to the start
// so a clock stepping backwards cannot produce a negative interval.
func closeSession(tx *gorm.DB, session *models.Session, now time.Time) error {
	end := now
	if end.Before(session.StartedAt) {
		end = session.StartedAt
	}

	res := tx.Model(&models.Session{}).
		Where("id = ? AND ended_at IS NULL", session.ID).
		Updates(map[string]any{"ended_at": end, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return conflict("close session", "session #%d is no longer open", session.ID)
	}

	session.EndedAt = &end
	session.UpdatedAt = now
	return nil
}
