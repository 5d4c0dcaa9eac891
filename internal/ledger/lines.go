package ledger

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/balkashynov/trakr/internal/models"
)

// GetLines returns every line across all trackers, oldest first, with
// their sessions.
func (l *Ledger) GetLines(ctx context.Context) ([]models.Line, error) {
	var lines []models.Line
	err := linesByCreation(l.db.WithContext(ctx)).
		Preload("Sessions", sessionsByStart).
		Find(&lines).Error
	if err != nil {
		return nil, storageErr("get lines", err)
	}
	return lines, nil
}

// GetLine returns one line with its sessions.
func (l *Ledger) GetLine(ctx context.Context, id uint) (*models.Line, error) {
	line, err := loadLine(l.db.WithContext(ctx), "get line", id)
	if err != nil {
		return nil, storageErr("get line", err)
	}
	return line, nil
}

// CreateLine adds an idle line to a tracker.
func (l *Ledger) CreateLine(ctx context.Context, trackerID uint, desc string) (*models.Line, error) {
	const op = "create line"

	desc = strings.TrimSpace(desc)
	if desc == "" {
		return nil, invalid(op, "description must not be empty")
	}

	defer l.lockShared()()

	now := l.Now()
	line := models.Line{
		TrackerID: trackerID,
		Desc:      desc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findTracker(tx, op, trackerID); err != nil {
			return err
		}
		return tx.Create(&line).Error
	})
	if err != nil {
		return nil, storageErr(op, err)
	}
	line.Sessions = []models.Session{}

	l.log.Info("line created", "tracker_id", trackerID, "line_id", line.ID)
	return &line, nil
}

// CreateLineAndStart adds a line to a tracker and opens its first session
// in the same transaction.
func (l *Ledger) CreateLineAndStart(ctx context.Context, trackerID uint, desc string) (*models.Line, error) {
	const op = "create line and start"

	desc = strings.TrimSpace(desc)
	if desc == "" {
		return nil, invalid(op, "description must not be empty")
	}

	defer l.lockShared()()

	now := l.Now()
	line := models.Line{
		TrackerID: trackerID,
		Desc:      desc,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findTracker(tx, op, trackerID); err != nil {
			return err
		}
		if err := tx.Create(&line).Error; err != nil {
			return err
		}
		session := models.Session{
			LineID:    line.ID,
			StartedAt: now,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		line.Sessions = []models.Session{session}
		return nil
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	l.log.Info("line started",
		"tracker_id", trackerID, "line_id", line.ID, "session_id", line.Sessions[0].ID)
	return &line, nil
}

// RenameLine replaces a line's description.
func (l *Ledger) RenameLine(ctx context.Context, id uint, desc string) (*models.Line, error) {
	const op = "rename line"

	desc = strings.TrimSpace(desc)
	if desc == "" {
		return nil, invalid(op, "description must not be empty")
	}

	defer l.lockLine(id)()

	now := l.Now()
	var line *models.Line
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findLine(tx, op, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Line{}).Where("id = ?", id).
			Updates(map[string]any{"description": desc, "updated_at": now}).Error; err != nil {
			return err
		}
		var err error
		line, err = loadLine(tx, op, id)
		return err
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	l.log.Info("line renamed", "line_id", id)
	return line, nil
}

// DeleteLine removes a line and its sessions.
func (l *Ledger) DeleteLine(ctx context.Context, id uint) error {
	const op = "delete line"

	defer l.lockLine(id)()

	var sessions int64
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findLine(tx, op, id); err != nil {
			return err
		}
		res := tx.Where("line_id = ?", id).Delete(&models.Session{})
		if res.Error != nil {
			return res.Error
		}
		sessions = res.RowsAffected
		return tx.Delete(&models.Line{}, id).Error
	})
	if err != nil {
		return storageErr(op, err)
	}

	l.log.Info("line deleted", "line_id", id, "sessions", sessions)
	return nil
}

func findLine(tx *gorm.DB, op string, id uint) (*models.Line, error) {
	var line models.Line
	err := tx.First(&line, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(op, "line #%d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func loadLine(tx *gorm.DB, op string, id uint) (*models.Line, error) {
	var line models.Line
	err := tx.Preload("Sessions", sessionsByStart).First(&line, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(op, "line #%d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}
