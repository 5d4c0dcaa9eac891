package ledger

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/balkashynov/trakr/internal/models"
)

// CreateTracker creates a tracker with no lines.
func (l *Ledger) CreateTracker(ctx context.Context, label string) (*models.Tracker, error) {
	const op = "create tracker"

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, invalid(op, "label must not be empty")
	}

	defer l.lockShared()()

	now := l.Now()
	tracker := models.Tracker{
		Label:     label,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := l.tx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&tracker).Error
	})
	if err != nil {
		return nil, storageErr(op, err)
	}
	tracker.Lines = []models.Line{}

	l.log.Info("tracker created", "tracker_id", tracker.ID, "label", tracker.Label)
	return &tracker, nil
}

// RenameTracker replaces a tracker's label.
func (l *Ledger) RenameTracker(ctx context.Context, id uint, label string) (*models.Tracker, error) {
	const op = "rename tracker"

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, invalid(op, "label must not be empty")
	}

	defer l.lockShared()()

	now := l.Now()
	var tracker *models.Tracker
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findTracker(tx, op, id); err != nil {
			return err
		}
		if err := tx.Model(&models.Tracker{}).Where("id = ?", id).
			Updates(map[string]any{"label": label, "updated_at": now}).Error; err != nil {
			return err
		}
		var err error
		tracker, err = loadTracker(tx, op, id)
		return err
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	l.log.Info("tracker renamed", "tracker_id", id, "label", label)
	return tracker, nil
}

// DeleteTracker removes a tracker together with all its lines and their
// sessions.
func (l *Ledger) DeleteTracker(ctx context.Context, id uint) error {
	const op = "delete tracker"

	defer l.lockAll()()

	var lines, sessions int64
	err := l.tx(ctx, func(tx *gorm.DB) error {
		if _, err := findTracker(tx, op, id); err != nil {
			return err
		}

		lineIDs := tx.Model(&models.Line{}).Select("id").Where("tracker_id = ?", id)
		res := tx.Where("line_id IN (?)", lineIDs).Delete(&models.Session{})
		if res.Error != nil {
			return res.Error
		}
		sessions = res.RowsAffected

		res = tx.Where("tracker_id = ?", id).Delete(&models.Line{})
		if res.Error != nil {
			return res.Error
		}
		lines = res.RowsAffected

		return tx.Delete(&models.Tracker{}, id).Error
	})
	if err != nil {
		return storageErr(op, err)
	}

	l.log.Info("tracker deleted", "tracker_id", id, "lines", lines, "sessions", sessions)
	return nil
}

// GetTrackers returns every tracker, newest first, with its lines and
// their sessions.
func (l *Ledger) GetTrackers(ctx context.Context) ([]models.Tracker, error) {
	var trackers []models.Tracker
	err := withGraph(l.db.WithContext(ctx)).
		Order("trackers.created_at DESC, trackers.id DESC").
		Find(&trackers).Error
	if err != nil {
		return nil, storageErr("get trackers", err)
	}
	return trackers, nil
}

// GetTracker returns one tracker with its lines and their sessions.
func (l *Ledger) GetTracker(ctx context.Context, id uint) (*models.Tracker, error) {
	tracker, err := loadTracker(l.db.WithContext(ctx), "get tracker", id)
	if err != nil {
		return nil, storageErr("get tracker", err)
	}
	return tracker, nil
}

// FindTrackerByLabel looks a tracker up by label, ignoring case. When
// several trackers share the label the oldest one wins.
func (l *Ledger) FindTrackerByLabel(ctx context.Context, label string) (*models.Tracker, error) {
	const op = "find tracker"

	label = strings.TrimSpace(label)
	if label == "" {
		return nil, invalid(op, "label must not be empty")
	}

	var tracker models.Tracker
	err := withGraph(l.db.WithContext(ctx)).
		Where("lower(trackers.label) = lower(?)", label).
		Order("trackers.id ASC").
		First(&tracker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(op, "no tracker labelled %q", label)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return &tracker, nil
}

// findTracker checks that a tracker exists without loading its lines.
func findTracker(tx *gorm.DB, op string, id uint) (*models.Tracker, error) {
	var tracker models.Tracker
	err := tx.First(&tracker, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(op, "tracker #%d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &tracker, nil
}

func loadTracker(tx *gorm.DB, op string, id uint) (*models.Tracker, error) {
	var tracker models.Tracker
	err := withGraph(tx).First(&tracker, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(op, "tracker #%d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &tracker, nil
}

// withGraph preloads the tracker → lines → sessions snapshot.
func withGraph(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Lines", linesByCreation).
		Preload("Lines.Sessions", sessionsByStart)
}

func linesByCreation(tx *gorm.DB) *gorm.DB {
	return tx.Order("lines.created_at ASC, lines.id ASC")
}

func sessionsByStart(tx *gorm.DB) *gorm.DB {
	return tx.Order("sessions.started_at ASC, sessions.id ASC")
}
