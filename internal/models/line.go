package models

import (
	"time"

	"gorm.io/gorm"
)

// Line represents a unit of work inside a tracker
type Line struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TrackerID uint   `gorm:"not null;index" json:"entry_id"`
	Desc      string `gorm:"column:description;not null" json:"desc"`

	// Relationships (read snapshots only, ordered by started_at)
	Sessions []Session `gorm:"foreignKey:LineID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"sessions"`
}

// OpenSession returns the line's session without an end, if any
func (l *Line) OpenSession() *Session {
	for i := range l.Sessions {
		if l.Sessions[i].IsOpen() {
			return &l.Sessions[i]
		}
	}
	return nil
}

// IsActive reports whether time is currently being recorded against the line
func (l *Line) IsActive() bool {
	return l.OpenSession() != nil
}

// LastSession returns the most recently started session, if any
func (l *Line) LastSession() *Session {
	var last *Session
	for i := range l.Sessions {
		if last == nil || l.Sessions[i].StartedAt.After(last.StartedAt) {
			last = &l.Sessions[i]
		}
	}
	return last
}

// AfterFind normalizes timestamps read back from the store to UTC
func (l *Line) AfterFind(tx *gorm.DB) error {
	l.CreatedAt = l.CreatedAt.UTC()
	l.UpdatedAt = l.UpdatedAt.UTC()
	return nil
}
