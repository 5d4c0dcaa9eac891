package models

import (
	"time"

	"gorm.io/gorm"
)

// Tracker represents a named bucket of work
type Tracker struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Label string `gorm:"not null" json:"label"`

	// Relationships (read snapshots only, ordered by creation)
	Lines []Line `gorm:"foreignKey:TrackerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"lines"`
}

// EntryCount returns the number of lines recorded against the tracker
func (t *Tracker) EntryCount() int {
	return len(t.Lines)
}

// ActiveLine returns the tracker's line with an open session, if any
func (t *Tracker) ActiveLine() *Line {
	for i := range t.Lines {
		if t.Lines[i].OpenSession() != nil {
			return &t.Lines[i]
		}
	}
	return nil
}

// AfterFind normalizes timestamps read back from the store to UTC
func (t *Tracker) AfterFind(tx *gorm.DB) error {
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return nil
}
