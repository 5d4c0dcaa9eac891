package models

import (
	"time"

	"gorm.io/gorm"
)

// Session represents a single start/stop interval recorded against a line
type Session struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	LineID    uint       `gorm:"not null;index" json:"entry_line_id"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"` // nil while the session is open
}

// IsOpen reports whether the session has not been stopped yet
func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}

// Elapsed returns the session length, measured against now while open
func (s *Session) Elapsed(now time.Time) time.Duration {
	end := now
	if s.EndedAt != nil {
		end = *s.EndedAt
	}
	if end.Before(s.StartedAt) {
		return 0
	}
	return end.Sub(s.StartedAt)
}

// AfterFind normalizes timestamps read back from the store to UTC
func (s *Session) AfterFind(tx *gorm.DB) error {
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	s.StartedAt = s.StartedAt.UTC()
	if s.EndedAt != nil {
		ended := s.EndedAt.UTC()
		s.EndedAt = &ended
	}
	return nil
}
