package models

import "time"

// Session represents a user's session
type Session struct {
	ID        string         `json:"session_id"`
	UserID    string         `json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	Duration  *time.Duration `json:"duration,omitempty"` // nil never expires
}

// Expired reports whether the session is past its duration at now.
// A zero or negative duration is expired from the start.
func (s *Session) Expired(now time.Time) bool {
	if s.Duration == nil {
		return false
	}
	if *s.Duration <= 0 {
		return true
	}
	return now.Sub(s.CreatedAt) > *s.Duration
}
