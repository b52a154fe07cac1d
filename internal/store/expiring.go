package store

import (
	"context"
	"errors"
	"time"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// ExpiringSessionStore enforces session durations on top of another
// SessionStore. Expired sessions resolve exactly like missing ones and are
// removed from the inner store on first sight.
type ExpiringSessionStore struct {
	SessionStore
	now func() time.Time
}

// NewExpiringSessionStore wraps inner with lazy expiry.
func NewExpiringSessionStore(inner SessionStore) *ExpiringSessionStore {
	return &ExpiringSessionStore{SessionStore: inner, now: time.Now}
}

// WithClock replaces the time source; used by tests.
func (s *ExpiringSessionStore) WithClock(now func() time.Time) *ExpiringSessionStore {
	s.now = now
	return s
}

func (s *ExpiringSessionStore) Lookup(ctx context.Context, id string) (*models.Session, error) {
	sess, err := s.SessionStore.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.SessionStore.Destroy(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, ErrSessionExpired
	}
	return sess, nil
}

func (s *ExpiringSessionStore) Resolve(ctx context.Context, id string) (string, error) {
	sess, err := s.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

// Unwrap returns the decorated store.
func (s *ExpiringSessionStore) Unwrap() SessionStore {
	return s.SessionStore
}
