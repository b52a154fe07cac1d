package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// MemorySessionStore keeps sessions in process memory only.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, userID string, ttl *time.Duration) (*models.Session, error) {
	if userID == "" {
		return nil, ErrInvalidAttribute
	}
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now(),
		Duration:  ttl,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	c := *sess
	return &c, nil
}

func (s *MemorySessionStore) Lookup(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *sess
	return &c, nil
}

// Resolve ignores durations; wrap with ExpiringSessionStore to enforce them.
func (s *MemorySessionStore) Resolve(ctx context.Context, id string) (string, error) {
	sess, err := s.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

func (s *MemorySessionStore) Destroy(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

// Len returns the number of live entries, expired or not.
func (s *MemorySessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// DeleteExpired drops every session expired at now.
func (s *MemorySessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if sess.Expired(now) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}
