package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// SessionDocument is the name of the JSON document holding sessions.
const SessionDocument = ".db_UserSession.json"

type sessionRecord struct {
	ID              string   `json:"id"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	UserID          string   `json:"user_id"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

func encodeSession(s *models.Session) any {
	rec := sessionRecord{
		ID:        s.ID,
		CreatedAt: formatTimestamp(s.CreatedAt),
		UpdatedAt: formatTimestamp(s.CreatedAt),
		UserID:    s.UserID,
	}
	if s.Duration != nil {
		secs := s.Duration.Seconds()
		rec.DurationSeconds = &secs
	}
	return rec
}

func decodeSession(raw json.RawMessage) (*models.Session, error) {
	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	created, err := parseTimestamp(rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	sess := &models.Session{ID: rec.ID, UserID: rec.UserID, CreatedAt: created}
	if rec.DurationSeconds != nil {
		d := time.Duration(*rec.DurationSeconds * float64(time.Second))
		sess.Duration = &d
	}
	return sess, nil
}

// FileSessionStore keeps sessions in one JSON document.
type FileSessionStore struct {
	t   *fileTable[*models.Session]
	now func() time.Time
}

// NewFileSessionStore loads every session from blob.
func NewFileSessionStore(ctx context.Context, blob Blob) (*FileSessionStore, error) {
	t, err := loadTable(ctx, blob, encodeSession, decodeSession)
	if err != nil {
		return nil, err
	}
	return &FileSessionStore{t: t, now: time.Now}, nil
}

func (s *FileSessionStore) Create(ctx context.Context, userID string, ttl *time.Duration) (*models.Session, error) {
	if userID == "" {
		return nil, ErrInvalidAttribute
	}
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UTC().Truncate(time.Second),
		Duration:  ttl,
	}

	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	if err := s.t.put(ctx, sess.ID, sess); err != nil {
		return nil, err
	}
	c := *sess
	return &c, nil
}

func (s *FileSessionStore) Lookup(ctx context.Context, id string) (*models.Session, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	sess, ok := s.t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := *sess
	return &c, nil
}

func (s *FileSessionStore) Resolve(ctx context.Context, id string) (string, error) {
	sess, err := s.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

func (s *FileSessionStore) Destroy(ctx context.Context, id string) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.t.remove(ctx, id)
}

// DeleteExpired removes every session expired at now in one write.
func (s *FileSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	var ids []string
	for _, id := range s.t.order {
		if s.t.rows[id].Expired(now) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.t.remove(ctx, ids...); err != nil {
		return 0, err
	}
	return len(ids), nil
}
