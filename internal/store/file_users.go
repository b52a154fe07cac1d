package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// UserDocument is the name of the JSON document holding users.
const UserDocument = ".db_User.json"

type userRecord struct {
	ID         string  `json:"id"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
	Email      *string `json:"email"`
	Password   *string `json:"_password"`
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	SessionID  string  `json:"session_id,omitempty"`
	ResetToken string  `json:"reset_token,omitempty"`
}

func encodeUser(u *models.User) any {
	return userRecord{
		ID:         u.ID,
		CreatedAt:  formatTimestamp(u.CreatedAt),
		UpdatedAt:  formatTimestamp(u.UpdatedAt),
		Email:      nullable(u.Email),
		Password:   nullable(u.HashedPassword),
		FirstName:  nullable(u.FirstName),
		LastName:   nullable(u.LastName),
		SessionID:  u.SessionID,
		ResetToken: u.ResetToken,
	}
}

func decodeUser(raw json.RawMessage) (*models.User, error) {
	var rec userRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	created, err := parseTimestamp(rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	updated, err := parseTimestamp(rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	return &models.User{
		ID:             rec.ID,
		Email:          deref(rec.Email),
		HashedPassword: deref(rec.Password),
		FirstName:      deref(rec.FirstName),
		LastName:       deref(rec.LastName),
		SessionID:      rec.SessionID,
		ResetToken:     rec.ResetToken,
		CreatedAt:      created,
		UpdatedAt:      updated,
	}, nil
}

// FileUserStore keeps users in one JSON document.
type FileUserStore struct {
	t   *fileTable[*models.User]
	now func() time.Time
}

// NewFileUserStore loads every user from blob. A missing document is an
// empty store.
func NewFileUserStore(ctx context.Context, blob Blob) (*FileUserStore, error) {
	t, err := loadTable(ctx, blob, encodeUser, decodeUser)
	if err != nil {
		return nil, err
	}
	return &FileUserStore{t: t, now: time.Now}, nil
}

func (s *FileUserStore) stamp() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// emailTaken reports whether another user already holds email.
func (s *FileUserStore) emailTaken(email, exceptID string) bool {
	if email == "" {
		return false
	}
	for _, id := range s.t.order {
		if id != exceptID && s.t.rows[id].Email == email {
			return true
		}
	}
	return false
}

func (s *FileUserStore) Add(ctx context.Context, u *models.User) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	if s.emailTaken(u.Email, "") {
		return ErrDuplicateEmail
	}

	row := u.Clone()
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	now := s.stamp()
	row.CreatedAt, row.UpdatedAt = now, now

	if err := s.t.put(ctx, row.ID, row); err != nil {
		return err
	}
	u.ID, u.CreatedAt, u.UpdatedAt = row.ID, row.CreatedAt, row.UpdatedAt
	return nil
}

func (s *FileUserStore) Get(ctx context.Context, id string) (*models.User, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	u, ok := s.t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (s *FileUserStore) Find(ctx context.Context, q models.Query) ([]*models.User, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()

	var out []*models.User
	for _, id := range s.t.order {
		if u := s.t.rows[id]; u.Matches(q) {
			out = append(out, u.Clone())
		}
	}
	return out, nil
}

func (s *FileUserStore) Remove(ctx context.Context, id string) error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	return s.t.remove(ctx, id)
}

func (s *FileUserStore) Count(ctx context.Context) (int, error) {
	s.t.mu.RLock()
	defer s.t.mu.RUnlock()
	return len(s.t.order), nil
}

func (s *FileUserStore) Update(ctx context.Context, id string, changes models.Changes) (*models.User, error) {
	if err := validateChanges(changes); err != nil {
		return nil, err
	}
	s.t.mu.Lock()
	defer s.t.mu.Unlock()

	cur, ok := s.t.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := cur.Clone()
	for a, v := range changes {
		next.Set(a, v)
	}
	if next.Email != cur.Email && s.emailTaken(next.Email, id) {
		return nil, ErrDuplicateEmail
	}
	next.UpdatedAt = s.stamp()

	if err := s.t.put(ctx, id, next); err != nil {
		return nil, err
	}
	return next.Clone(), nil
}
