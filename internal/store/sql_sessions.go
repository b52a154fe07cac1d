package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/database"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// SQLSessionStore keeps sessions in the user_sessions table.
type SQLSessionStore struct {
	db  *database.DB
	now func() time.Time
}

// NewSQLSessionStore creates a session store on db.
func NewSQLSessionStore(db *database.DB) *SQLSessionStore {
	return &SQLSessionStore{db: db, now: time.Now}
}

func (s *SQLSessionStore) Create(ctx context.Context, userID string, ttl *time.Duration) (*models.Session, error) {
	if userID == "" {
		return nil, ErrInvalidAttribute
	}
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
		Duration:  ttl,
	}

	var secs sql.NullFloat64
	if ttl != nil {
		secs = sql.NullFloat64{Float64: ttl.Seconds(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		"INSERT INTO user_sessions (id, user_id, created_at, duration_seconds) VALUES (?, ?, ?, ?)"),
		sess.ID, sess.UserID, sess.CreatedAt, secs,
	)
	if err != nil {
		return nil, unavailable("insert session", err)
	}
	return sess, nil
}

func (s *SQLSessionStore) Lookup(ctx context.Context, id string) (*models.Session, error) {
	var (
		sess models.Session
		secs sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		"SELECT id, user_id, created_at, duration_seconds FROM user_sessions WHERE id = ?"), id,
	).Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &secs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get session", err)
	}
	if secs.Valid {
		d := time.Duration(secs.Float64 * float64(time.Second))
		sess.Duration = &d
	}
	return &sess, nil
}

func (s *SQLSessionStore) Resolve(ctx context.Context, id string) (string, error) {
	sess, err := s.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

func (s *SQLSessionStore) Destroy(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM user_sessions WHERE id = ?"), id)
	if err != nil {
		return unavailable("delete session", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete session", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired removes every session with a duration that elapsed by now.
func (s *SQLSessionStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, created_at, duration_seconds FROM user_sessions WHERE duration_seconds IS NOT NULL")
	if err != nil {
		return 0, unavailable("list sessions", err)
	}

	var expired []string
	for rows.Next() {
		var (
			sess models.Session
			secs float64
		)
		if err := rows.Scan(&sess.ID, &sess.CreatedAt, &secs); err != nil {
			rows.Close()
			return 0, unavailable("scan session", err)
		}
		d := time.Duration(secs * float64(time.Second))
		sess.Duration = &d
		if sess.Expired(now) {
			expired = append(expired, sess.ID)
		}
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return 0, unavailable("list sessions", err)
	}

	removed := 0
	for _, id := range expired {
		if err := s.Destroy(ctx, id); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}
	return removed, nil
}
