package store

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/database"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

const userColumns = "id, email, hashed_password, first_name, last_name, session_id, reset_token, created_at, updated_at"

// SQLUserStore keeps users in the users table.
type SQLUserStore struct {
	db  *database.DB
	mu  sync.Mutex
	now func() time.Time
}

// NewSQLUserStore creates a user store on db. The schema must be migrated.
func NewSQLUserStore(db *database.DB) *SQLUserStore {
	return &SQLUserStore{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                                  models.User
		first, last, sessionID, resetToken sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.HashedPassword, &first, &last, &sessionID, &resetToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.FirstName = first.String
	u.LastName = last.String
	u.SessionID = sessionID.String
	u.ResetToken = resetToken.String
	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (s *SQLUserStore) Add(ctx context.Context, u *models.User) error {
	id := u.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, s.db.Rebind(
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		id, u.Email, u.HashedPassword,
		nullString(u.FirstName), nullString(u.LastName),
		nullString(u.SessionID), nullString(u.ResetToken),
		now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return unavailable("insert user", err)
	}
	u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
	return nil
}

func (s *SQLUserStore) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, s.db.Rebind(
		"SELECT "+userColumns+" FROM users WHERE id = ?"), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get user", err)
	}
	return u, nil
}

// Find matches empty values against NULL columns too.
func (s *SQLUserStore) Find(ctx context.Context, q models.Query) ([]*models.User, error) {
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	attrs := make([]models.Attr, 0, len(q))
	for a := range q {
		attrs = append(attrs, a)
	}
	slices.Sort(attrs)

	var (
		where []string
		args  []any
	)
	for _, a := range attrs {
		col := string(a)
		if q[a] == "" {
			where = append(where, "("+col+" IS NULL OR "+col+" = '')")
			continue
		}
		where = append(where, col+" = ?")
		args = append(args, q[a])
	}

	query := "SELECT " + userColumns + " FROM users"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, unavailable("find users", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, unavailable("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("find users", err)
	}
	return users, nil
}

func (s *SQLUserStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM users WHERE id = ?"), id)
	if err != nil {
		return unavailable("delete user", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return unavailable("delete user", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLUserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, unavailable("count users", err)
	}
	return n, nil
}

func (s *SQLUserStore) Update(ctx context.Context, id string, changes models.Changes) (*models.User, error) {
	if err := validateChanges(changes); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for a, v := range changes {
		u.Set(a, v)
	}
	u.UpdatedAt = s.now().UTC()

	_, err = s.db.ExecContext(ctx, s.db.Rebind(`UPDATE users SET
		email = ?, hashed_password = ?, first_name = ?, last_name = ?,
		session_id = ?, reset_token = ?, updated_at = ?
		WHERE id = ?`),
		u.Email, u.HashedPassword,
		nullString(u.FirstName), nullString(u.LastName),
		nullString(u.SessionID), nullString(u.ResetToken),
		u.UpdatedAt, id,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, unavailable("update user", err)
	}
	return u, nil
}
