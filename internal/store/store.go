// Package store holds the identity and session stores and their backing
// media: JSON documents (local disk or S3), SQL tables and Redis.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAttribute = errors.New("invalid attribute")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrSessionExpired   = errors.New("session has expired")

	// ErrUnavailable wraps failures of the persistence medium.
	ErrUnavailable = errors.New("store unavailable")
)

// UserStore is the identity store.
type UserStore interface {
	// Add assigns an id and timestamps to u and persists it.
	Add(ctx context.Context, u *models.User) error
	Get(ctx context.Context, id string) (*models.User, error)
	// Find returns users matching every attribute in q, in insertion order.
	Find(ctx context.Context, q models.Query) ([]*models.User, error)
	Remove(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	// Update applies changes, refreshes UpdatedAt and returns the saved user.
	Update(ctx context.Context, id string, changes models.Changes) (*models.User, error)
}

// SessionStore maps session ids to the owning user.
type SessionStore interface {
	// Create starts a session for userID. A nil ttl never expires.
	Create(ctx context.Context, userID string, ttl *time.Duration) (*models.Session, error)
	Lookup(ctx context.Context, id string) (*models.Session, error)
	// Resolve returns the user id owning session id.
	Resolve(ctx context.Context, id string) (string, error)
	Destroy(ctx context.Context, id string) error
}

// unavailable tags err as a medium failure.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}

func validateQuery(q models.Query) error {
	for a := range q {
		if !a.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidAttribute, a)
		}
	}
	return nil
}

func validateChanges(c models.Changes) error {
	for a := range c {
		if !a.Valid() || a == models.AttrID {
			return fmt.Errorf("%w: %s", ErrInvalidAttribute, a)
		}
	}
	return nil
}
