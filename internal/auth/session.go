package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

// SessionAuth authenticates requests by a session cookie. Expiry and
// durability come from the session store it is given.
type SessionAuth struct {
	NoAuth
	name     string
	users    store.UserStore
	sessions store.SessionStore
	ttl      *time.Duration
}

// NewSessionAuth builds a session strategy reported as name. Sessions are
// created with ttl; nil never expires.
func NewSessionAuth(name string, base NoAuth, users store.UserStore, sessions store.SessionStore, ttl *time.Duration) *SessionAuth {
	return &SessionAuth{
		NoAuth:   base,
		name:     name,
		users:    users,
		sessions: sessions,
		ttl:      ttl,
	}
}

func (a *SessionAuth) Name() string { return a.name }

// CreateSession starts a session for userID and returns its id.
func (a *SessionAuth) CreateSession(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", ErrNoIdentity
	}
	sess, err := a.sessions.Create(ctx, userID, a.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return sess.ID, nil
}

// UserIDForSession returns the owner of a live session.
func (a *SessionAuth) UserIDForSession(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", ErrNoIdentity
	}
	userID, err := a.sessions.Resolve(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return "", err
		}
		return "", ErrNoIdentity
	}
	return userID, nil
}

// DestroySession ends the session named by the request cookie. It reports
// false when there was no live session to end; the error is set only when
// the session store failed.
func (a *SessionAuth) DestroySession(ctx context.Context, r *http.Request) (bool, error) {
	sessionID := a.SessionCookie(r)
	if _, err := a.UserIDForSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return false, err
		}
		return false, nil
	}
	if err := a.sessions.Destroy(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to destroy session: %w", err)
	}
	return true, nil
}

func (a *SessionAuth) CurrentUser(ctx context.Context, r *http.Request) (*models.User, error) {
	userID, err := a.UserIDForSession(ctx, a.SessionCookie(r))
	if err != nil {
		return nil, err
	}
	u, err := a.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return nil, err
		}
		return nil, ErrNoIdentity
	}
	return u, nil
}
