package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

const basicPrefix = "Basic "

// ExtractBase64 returns the encoded part of a Basic Authorization header.
func ExtractBase64(header string) (string, bool) {
	encoded, ok := strings.CutPrefix(header, basicPrefix)
	return encoded, ok
}

// DecodeBase64 decodes s as standard base64 holding UTF-8 text.
func DecodeBase64(s string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// ExtractCredentials splits "email:password" on the first colon, so the
// password may itself contain colons.
func ExtractCredentials(decoded string) (email, password string, ok bool) {
	return strings.Cut(decoded, ":")
}

// BasicAuth authenticates "Authorization: Basic" requests against a
// user store.
type BasicAuth struct {
	NoAuth
	users  store.UserStore
	hasher Hasher
}

func NewBasicAuth(base NoAuth, users store.UserStore, hasher Hasher) *BasicAuth {
	return &BasicAuth{NoAuth: base, users: users, hasher: hasher}
}

func (a *BasicAuth) Name() string { return "basic_auth" }

// UserFromCredentials returns the first user with this email whose digest
// verifies against password.
func (a *BasicAuth) UserFromCredentials(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	users, err := a.users.Find(ctx, models.Query{models.AttrEmail: email})
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return nil, err
		}
		return nil, ErrNoIdentity
	}
	if len(users) == 0 {
		return nil, ErrNoIdentity
	}
	for _, u := range users {
		if a.hasher.Verify(password, u.HashedPassword) {
			return u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func (a *BasicAuth) CurrentUser(ctx context.Context, r *http.Request) (*models.User, error) {
	encoded, ok := ExtractBase64(a.AuthorizationHeader(r))
	if !ok {
		return nil, ErrNoIdentity
	}
	decoded, ok := DecodeBase64(encoded)
	if !ok {
		return nil, ErrNoIdentity
	}
	email, password, ok := ExtractCredentials(decoded)
	if !ok {
		return nil, ErrNoIdentity
	}
	return a.UserFromCredentials(ctx, email, password)
}
