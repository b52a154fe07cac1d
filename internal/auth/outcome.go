package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// Outcome is the gate's decision for one request.
type Outcome int

const (
	// Allowed means the path is excluded; no identity is attached.
	Allowed Outcome = iota
	Authenticated
	// Unauthorized means the request carried neither header nor cookie.
	Unauthorized
	// Forbidden means credentials were present but resolved to nobody.
	Forbidden
)

func (o Outcome) String() string {
	switch o {
	case Allowed:
		return "allowed"
	case Authenticated:
		return "authenticated"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	}
	return "unknown"
}

// Evaluate classifies r under a. The returned error is non-nil only when a
// store failed; the outcome is then Forbidden and must not be trusted.
func Evaluate(ctx context.Context, a Authenticator, r *http.Request) (Outcome, *models.User, error) {
	if !a.RequireAuth(r.URL.Path) {
		return Allowed, nil, nil
	}
	if a.AuthorizationHeader(r) == "" && a.SessionCookie(r) == "" {
		return Unauthorized, nil, nil
	}
	u, err := a.CurrentUser(ctx, r)
	switch {
	case err == nil && u != nil:
		return Authenticated, u, nil
	case err == nil, errors.Is(err, ErrNoIdentity), errors.Is(err, ErrInvalidCredentials):
		return Forbidden, nil, nil
	}
	return Forbidden, nil, err
}
