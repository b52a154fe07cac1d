package auth

import (
	"errors"
	"fmt"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/config"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

// Deps are the collaborators a strategy may need.
type Deps struct {
	Users  store.UserStore
	Hasher Hasher
	// Sessions is the durable store used by session_db_auth.
	Sessions store.SessionStore
}

// New builds the strategy named by cfg.Type.
func New(cfg config.AuthConfig, deps Deps) (Authenticator, error) {
	base := NoAuth{Excluded: cfg.ExcludedPaths, SessionName: cfg.SessionName}

	switch cfg.Type {
	case config.AuthDisabled:
		return &Disabled{NoAuth: base}, nil
	case config.AuthNone:
		return &base, nil
	case config.AuthBasic:
		if deps.Hasher == nil {
			return nil, errors.New("basic_auth needs a hasher")
		}
		return NewBasicAuth(base, deps.Users, deps.Hasher), nil
	case config.AuthSession:
		return NewSessionAuth(cfg.Type, base, deps.Users, store.NewMemorySessionStore(), nil), nil
	case config.AuthSessionExp:
		sessions := store.NewExpiringSessionStore(store.NewMemorySessionStore())
		return NewSessionAuth(cfg.Type, base, deps.Users, sessions, cfg.SessionTTL()), nil
	case config.AuthSessionDB:
		if deps.Sessions == nil {
			return nil, errors.New("session_db_auth needs a session store")
		}
		sessions := store.NewExpiringSessionStore(deps.Sessions)
		return NewSessionAuth(cfg.Type, base, deps.Users, sessions, cfg.SessionTTL()), nil
	case config.AuthToken:
		if cfg.TokenSecret == "" {
			return nil, errors.New("token_auth needs a token secret")
		}
		return NewTokenAuth(base, deps.Users, NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)), nil
	}
	return nil, fmt.Errorf("unknown auth type %q", cfg.Type)
}
