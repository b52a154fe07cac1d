// Package service implements the account flows of the user-auth service:
// registration, login, single-session tracking and password reset. The
// session id and reset token live on the user record itself.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/auth"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

type UserService struct {
	users  store.UserStore
	hasher auth.Hasher
	logger *slog.Logger

	// registerMu makes the email check and insert one step.
	registerMu sync.Mutex
}

func NewUserService(users store.UserStore, hasher auth.Hasher, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{users: users, hasher: hasher, logger: logger}
}

// RegisterUser creates a user, failing with ErrDuplicateRegistration when
// the email is taken.
func (s *UserService) RegisterUser(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	existing, err := s.findOne(ctx, models.AttrEmail, email)
	if err != nil && !errors.Is(err, auth.ErrNoIdentity) {
		return nil, err
	}
	if existing != nil {
		return nil, auth.ErrDuplicateRegistration
	}

	u := &models.User{Email: email, HashedPassword: digest}
	if err := s.users.Add(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, auth.ErrDuplicateRegistration
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// ValidLogin reports whether password matches the user registered as email.
func (s *UserService) ValidLogin(ctx context.Context, email, password string) bool {
	u, err := s.findOne(ctx, models.AttrEmail, email)
	if err != nil {
		return false
	}
	return s.hasher.Verify(password, u.HashedPassword)
}

// CreateSession stores a fresh session id on the user, replacing any
// previous one.
func (s *UserService) CreateSession(ctx context.Context, email string) (string, error) {
	u, err := s.findOne(ctx, models.AttrEmail, email)
	if err != nil {
		return "", err
	}
	sessionID := uuid.NewString()
	if _, err := s.users.Update(ctx, u.ID, models.Changes{models.AttrSessionID: sessionID}); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return sessionID, nil
}

func (s *UserService) GetUserFromSessionID(ctx context.Context, sessionID string) (*models.User, error) {
	if sessionID == "" {
		return nil, auth.ErrNoIdentity
	}
	return s.findOne(ctx, models.AttrSessionID, sessionID)
}

func (s *UserService) DestroySession(ctx context.Context, userID string) error {
	if userID == "" {
		return auth.ErrNoIdentity
	}
	if _, err := s.users.Update(ctx, userID, models.Changes{models.AttrSessionID: ""}); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// GetResetPasswordToken issues a reset token for the user registered as
// email. Tokens do not expire; a new request replaces the old token.
func (s *UserService) GetResetPasswordToken(ctx context.Context, email string) (string, error) {
	u, err := s.findOne(ctx, models.AttrEmail, email)
	if err != nil {
		return "", err
	}
	token := uuid.NewString()
	if _, err := s.users.Update(ctx, u.ID, models.Changes{models.AttrResetToken: token}); err != nil {
		return "", fmt.Errorf("failed to store reset token: %w", err)
	}
	return token, nil
}

// UpdatePassword consumes resetToken and sets a new password.
func (s *UserService) UpdatePassword(ctx context.Context, resetToken, password string) error {
	if resetToken == "" || password == "" {
		return auth.ErrInvalidResetToken
	}
	u, err := s.findOne(ctx, models.AttrResetToken, resetToken)
	if err != nil {
		if errors.Is(err, auth.ErrNoIdentity) {
			return auth.ErrInvalidResetToken
		}
		return err
	}
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	_, err = s.users.Update(ctx, u.ID, models.Changes{
		models.AttrHashedPassword: digest,
		models.AttrResetToken:     "",
	})
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	s.logger.InfoContext(ctx, "password updated", "user_id", u.ID)
	return nil
}

// findOne returns the first user whose attr equals value, or ErrNoIdentity.
func (s *UserService) findOne(ctx context.Context, attr models.Attr, value string) (*models.User, error) {
	if value == "" {
		return nil, auth.ErrNoIdentity
	}
	found, err := s.users.Find(ctx, models.Query{attr: value})
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, auth.ErrNoIdentity
	}
	return found[0], nil
}
