package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/store"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims represents the claims in a JWT token. The subject is the
// user id.
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager handles token operations
type TokenManager struct {
	secretKey []byte
	ttl       time.Duration
	now       func() time.Time
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secretKey string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		now:       time.Now,
	}
}

// GenerateToken creates a new JWT token for a user
func (tm *TokenManager) GenerateToken(u *models.User) (string, error) {
	now := tm.now()
	claims := TokenClaims{
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken validates a JWT token and returns the claims
func (tm *TokenManager) ValidateToken(tokenString string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secretKey, nil
	}, jwt.WithTimeFunc(tm.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// TokenAuth authenticates "Authorization: Bearer" requests carrying
// tokens from its TokenManager.
type TokenAuth struct {
	NoAuth
	users  store.UserStore
	tokens *TokenManager
}

func NewTokenAuth(base NoAuth, users store.UserStore, tokens *TokenManager) *TokenAuth {
	return &TokenAuth{NoAuth: base, users: users, tokens: tokens}
}

func (a *TokenAuth) Name() string { return "token_auth" }

// IssueToken signs a bearer token for u.
func (a *TokenAuth) IssueToken(u *models.User) (string, error) {
	return a.tokens.GenerateToken(u)
}

func (a *TokenAuth) CurrentUser(ctx context.Context, r *http.Request) (*models.User, error) {
	parts := strings.Split(a.AuthorizationHeader(r), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, ErrNoIdentity
	}
	claims, err := a.tokens.ValidateToken(parts[1])
	if err != nil {
		return nil, ErrNoIdentity
	}
	u, err := a.users.Get(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrUnavailable) {
			return nil, err
		}
		return nil, ErrNoIdentity
	}
	return u, nil
}
