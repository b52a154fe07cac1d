package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/config"
)

// Hasher turns passwords into digests and checks them.
type Hasher interface {
	Hash(plaintext string) (string, error)
	// Verify reports whether digest was produced from plaintext.
	Verify(plaintext, digest string) bool
}

// BcryptHasher is the salted hasher used for all new records.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(plaintext string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

func (h BcryptHasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}

// SHA256Hasher stores unsalted lowercase hex digests. It only exists to
// read user documents written by older deployments.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(plaintext, digest string) bool {
	if digest == "" {
		return false
	}
	want, _ := h.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(want), []byte(strings.ToLower(digest))) == 1
}

// NewHasher picks the hasher named in cfg.
func NewHasher(cfg config.AuthConfig) (Hasher, error) {
	switch cfg.Hasher {
	case "", "bcrypt":
		return BcryptHasher{Cost: cfg.BcryptCost}, nil
	case "sha256":
		return SHA256Hasher{}, nil
	}
	return nil, fmt.Errorf("unknown hasher %q", cfg.Hasher)
}
