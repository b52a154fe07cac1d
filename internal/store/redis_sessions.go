package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Khofi-Adjei007/alx-backend-user-data/internal/models"
)

// RedisSessionStore keeps each session under <prefix><id>. Positive
// durations become native key expiry.
type RedisSessionStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRedisSessionStore creates a session store on client.
func NewRedisSessionStore(client redis.UniversalClient, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisSessionStore{client: client, prefix: prefix, now: time.Now}
}

type redisSession struct {
	UserID          string   `json:"user_id"`
	CreatedAt       int64    `json:"created_at"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

func (s *RedisSessionStore) key(id string) string {
	return s.prefix + id
}

func (s *RedisSessionStore) Create(ctx context.Context, userID string, ttl *time.Duration) (*models.Session, error) {
	if userID == "" {
		return nil, ErrInvalidAttribute
	}
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: s.now().UTC(),
		Duration:  ttl,
	}

	rec := redisSession{UserID: userID, CreatedAt: sess.CreatedAt.UnixNano()}
	var expiration time.Duration
	if ttl != nil {
		secs := ttl.Seconds()
		rec.DurationSeconds = &secs
		if *ttl > 0 {
			expiration = *ttl
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, expiration).Err(); err != nil {
		return nil, unavailable("store session", err)
	}
	return sess, nil
}

func (s *RedisSessionStore) Lookup(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get session", err)
	}

	var rec redisSession
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, unavailable("decode session", err)
	}
	sess := &models.Session{
		ID:        id,
		UserID:    rec.UserID,
		CreatedAt: time.Unix(0, rec.CreatedAt).UTC(),
	}
	if rec.DurationSeconds != nil {
		d := time.Duration(*rec.DurationSeconds * float64(time.Second))
		sess.Duration = &d
	}
	return sess, nil
}

func (s *RedisSessionStore) Resolve(ctx context.Context, id string) (string, error) {
	sess, err := s.Lookup(ctx, id)
	if err != nil {
		return "", err
	}
	return sess.UserID, nil
}

func (s *RedisSessionStore) Destroy(ctx context.Context, id string) error {
	n, err := s.client.Del(ctx, s.key(id)).Result()
	if err != nil {
		return unavailable("delete session", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
