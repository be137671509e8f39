package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/review-runner/pkg/redis"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionStore keeps identities in redis under random tokens.
type SessionStore struct {
	rdb redis.RedisAdapter
	ttl time.Duration
}

func NewSessionStore(rdb redis.RedisAdapter, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func (s *SessionStore) Create(ctx context.Context, identity *Identity) (string, error) {
	token := uuid.NewString()
	stored := *identity
	stored.Roles = nil
	payload, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+token, payload, s.ttl); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return token, nil
}

func (s *SessionStore) Get(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrSessionNotFound
	}
	payload, err := s.rdb.Get(ctx, sessionKeyPrefix+token)
	if err != nil {
		if redis.IsNil(err) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	var identity Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &identity, nil
}

func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.rdb.Del(ctx, sessionKeyPrefix+token)
}
