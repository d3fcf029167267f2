package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// SessionStore keeps one live session per user in Redis. Logging in again
// replaces the previous session and restarts its TTL.
type SessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSessionStore(rdb redis.Cmdable, ttl time.Duration) *SessionStore {
	return &SessionStore{rdb: rdb, ttl: ttl}
}

func (s *SessionStore) TTL() time.Duration { return s.ttl }

// Create starts a session for userID and returns its token.
func (s *SessionStore) Create(ctx context.Context, userID int64) (string, error) {
	if err := s.InvalidateUser(ctx, userID); err != nil {
		return "", err
	}

	token := uuid.NewString()
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, SessionKeyPrefix+token, strconv.FormatInt(userID, 10), s.ttl)
		pipe.Set(ctx, userSessionKey(userID), token, s.ttl)
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Validate returns the user owning token. ok is false for unknown or
// expired sessions.
func (s *SessionStore) Validate(ctx context.Context, token string) (userID int64, ok bool, err error) {
	if token == "" {
		return 0, false, nil
	}
	raw, err := s.rdb.Get(ctx, SessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	userID, err = strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

// Invalidate removes a session from Redis
func (s *SessionStore) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	userID, ok, err := s.Validate(ctx, token)
	if err != nil {
		return err
	}
	keys := []string{SessionKeyPrefix + token}
	if ok {
		keys = append(keys, userSessionKey(userID))
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// InvalidateUser drops whatever session the user currently has.
func (s *SessionStore) InvalidateUser(ctx context.Context, userID int64) error {
	key := userSessionKey(userID)
	token, err := s.rdb.Get(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := []string{key}
	if token != "" {
		keys = append(keys, SessionKeyPrefix+token)
	}
	return s.rdb.Del(ctx, keys...).Err()
}

func userSessionKey(userID int64) string {
	return UserSessionKeyPrefix + strconv.FormatInt(userID, 10)
}
