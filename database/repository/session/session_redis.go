package sessionRepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"stayloom/models"
)

const (
	sessionKeyPrefix = "negotiation:session:"
	lockKeyPrefix    = "negotiation:lock:"
	openIndexKey     = "negotiation:open"
)

// RedisSessionStore is the Redis implementation of SessionStore. Sessions
// are stored as JSON with a TTL; the open-session index set feeds the
// expiry sweep; locks are SETNX keys with their own TTL so a crashed
// holder cannot wedge a session forever.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore wraps the given Redis client.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*models.NegotiationSession, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch session %s: %w", sessionID, err)
	}
	var session models.NegotiationSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", sessionID, err)
	}
	return &session, nil
}

func (s *RedisSessionStore) Save(ctx context.Context, session *models.NegotiationSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session %s: %w", session.SessionID, err)
	}
	// Live sessions are kept well past the inactivity window so the sweep,
	// not key eviction, decides when a session expires.
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.SessionID, data, 4*ttl)
	if session.Status == models.SessionOpen {
		pipe.SAdd(ctx, openIndexKey, session.SessionID)
	} else {
		pipe.SRem(ctx, openIndexKey, session.SessionID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store session %s: %w", session.SessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+sessionID)
	pipe.SRem(ctx, openIndexKey, sessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) Acquire(ctx context.Context, sessionID string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, lockKeyPrefix+sessionID, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock for session %s: %w", sessionID, err)
	}
	return ok, nil
}

func (s *RedisSessionStore) Release(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, lockKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("failed to release lock for session %s: %w", sessionID, err)
	}
	return nil
}

func (s *RedisSessionStore) OpenSessionIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, openIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	return ids, nil
}
