package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cloo-solutions/askdsa/internal/domain"
)

const sessionKeyPrefix = "askdsa:session:"

// RedisStore keeps session histories in Redis so they survive restarts and
// can be shared across replicas. Each session is a list of JSON-encoded
// turns.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed store. A ttl of zero keeps sessions
// until Redis evicts them.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// History returns the session's turns in order. A session with no key yet is
// an empty history, not an error.
func (s *RedisStore) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	raw, err := s.client.LRange(ctx, sessionKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}

	turns := make([]domain.Turn, 0, len(raw))
	for _, item := range raw {
		var turn domain.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			return nil, fmt.Errorf("failed to decode session turn: %w", err)
		}
		turns = append(turns, turn)
	}

	return turns, nil
}

// AppendExchange pushes both turns in a single RPUSH so the pair lands
// atomically.
func (s *RedisStore) AppendExchange(ctx context.Context, sessionID string, user, model domain.Turn) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user turn: %w", err)
	}
	modelJSON, err := json.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to encode model turn: %w", err)
	}

	key := sessionKey(sessionID)
	if err := s.client.RPush(ctx, key, userJSON, modelJSON).Err(); err != nil {
		return fmt.Errorf("failed to append session turns: %w", err)
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("failed to refresh session ttl: %w", err)
		}
	}

	return nil
}
