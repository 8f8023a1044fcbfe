package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"social-hub/domain/model"
)

const statePrefix = "oauth_state:"

// RedisStateStore keeps OAuth state records in Redis with a TTL, so pending
// authorizations survive restarts and are shared across instances.
type RedisStateStore struct {
	client *redis.Client
}

func NewRedisStateStore(client *redis.Client) *RedisStateStore {
	return &RedisStateStore{client: client}
}

func (s *RedisStateStore) Save(ctx context.Context, state string, data *model.OAuthState, ttl time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statePrefix+state, b, ttl).Err()
}

func (s *RedisStateStore) Take(ctx context.Context, state string) (*model.OAuthState, error) {
	b, err := s.client.GetDel(ctx, statePrefix+state).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var data model.OAuthState
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// MemoryStateStore is the single-instance fallback when Redis is not
// configured. Expiry is enforced on read.
type MemoryStateStore struct {
	mu      sync.Mutex
	entries map[string]memoryStateEntry
}

type memoryStateEntry struct {
	data      *model.OAuthState
	expiresAt time.Time
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{entries: make(map[string]memoryStateEntry)}
}

func (s *MemoryStateStore) Save(_ context.Context, state string, data *model.OAuthState, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[state] = memoryStateEntry{data: data, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (s *MemoryStateStore) Take(_ context.Context, state string) (*model.OAuthState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[state]
	if !ok {
		return nil, nil
	}
	delete(s.entries, state)
	if time.Now().After(entry.expiresAt) {
		return nil, nil
	}
	return entry.data, nil
}
