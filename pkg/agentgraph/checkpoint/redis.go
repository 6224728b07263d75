package checkpoint

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore persists checkpoints to Redis, one sorted set per thread
// scored by step. Suitable when threads must survive process restarts and
// be shared across workers.
type RedisStore struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the Redis key prefix for checkpoints.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis checkpoint store against the given address.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient creates a Redis checkpoint store from an existing
// client. The caller retains ownership of the client; Close closes it.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "agentgraph:checkpoint:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(threadID string) string {
	return s.prefix + threadID
}

// Put implements Store. Same-step writes replace the previous record.
func (s *RedisStore) Put(ctx context.Context, cp *Checkpoint) error {
	data, err := cp.Marshal()
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	key := s.key(cp.ThreadID)
	pipe := s.client.TxPipeline()
	// Drop any existing record at this step before adding the new one;
	// sorted-set members are unique by value, not by score.
	pipe.ZRemRangeByScore(ctx, key, fmt.Sprint(cp.Step), fmt.Sprint(cp.Step))
	pipe.ZAdd(ctx, key, backend.Z{Score: float64(cp.Step), Member: data})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put checkpoint: %w", err)
	}
	return nil
}

// Latest implements Store.
func (s *RedisStore) Latest(ctx context.Context, threadID string) (*Checkpoint, error) {
	values, err := s.client.ZRevRange(ctx, s.key(threadID), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	return Unmarshal([]byte(values[0]))
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, threadID string) ([]*Checkpoint, error) {
	values, err := s.client.ZRange(ctx, s.key(threadID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}

	cps := make([]*Checkpoint, 0, len(values))
	for _, v := range values {
		cp, err := Unmarshal([]byte(v))
		if err != nil {
			return nil, err
		}
		cps = append(cps, cp)
	}
	return cps, nil
}

// DeleteThread implements Store.
func (s *RedisStore) DeleteThread(ctx context.Context, threadID string) error {
	if err := s.client.Del(ctx, s.key(threadID)).Err(); err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
