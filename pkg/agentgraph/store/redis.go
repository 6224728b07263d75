package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore is a Redis-backed Store. Each namespace maps to one Redis hash
// whose fields are item keys and whose values are serialized items, plus a
// set tracking known namespaces for ListNamespaces.
type RedisStore struct {
	client *backend.Client
	prefix string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore creates a Redis store against the given address.
func NewRedisStore(addr, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient creates a Redis store from an existing client.
// Close closes the client.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client: client,
		prefix: "agentgraph:store:",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) hashKey(namespace []string) string {
	return s.prefix + strings.Join(namespace, "/")
}

func (s *RedisStore) indexKey() string {
	return s.prefix + "namespaces"
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, namespace []string, key string) (*Item, error) {
	data, err := s.client.HGet(ctx, s.hashKey(namespace), key).Result()
	if err == backend.Nil {
		return nil, fmt.Errorf("%w: %v/%s", ErrNotFound, namespace, key)
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	var item Item
	if err := json.Unmarshal([]byte(data), &item); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return &item, nil
}

// Put implements Store.
func (s *RedisStore) Put(ctx context.Context, namespace []string, key string, value map[string]any) error {
	item := &Item{
		Namespace: append([]string(nil), namespace...),
		Key:       key,
		Value:     value,
	}

	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now
	if existing, err := s.Get(ctx, namespace, key); err == nil {
		item.CreatedAt = existing.CreatedAt
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode item: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.hashKey(namespace), key, data)
	pipe.SAdd(ctx, s.indexKey(), strings.Join(namespace, "/"))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// Search implements Store with substring matching; Score stays nil.
func (s *RedisStore) Search(ctx context.Context, namespace []string, query string, limit int) ([]*Item, error) {
	namespaces, err := s.ListNamespaces(ctx, namespace)
	if err != nil {
		return nil, err
	}

	var results []*Item
	for _, ns := range namespaces {
		fields, err := s.client.HGetAll(ctx, s.hashKey(ns)).Result()
		if err != nil {
			return nil, fmt.Errorf("search namespace %v: %w", ns, err)
		}
		for _, data := range fields {
			var item Item
			if err := json.Unmarshal([]byte(data), &item); err != nil {
				return nil, fmt.Errorf("decode item: %w", err)
			}
			if query == "" || itemMatches(&item, query) {
				results = append(results, &item)
			}
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if !results[i].UpdatedAt.Equal(results[j].UpdatedAt) {
			return results[i].UpdatedAt.After(results[j].UpdatedAt)
		}
		return results[i].Key < results[j].Key
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Delete implements Store.
func (s *RedisStore) Delete(ctx context.Context, namespace []string, key string) error {
	if err := s.client.HDel(ctx, s.hashKey(namespace), key).Err(); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ListNamespaces implements Store.
func (s *RedisStore) ListNamespaces(ctx context.Context, prefix []string) ([][]string, error) {
	members, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}

	joined := strings.Join(prefix, "/")
	var namespaces [][]string
	for _, member := range members {
		if joined != "" && member != joined && !strings.HasPrefix(member, joined+"/") {
			continue
		}
		namespaces = append(namespaces, strings.Split(member, "/"))
	}

	sort.Slice(namespaces, func(i, j int) bool {
		return strings.Join(namespaces[i], "/") < strings.Join(namespaces[j], "/")
	})
	return namespaces, nil
}

// Close implements Store.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
