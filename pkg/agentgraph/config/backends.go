package config

import (
	"fmt"

	"github.com/mkoricho/agentgraph/pkg/agentgraph/checkpoint"
	"github.com/mkoricho/agentgraph/pkg/agentgraph/store"
)

// BuildCheckpointer constructs the configured checkpoint backend.
// The caller owns the returned store and must Close it.
func (c *Config) BuildCheckpointer() (checkpoint.Store, error) {
	switch c.Checkpoint.Backend {
	case "", BackendMemory:
		return checkpoint.NewMemoryStore(), nil
	case BackendSQLite:
		path := c.Checkpoint.Path
		if path == "" {
			return nil, fmt.Errorf("sqlite checkpoint backend requires a path")
		}
		return checkpoint.NewSQLiteStore(path)
	case BackendRedis:
		if c.Checkpoint.Redis.Addr == "" {
			return nil, fmt.Errorf("redis checkpoint backend requires an addr")
		}
		return checkpoint.NewRedisStore(
			c.Checkpoint.Redis.Addr,
			c.Checkpoint.Redis.Password,
			c.Checkpoint.Redis.DB,
		), nil
	default:
		return nil, fmt.Errorf("unknown checkpoint backend: %s", c.Checkpoint.Backend)
	}
}

// BuildStore constructs the configured key-value store backend.
// The caller owns the returned store and must Close it.
func (c *Config) BuildStore() (store.Store, error) {
	switch c.Store.Backend {
	case "", BackendMemory:
		return store.NewMemoryStore(), nil
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return nil, fmt.Errorf("redis store backend requires an addr")
		}
		return store.NewRedisStore(
			c.Store.Redis.Addr,
			c.Store.Redis.Password,
			c.Store.Redis.DB,
		), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", c.Store.Backend)
	}
}
