// Package config loads runner configuration for agentgraph applications
// from YAML or JSON files and the environment, and builds the persistence
// backends it names.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Checkpoint backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config is the runner configuration.
type Config struct {
	// MaxSteps bounds node executions per invocation. Zero means the
	// engine default.
	MaxSteps int `yaml:"max_steps" json:"max_steps"`

	// ToolConcurrency bounds concurrent tool calls per tool-node step.
	// Zero means the engine default.
	ToolConcurrency int `yaml:"tool_concurrency" json:"tool_concurrency"`

	// Checkpoint selects and configures the checkpoint backend.
	Checkpoint CheckpointConfig `yaml:"checkpoint" json:"checkpoint"`

	// Store selects and configures the shared key-value store backend.
	Store StoreConfig `yaml:"store" json:"store"`

	// Logging configures the slog handler.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Model configures the default chat model endpoint.
	Model ModelConfig `yaml:"model" json:"model"`
}

// CheckpointConfig selects a checkpoint backend.
type CheckpointConfig struct {
	// Backend is one of memory, sqlite, redis. Empty means memory.
	Backend string `yaml:"backend" json:"backend"`

	// Path is the database file for the sqlite backend.
	Path string `yaml:"path" json:"path"`

	// Redis holds connection settings for the redis backend.
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// StoreConfig selects a key-value store backend.
type StoreConfig struct {
	// Backend is one of memory, redis. Empty means memory.
	Backend string `yaml:"backend" json:"backend"`

	// Redis holds connection settings for the redis backend.
	Redis RedisConfig `yaml:"redis" json:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `yaml:"level" json:"level"`

	// JSON selects the JSON handler instead of text.
	JSON bool `yaml:"json" json:"json"`
}

// ModelConfig configures the default chat model endpoint.
// The API key is never read from files; it comes from the environment.
type ModelConfig struct {
	// Name is the model identifier, e.g. "gpt-4o-mini".
	Name string `yaml:"name" json:"name"`

	// BaseURL overrides the provider endpoint, for proxies and
	// OpenAI-compatible providers.
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// Default returns the configuration used when nothing is specified: an
// in-memory checkpointer and store, info-level text logging, engine-default
// limits.
func Default() Config {
	return Config{
		Checkpoint: CheckpointConfig{Backend: BackendMemory},
		Store:      StoreConfig{Backend: BackendMemory},
		Logging:    LoggingConfig{Level: "info"},
	}
}

// FromFile loads configuration from a file, auto-detecting the format by
// extension. Supported extensions: .yaml, .yml, .json. Fields not present
// keep their Default() values.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Config{}, fmt.Errorf("unsupported config file extension: %s", path)
	}
}

// FromYAML parses YAML data into a Config. ${VAR} references are expanded
// from the environment before parsing.
func FromYAML(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(expandEnv(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// FromJSON parses JSON data into a Config. ${VAR} references are expanded
// from the environment before parsing.
func FromJSON(data []byte) (Config, error) {
	cfg := Default()
	if err := json.Unmarshal(expandEnv(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse json: %w", err)
	}
	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{(\w+)\}`)

// expandEnv substitutes ${VAR} references with environment values.
// Bare $VAR is left alone so literal dollar signs in values survive.
func expandEnv(data []byte) []byte {
	return envRef.ReplaceAllFunc(data, func(m []byte) []byte {
		return []byte(os.Getenv(string(m[2 : len(m)-1])))
	})
}

// LoadEnv loads a .env file if one exists and applies AGENTGRAPH_*
// environment overrides to the config. A missing .env file is not an error.
//
// Recognized variables: AGENTGRAPH_MAX_STEPS, AGENTGRAPH_TOOL_CONCURRENCY,
// AGENTGRAPH_CHECKPOINT_BACKEND, AGENTGRAPH_CHECKPOINT_PATH,
// AGENTGRAPH_REDIS_ADDR, AGENTGRAPH_LOG_LEVEL, AGENTGRAPH_MODEL.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	if v := os.Getenv("AGENTGRAPH_MAX_STEPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxSteps = n
		}
	}
	if v := os.Getenv("AGENTGRAPH_TOOL_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ToolConcurrency = n
		}
	}
	if v := os.Getenv("AGENTGRAPH_CHECKPOINT_BACKEND"); v != "" {
		c.Checkpoint.Backend = v
	}
	if v := os.Getenv("AGENTGRAPH_CHECKPOINT_PATH"); v != "" {
		c.Checkpoint.Path = v
	}
	if v := os.Getenv("AGENTGRAPH_REDIS_ADDR"); v != "" {
		c.Checkpoint.Redis.Addr = v
		c.Store.Redis.Addr = v
	}
	if v := os.Getenv("AGENTGRAPH_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("AGENTGRAPH_MODEL"); v != "" {
		c.Model.Name = v
	}
}

// Logger builds a slog logger from the logging configuration.
func (c *Config) Logger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.JSON {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
