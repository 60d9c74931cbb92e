package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/conduit/internal/logging"
	"github.com/aretw0/conduit/pkg/domain"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "conduit.yaml"

// RedisConfig configures the Redis report store and locker.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// StoreConfig selects where reports are kept.
type StoreConfig struct {
	// Driver is "memory" (default) or "redis".
	Driver string      `yaml:"driver" json:"driver"`
	Redis  RedisConfig `yaml:"redis" json:"redis"`

	// EncryptionKey is a hex encoded 32 byte key. When set, reports are
	// stored sealed. FallbackKeys are tried on load after a rotation.
	EncryptionKey string   `yaml:"encryption_key" json:"encryption_key"`
	FallbackKeys  []string `yaml:"fallback_keys" json:"fallback_keys"`

	// Redact lists regular expressions masked out of stored report text.
	Redact []string `yaml:"redact" json:"redact"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}

// Config is the content of conduit.yaml.
type Config struct {
	MaxSteps  int         `yaml:"max_steps" json:"max_steps"`
	MaxStacks int         `yaml:"max_stacks" json:"max_stacks"`
	LogLevel  string      `yaml:"log_level" json:"log_level"`
	LogFormat string      `yaml:"log_format" json:"log_format"`
	CacheSize int         `yaml:"cache_size" json:"cache_size"`
	Env       domain.Env  `yaml:"env" json:"env"`
	Store     StoreConfig `yaml:"store" json:"store"`
	HTTP      HTTPConfig  `yaml:"http" json:"http"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		MaxSteps:  1000,
		MaxStacks: 50000,
		LogLevel:  "info",
		CacheSize: 64,
		Store: StoreConfig{
			Driver: "memory",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "conduit:",
			},
		},
		HTTP: HTTPConfig{Port: 8080},
	}
}

// Load reads a YAML (or .json) config file over the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the commands cannot act on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "", "memory", "redis":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative")
	}
	if c.MaxStacks < 0 {
		return fmt.Errorf("max_stacks must not be negative")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	for _, k := range append([]string{c.Store.EncryptionKey}, c.Store.FallbackKeys...) {
		if k == "" {
			continue
		}
		if _, err := DecodeKey(k); err != nil {
			return err
		}
	}
	return nil
}

// DecodeKey parses a hex encoded 32 byte key.
func DecodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid encryption key: want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
