// Package config loads worktrack settings from an optional YAML file
// overlaid by WORKTRACK_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/worktrack/internal/auth"
	"github.com/roach88/worktrack/internal/store"
)

// Backend names a key-value substrate.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendRedis  Backend = "redis"
)

// Defaults.
const (
	DefaultSQLitePath = "worktrack.db"
	DefaultRedisAddr  = "localhost:6379"
)

// Environment variable names.
const (
	EnvBackend        = "WORKTRACK_BACKEND"
	EnvSQLitePath     = "WORKTRACK_SQLITE_PATH"
	EnvRedisAddr      = "WORKTRACK_REDIS_ADDR"
	EnvRedisPassword  = "WORKTRACK_REDIS_PASSWORD"
	EnvRedisDB        = "WORKTRACK_REDIS_DB"
	EnvKeyPrefix      = "WORKTRACK_KEY_PREFIX"
	EnvPasswordPolicy = "WORKTRACK_PASSWORD_POLICY"
)

// Config holds the resolved settings.
type Config struct {
	Backend        Backend     `yaml:"backend"`
	KeyPrefix      string      `yaml:"key_prefix"`
	PasswordPolicy auth.Policy `yaml:"password_policy"`
	SQLite         SQLite      `yaml:"sqlite"`
	Redis          Redis       `yaml:"redis"`
}

// SQLite configures the file-backed substrate.
type SQLite struct {
	Path string `yaml:"path"`
}

// Redis configures the Redis substrate.
type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Backend:        BackendSQLite,
		KeyPrefix:      store.DefaultKeyPrefix,
		PasswordPolicy: auth.PolicyAny,
		SQLite:         SQLite{Path: DefaultSQLitePath},
		Redis:          Redis{Addr: DefaultRedisAddr},
	}
}

// Load resolves settings from defaults, then the YAML file at path, then the
// environment. An empty path skips the file. A missing file is an error only
// when required is set.
func Load(path string, required bool) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decode(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist) && !required:
		default:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decode(data []byte, cfg *Config) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	cfg.Backend = Backend(getEnv(EnvBackend, string(cfg.Backend)))
	cfg.SQLite.Path = getEnv(EnvSQLitePath, cfg.SQLite.Path)
	cfg.Redis.Addr = getEnv(EnvRedisAddr, cfg.Redis.Addr)
	cfg.Redis.Password = getEnv(EnvRedisPassword, cfg.Redis.Password)
	cfg.PasswordPolicy = auth.Policy(getEnv(EnvPasswordPolicy, string(cfg.PasswordPolicy)))

	// An explicitly empty prefix is allowed.
	if v, ok := os.LookupEnv(EnvKeyPrefix); ok {
		cfg.KeyPrefix = v
	}

	if v := os.Getenv(EnvRedisDB); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", EnvRedisDB, v)
		}
		cfg.Redis.DB = db
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Validate checks enumerations and ranges.
func (c *Config) Validate() error {
	c.Backend = Backend(strings.ToLower(string(c.Backend)))
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for the sqlite backend")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown backend %q: must be memory, sqlite or redis", c.Backend)
	}

	if c.Redis.DB < 0 || c.Redis.DB > 15 {
		return fmt.Errorf("redis.db must be between 0 and 15, got %d", c.Redis.DB)
	}

	policy, err := auth.ParsePolicy(string(c.PasswordPolicy))
	if err != nil {
		return err
	}
	c.PasswordPolicy = policy
	return nil
}
