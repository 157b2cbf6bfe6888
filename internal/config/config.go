// Package config loads blogcache settings from a YAML file and BLOGCACHE_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rshade/blogcache/internal/store"
)

// Supported storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBoth   = "both"
)

// Environment variables that override the config file.
const (
	EnvConfigPath     = "BLOGCACHE_CONFIG"
	EnvCacheTTL       = "BLOGCACHE_CACHE_TTL"
	EnvStorageBackend = "BLOGCACHE_STORAGE_BACKEND"
	EnvStorageDir     = "BLOGCACHE_STORAGE_DIR"
	EnvSQLitePath     = "BLOGCACHE_SQLITE_PATH"
	EnvLogLevel       = "BLOGCACHE_LOG_LEVEL"
	EnvLogFormat      = "BLOGCACHE_LOG_FORMAT"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the top-level configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// CacheConfig controls expiration.
type CacheConfig struct {
	// TTL accepts integer seconds or a Go duration string. Empty means the
	// 5 minute default.
	TTL string `yaml:"ttl"`
}

// StorageConfig selects where the cache state is persisted.
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// New returns the default configuration rooted at ~/.blogcache. If the home
// directory cannot be determined, the current directory is used.
func New() *Config {
	base := DefaultDir()
	return &Config{
		Storage: StorageConfig{
			Backend:    BackendFile,
			Dir:        filepath.Join(base, "state"),
			SQLitePath: filepath.Join(base, "blogcache.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// DefaultDir returns ~/.blogcache.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".blogcache"
	}
	return filepath.Join(home, ".blogcache")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// ResolvePath returns path, or BLOGCACHE_CONFIG when path is empty, or
// DefaultPath when both are empty.
func ResolvePath(path string, lookupEnv func(string) (string, bool)) string {
	if path != "" {
		return path
	}
	if lookupEnv != nil {
		if envPath, ok := lookupEnv(EnvConfigPath); ok && envPath != "" {
			return envPath
		}
	}
	return DefaultPath()
}

// Load builds the configuration: defaults, then the YAML file at path (a
// missing file is not an error), then environment overrides from lookupEnv.
// An empty path falls back to BLOGCACHE_CONFIG and then DefaultPath.
func Load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	path = ResolvePath(path, lookupEnv)

	cfg := New()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, unmarshalErr)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg.applyEnv(lookupEnv)

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) {
	overrides := []struct {
		env    string
		target *string
	}{
		{EnvCacheTTL, &c.Cache.TTL},
		{EnvStorageBackend, &c.Storage.Backend},
		{EnvStorageDir, &c.Storage.Dir},
		{EnvSQLitePath, &c.Storage.SQLitePath},
		{EnvLogLevel, &c.Logging.Level},
		{EnvLogFormat, &c.Logging.Format},
	}
	for _, o := range overrides {
		if v, ok := lookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if _, err := c.TTL(); err != nil {
		return fmt.Errorf("%w: cache.ttl: %w", ErrInvalidConfig, err)
	}

	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendBoth:
	default:
		return fmt.Errorf("%w: storage.backend must be one of %s, %s, %s; got %q",
			ErrInvalidConfig, BackendFile, BackendSQLite, BackendBoth, c.Storage.Backend)
	}

	if c.Storage.Backend != BackendSQLite && c.Storage.Dir == "" {
		return fmt.Errorf("%w: storage.dir is required for the %s backend", ErrInvalidConfig, c.Storage.Backend)
	}
	if c.Storage.Backend != BackendFile && c.Storage.SQLitePath == "" {
		return fmt.Errorf("%w: storage.sqlite_path is required for the %s backend", ErrInvalidConfig, c.Storage.Backend)
	}

	return nil
}

// TTL returns the configured entry lifetime, or store.DefaultTTL when unset.
func (c *Config) TTL() (time.Duration, error) {
	if c.Cache.TTL == "" {
		return store.DefaultTTL, nil
	}
	return store.ParseTTL(c.Cache.TTL)
}

// Save writes the configuration as YAML to path, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if writeErr := os.WriteFile(path, data, 0o600); writeErr != nil {
		return fmt.Errorf("writing config file: %w", writeErr)
	}

	return nil
}
