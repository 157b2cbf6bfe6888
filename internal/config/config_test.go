package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/blogcache/internal/store"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"), envMap(nil))
		require.NoError(t, err)
		assert.Equal(t, BackendFile, cfg.Storage.Backend)
		assert.Equal(t, "info", cfg.Logging.Level)

		ttl, err := cfg.TTL()
		require.NoError(t, err)
		assert.Equal(t, store.DefaultTTL, ttl)
	})

	t.Run("file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
cache:
  ttl: 10m
storage:
  backend: both
  dir: /var/lib/blogcache
  sqlite_path: /var/lib/blogcache/cache.db
logging:
  level: debug
  format: json
`), 0o600))

		cfg, err := Load(path, envMap(nil))
		require.NoError(t, err)
		assert.Equal(t, BackendBoth, cfg.Storage.Backend)
		assert.Equal(t, "/var/lib/blogcache", cfg.Storage.Dir)
		assert.Equal(t, "json", cfg.Logging.Format)

		ttl, err := cfg.TTL()
		require.NoError(t, err)
		assert.Equal(t, 10*time.Minute, ttl)
	})

	t.Run("env overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache:\n  ttl: 10m\n"), 0o600))

		cfg, err := Load(path, envMap(map[string]string{
			EnvCacheTTL:       "60",
			EnvStorageBackend: BackendSQLite,
			EnvLogLevel:       "warn",
		}))
		require.NoError(t, err)
		assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
		assert.Equal(t, "warn", cfg.Logging.Level)

		ttl, err := cfg.TTL()
		require.NoError(t, err)
		assert.Equal(t, time.Minute, ttl)
	})

	t.Run("config path from env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "alt.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\n"), 0o600))

		cfg, err := Load("", envMap(map[string]string{EnvConfigPath: path}))
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.Logging.Level)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cache: [unterminated"), 0o600))

		_, err := Load(path, envMap(nil))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "bad ttl", mutate: func(c *Config) { c.Cache.TTL = "never" }},
		{name: "negative ttl", mutate: func(c *Config) { c.Cache.TTL = "-1" }},
		{name: "unknown backend", mutate: func(c *Config) { c.Storage.Backend = "redis" }},
		{name: "file without dir", mutate: func(c *Config) { c.Storage.Dir = "" }},
		{name: "sqlite without path", mutate: func(c *Config) {
			c.Storage.Backend = BackendSQLite
			c.Storage.SQLitePath = ""
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}

	assert.NoError(t, New().Validate())
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := New()
	cfg.Cache.TTL = "2m"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path, envMap(nil))
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestToLoggingConfig(t *testing.T) {
	lc := LoggingConfig{Level: "debug", Format: "json", File: "/tmp/x.log"}
	out := lc.ToLoggingConfig()
	assert.Equal(t, "debug", out.Level)
	assert.Equal(t, "json", out.Format)
	assert.Equal(t, "/tmp/x.log", out.File)
}
