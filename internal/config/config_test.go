package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Store.RecordTTL())
	assert.Equal(t, "brave", cfg.Search.Provider)
	assert.Equal(t, 15*time.Second, cfg.Search.Timeout())
	assert.Equal(t, 10, cfg.Search.Count)
	assert.InDelta(t, 5.0, cfg.Search.RatePerSec, 0.001)
	assert.Equal(t, "https://s.jina.ai", cfg.Jina.SearchBaseURL)
	assert.Equal(t, "openai", cfg.Gateway.Provider)
	assert.Equal(t, 2*time.Minute, cfg.Gateway.VisionTimeout())
	assert.Equal(t, 2*time.Minute, cfg.Gateway.VerdictTimeout())
	assert.Equal(t, 5, cfg.Resilience.FailureThreshold)
	assert.Equal(t, 3, cfg.Resilience.StoreRetryAttempts)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 50, cfg.Server.MaxUploadMB)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
  format: console
server:
  port: 9090
search:
  provider: jina
  timeout_secs: 5
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "jina", cfg.Search.Provider)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout())
	// Defaults still apply for unset values
	assert.Equal(t, 3, cfg.Search.Burst)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("FACTCHECK_STORE_DRIVER", "redis")
	t.Setenv("FACTCHECK_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("FACTCHECK_SERVER_PORT", "3000")
	t.Setenv("FACTCHECK_GATEWAY_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.Gateway.Key)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with the defaults that Validate inspects.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "memory"
	cfg.Search.Provider = "brave"
	cfg.Gateway.Provider = "openai"
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults"},
		{name: "sqlite without url", mutate: func(c *Config) { c.Store.Driver = "sqlite" }},
		{name: "redis", mutate: func(c *Config) { c.Store.Driver = "redis" }},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.Store.Driver = "postgres" },
			wantErr: "store.database_url is required",
		},
		{
			name: "postgres with url",
			mutate: func(c *Config) {
				c.Store.Driver = "postgres"
				c.Store.DatabaseURL = "postgres://localhost/factcheck"
			},
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "mongo" },
			wantErr: "unsupported store driver",
		},
		{
			name:    "unknown search provider",
			mutate:  func(c *Config) { c.Search.Provider = "bing" },
			wantErr: "unsupported search provider",
		},
		{
			name:    "unknown gateway provider",
			mutate:  func(c *Config) { c.Gateway.Provider = "local" },
			wantErr: "unsupported gateway provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
