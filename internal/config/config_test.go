package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://dummyjson.com", cfg.API.BaseURL)
	assert.Equal(t, "/products", cfg.API.CollectionPath)
	assert.Equal(t, DefaultUserAgent, cfg.API.UserAgent)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, 500, cfg.Fetch.Total)
	assert.Equal(t, 100, cfg.Fetch.PerRequest)
	assert.Equal(t, 0, cfg.Fetch.MaxRequests)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialBackoff)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxBackoff)
	assert.Equal(t, 25, cfg.View.PageSize)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CATALOG_API_BASE_URL", "http://localhost:8080")
	t.Setenv("CATALOG_API_TIMEOUT", "5s")
	t.Setenv("CATALOG_FETCH_TOTAL", "120")
	t.Setenv("CATALOG_FETCH_PER_REQUEST", "50")
	t.Setenv("CATALOG_RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("CATALOG_RETRY_INITIAL_BACKOFF", "250ms")
	t.Setenv("CATALOG_VIEW_PAGE_SIZE", "50")
	t.Setenv("CATALOG_LOG_PRETTY", "true")
	t.Setenv("CATALOG_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("CATALOG_METRICS_ADDR", ":9090")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.API.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
	assert.Equal(t, 120, cfg.Fetch.Total)
	assert.Equal(t, 50, cfg.Fetch.PerRequest)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.InitialBackoff)
	assert.Equal(t, 50, cfg.View.PageSize)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, ":9090", cfg.Metrics.Addr)
}

func TestLoad_OverridesWinOverEnvironment(t *testing.T) {
	t.Setenv("CATALOG_LOG_LEVEL", "warn")

	cfg, err := Load("", map[string]any{"log.level": "debug", "view.page_size": 100})
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 100, cfg.View.PageSize)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CATALOG_FETCH_TOTAL=42\nCATALOG_LOG_LEVEL=error\n"), 0o600))

	// Variables already in the environment win over the file.
	t.Setenv("CATALOG_LOG_LEVEL", "warn")
	// Register cleanup for the variable the file sets.
	t.Setenv("CATALOG_FETCH_TOTAL", "")
	require.NoError(t, os.Unsetenv("CATALOG_FETCH_TOTAL"))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 42, cfg.Fetch.Total)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_LargeFetchTotalAccepted(t *testing.T) {
	t.Setenv("CATALOG_FETCH_TOTAL", "1125899906842624")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 1<<50, cfg.Fetch.Total)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"), nil)
	require.NoError(t, err)
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid page size", map[string]string{"CATALOG_VIEW_PAGE_SIZE": "30"}},
		{"zero fetch total", map[string]string{"CATALOG_FETCH_TOTAL": "0"}},
		{"oversized per request", map[string]string{"CATALOG_FETCH_PER_REQUEST": "5000"}},
		{"unknown log level", map[string]string{"CATALOG_LOG_LEVEL": "verbose"}},
		{"non-http base url", map[string]string{"CATALOG_API_BASE_URL": "ftp://example.com"}},
		{"backoff cap below initial", map[string]string{"CATALOG_RETRY_MAX_BACKOFF": "1ms"}},
		{"too many attempts", map[string]string{"CATALOG_RETRY_MAX_ATTEMPTS": "11"}},
		{"bad metrics addr", map[string]string{"CATALOG_METRICS_ADDR": "nope"}},
		{"bad redis scheme", map[string]string{"CATALOG_REDIS_URL": "http://localhost:6379"}},
		{"bad duration", map[string]string{"CATALOG_API_TIMEOUT": "soon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("", nil)
			assert.Error(t, err)
		})
	}
}

func TestTransformEnvKey(t *testing.T) {
	tests := map[string]string{
		"API_BASE_URL":        "api.base_url",
		"LOG_LEVEL":           "log.level",
		"FETCH__MAX_REQUESTS": "fetch.max_requests",
		"DEBUG":               "debug",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, transformEnvKey(in), in)
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "http://localhost:1234"
	cfg.Fetch.PerRequest = 30
	cfg.Fetch.MaxRequests = 4
	cfg.Fetch.Total = 120
	cfg.View.PageSize = 50
	cfg.Retry.MaxAttempts = 2

	clientCfg := cfg.ClientConfig()
	assert.Equal(t, "http://localhost:1234", clientCfg.BaseURL)
	assert.Equal(t, DefaultUserAgent, clientCfg.UserAgent)
	assert.Equal(t, 2, clientCfg.Retry.MaxAttempts)
	assert.NotEmpty(t, clientCfg.Fields)

	collectorCfg := cfg.CollectorConfig()
	assert.Equal(t, 30, collectorCfg.PerRequestCap)
	assert.Equal(t, 4, collectorCfg.MaxRequests)

	opts := cfg.StateOptions()
	assert.Equal(t, 120, opts.LoadTarget)
	assert.Equal(t, catalog.PageSize50, opts.PageSize)
}
