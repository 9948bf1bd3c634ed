// Package config loads the catalog viewer configuration from defaults, an
// optional .env file, CATALOG_* environment variables and command-line overrides.
package config

import (
	"time"

	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/Sternrassler/catalog-viewer/pkg/client"
	"github.com/Sternrassler/catalog-viewer/pkg/pagination"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CATALOG_"

// DefaultUserAgent identifies the viewer to the collection source.
const DefaultUserAgent = "catalog-viewer/0.1.0"

// Config is the complete viewer configuration.
type Config struct {
	API     APIConfig     `koanf:"api"`
	Fetch   FetchConfig   `koanf:"fetch"`
	Retry   RetryConfig   `koanf:"retry"`
	View    ViewConfig    `koanf:"view"`
	Log     LogConfig     `koanf:"log"`
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// APIConfig describes the upstream collection source.
type APIConfig struct {
	BaseURL        string        `koanf:"base_url"        validate:"required,url"`
	CollectionPath string        `koanf:"collection_path" validate:"required"`
	UserAgent      string        `koanf:"user_agent"      validate:"required"`
	Timeout        time.Duration `koanf:"timeout"         validate:"gte=0"`
}

// FetchConfig bounds a single collection load.
type FetchConfig struct {
	Total       int           `koanf:"total"        validate:"gte=1"`
	PerRequest  int           `koanf:"per_request"  validate:"gte=1,lte=1000"`
	MaxRequests int           `koanf:"max_requests" validate:"gte=0"`
	PageTimeout time.Duration `koanf:"page_timeout" validate:"gte=0"`
}

// RetryConfig controls per-request retries.
type RetryConfig struct {
	MaxAttempts    int           `koanf:"max_attempts"    validate:"gte=1,lte=10"`
	InitialBackoff time.Duration `koanf:"initial_backoff" validate:"gt=0"`
	MaxBackoff     time.Duration `koanf:"max_backoff"     validate:"gtefield=InitialBackoff"`
}

// ViewConfig holds the initial presentation settings.
type ViewConfig struct {
	PageSize int `koanf:"page_size" validate:"oneof=25 50 100"`
}

// LogConfig configures zerolog output.
type LogConfig struct {
	Level  string `koanf:"level"  validate:"oneof=debug info warn warning error disabled off"`
	Pretty bool   `koanf:"pretty"`
	File   string `koanf:"file"`
}

// RedisConfig enables the shared rate limit store when URL is set.
type RedisConfig struct {
	URL string `koanf:"url" validate:"omitempty,url"`
}

// MetricsConfig enables the /metrics and /health listener when Addr is set.
type MetricsConfig struct {
	Addr string `koanf:"addr" validate:"omitempty,hostname_port"`
}

// Default returns the built-in configuration.
func Default() *Config {
	retry := client.DefaultRetryConfig()
	fetch := pagination.DefaultConfig()

	return &Config{
		API: APIConfig{
			BaseURL:        client.DefaultBaseURL,
			CollectionPath: client.DefaultCollectionPath,
			UserAgent:      DefaultUserAgent,
			Timeout:        30 * time.Second,
		},
		Fetch: FetchConfig{
			Total:       catalog.DefaultLoadTarget,
			PerRequest:  fetch.PerRequestCap,
			MaxRequests: fetch.MaxRequests,
			PageTimeout: fetch.Timeout,
		},
		Retry: RetryConfig{
			MaxAttempts:    retry.MaxAttempts,
			InitialBackoff: retry.InitialBackoff,
			MaxBackoff:     retry.MaxBackoff,
		},
		View: ViewConfig{
			PageSize: int(catalog.DefaultPageSize),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ClientConfig converts the API and retry settings for client.New.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.API.UserAgent)
	cfg.BaseURL = c.API.BaseURL
	cfg.CollectionPath = c.API.CollectionPath
	cfg.Timeout = c.API.Timeout
	cfg.Retry.MaxAttempts = c.Retry.MaxAttempts
	cfg.Retry.InitialBackoff = c.Retry.InitialBackoff
	cfg.Retry.MaxBackoff = c.Retry.MaxBackoff
	return cfg
}

// CollectorConfig converts the fetch settings for pagination.NewCollector.
func (c *Config) CollectorConfig() pagination.Config {
	return pagination.Config{
		PerRequestCap: c.Fetch.PerRequest,
		MaxRequests:   c.Fetch.MaxRequests,
		Timeout:       c.Fetch.PageTimeout,
	}
}

// StateOptions converts the fetch and view settings for catalog.NewState.
func (c *Config) StateOptions() catalog.Options {
	return catalog.Options{
		LoadTarget: c.Fetch.Total,
		PageSize:   catalog.PageSize(c.View.PageSize),
	}
}
