package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/Sternrassler/catalog-viewer/internal/config"
	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/Sternrassler/catalog-viewer/pkg/client"
	"github.com/Sternrassler/catalog-viewer/pkg/logging"
	"github.com/Sternrassler/catalog-viewer/pkg/metrics"
	"github.com/Sternrassler/catalog-viewer/pkg/pagination"
	"github.com/Sternrassler/catalog-viewer/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// app wires configuration, logging, the upstream client and the collector.
type app struct {
	cfg       *config.Config
	logger    zerolog.Logger
	client    *client.Client
	collector *pagination.Collector[catalog.Product]
	redis     *redis.Client
	logFile   *os.File
}

// setupApp loads the configuration and builds the fetch pipeline. Logs go to
// log.file when set, otherwise to logOutput.
func setupApp(ctx context.Context, opts *rootOptions, overrides map[string]any, logOutput io.Writer) (*app, error) {
	cfg, err := config.Load(opts.envFile, overrides)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg}

	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logOutput = f
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.Log.Level),
		Pretty: cfg.Log.Pretty,
		Output: logOutput,
	})
	a.logger = logging.NewLogger("catalog-cli")

	clientCfg := cfg.ClientConfig()
	if cfg.Redis.URL != "" {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		a.redis = redis.NewClient(redisOpts)
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.logger.Info().Str("addr", redisOpts.Addr).Msg("Sharing rate limit state via Redis")
		clientCfg.RateLimitStore = ratelimit.NewRedisStore(a.redis)
	}

	a.client, err = client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	a.collector = pagination.NewCollector[catalog.Product](a.client, cfg.CollectorConfig())

	a.logger.Debug().
		Str("base_url", cfg.API.BaseURL).
		Int("load_target", cfg.Fetch.Total).
		Int("per_request", cfg.Fetch.PerRequest).
		Msg("Catalog pipeline ready")

	return a, nil
}

// newState creates a catalog state bound to the collector.
func (a *app) newState() *catalog.State {
	return catalog.NewState(a.collector, a.cfg.StateOptions())
}

// serveMetrics starts the metrics listener when metrics.addr is set. The
// returned function stops it.
func (a *app) serveMetrics(ctx context.Context) (func(), error) {
	if a.cfg.Metrics.Addr == "" {
		return func() {}, nil
	}

	srv, err := metrics.Listen(a.cfg.Metrics.Addr, a.logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := srv.Serve(ctx); err != nil {
			a.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return func() {
		cancel()
		<-done
	}, nil
}

// Close releases the client, the Redis connection and the log file.
func (a *app) Close() {
	if a.client != nil {
		a.client.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}
