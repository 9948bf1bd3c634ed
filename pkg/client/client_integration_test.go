//go:build integration

package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sternrassler/catalog-viewer/internal/testutil"
	"github.com/Sternrassler/catalog-viewer/pkg/catalog"
	"github.com/Sternrassler/catalog-viewer/pkg/pagination"
	"github.com/Sternrassler/catalog-viewer/pkg/ratelimit"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		client.Close()
		redisContainer.Terminate(ctx)
	})

	return client
}

func newRedisBackedClient(t *testing.T, baseURL string, store ratelimit.Store) *Client {
	t.Helper()

	cfg := DefaultConfig("catalog-viewer-integration/1.0")
	cfg.BaseURL = baseURL
	cfg.Retry = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
	cfg.RateLimitStore = store

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestIntegration_FullCollectionFetch(t *testing.T) {
	redisClient := setupRedisContainer(t)

	mock := testutil.NewMockCatalog(testutil.GenerateProducts(194))
	defer mock.Close()
	mock.SetHeader(ratelimit.HeaderLimit, "100")
	mock.SetHeader(ratelimit.HeaderRemaining, "80")
	mock.SetHeader(ratelimit.HeaderReset, "60")

	c := newRedisBackedClient(t, mock.URL(), ratelimit.NewRedisStore(redisClient))
	collector := pagination.NewCollector[catalog.Product](c, pagination.DefaultConfig())

	products, err := collector.FetchCollection(context.Background(), 500)
	if err != nil {
		t.Fatalf("FetchCollection() error = %v", err)
	}
	if len(products) != 194 {
		t.Fatalf("len(products) = %d, want 194", len(products))
	}

	remaining, err := redisClient.Get(context.Background(), ratelimit.RedisKeyRemaining).Int()
	if err != nil {
		t.Fatalf("redis get remaining: %v", err)
	}
	if remaining != 80 {
		t.Errorf("stored remaining = %d, want 80", remaining)
	}
}

func TestIntegration_SharedRateLimitBlocksSecondClient(t *testing.T) {
	redisClient := setupRedisContainer(t)

	mock := testutil.NewMockCatalog(testutil.GenerateProducts(10))
	defer mock.Close()
	mock.SetHeader(ratelimit.HeaderRemaining, "1")
	mock.SetHeader(ratelimit.HeaderReset, "60")

	first := newRedisBackedClient(t, mock.URL(), ratelimit.NewRedisStore(redisClient))
	if _, err := first.FetchPage(context.Background(), pagination.PageRequest{Limit: 10}); err != nil {
		t.Fatalf("first FetchPage() error = %v", err)
	}

	// A second process sharing the store sees the exhausted budget.
	second := newRedisBackedClient(t, mock.URL(), ratelimit.NewRedisStore(redisClient))
	_, err := second.FetchPage(context.Background(), pagination.PageRequest{Limit: 10})
	if !errors.Is(err, ErrRateLimitBlocked) {
		t.Fatalf("expected ErrRateLimitBlocked, got %v", err)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("request count = %d, want 1", mock.GetRequestCount())
	}
}
