//go:build integration

package integration_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valkey-io/valkey-go"

	"github.com/couchcryptid/dining-data-service/internal/adapter/cache"
	"github.com/couchcryptid/dining-data-service/internal/adapter/feed"
	"github.com/couchcryptid/dining-data-service/internal/catalog"
	"github.com/couchcryptid/dining-data-service/internal/domain"
	"github.com/couchcryptid/dining-data-service/internal/observability"
)

func newValkeyCache(ctx context.Context, t *testing.T) *cache.ValkeyCache {
	t.Helper()

	opt, err := cache.ClientOption(startValkey(ctx, t))
	require.NoError(t, err)
	client, err := valkey.NewClient(opt)
	require.NoError(t, err)

	c := cache.NewValkeyCache(client, "test", time.Hour)
	t.Cleanup(c.Close)
	require.NoError(t, c.Ping(ctx))
	return c
}

func TestValkeyCache_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c := newValkeyCache(ctx, t)

	_, ok, err := c.Get(ctx, "GET http://feed.test/eateries.json")
	require.NoError(t, err)
	assert.False(t, ok)

	fetched := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	require.NoError(t, c.Put(ctx, "GET http://feed.test/eateries.json", domain.CachedResponse{
		Body:      []byte(`{"status":"success"}`),
		FetchedAt: fetched,
	}))

	resp, ok, err := c.Get(ctx, "GET http://feed.test/eateries.json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"status":"success"}`, string(resp.Body))
	assert.True(t, fetched.Equal(resp.FetchedAt))
}

type downFetcher struct {
	key string
}

func (f downFetcher) Fetch(context.Context) ([]byte, error) { return nil, errors.New("feed unreachable") }
func (f downFetcher) CacheKey() string                     { return f.key }

// TestValkeyCache_SharedBetweenReplicas populates the cache from one catalog
// and serves a second catalog from it while the feed is down.
func TestValkeyCache_SharedBetweenReplicas(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	c := newValkeyCache(ctx, t)
	logger := discardLogger()

	var hits int
	srv := feedServer(t, &hits)
	client := feed.NewClient(srv.URL, 5*time.Second, logger)

	first := catalog.New(client, c, nil, logger, observability.NewMetricsForTesting())
	require.NoError(t, first.FetchLocations(ctx, false))
	first.Wait()
	assert.Equal(t, 1, hits)

	second := catalog.New(downFetcher{key: client.CacheKey()}, c, nil, logger, observability.NewMetricsForTesting())
	require.NoError(t, second.FetchLocations(ctx, false))

	assert.Len(t, second.Locations(), 2)
	_, err := second.Location("Okenshields")
	require.NoError(t, err)

	err = second.FetchLocations(ctx, true)
	require.Error(t, err, "forced refresh bypasses the cache")
	assert.Len(t, second.Locations(), 2, "failed refresh keeps the previous list")
}
