// Package catalog owns the current set of normalized dining locations and
// decides, on each refresh, whether to reuse the in-memory list, a cached
// feed response, or a fresh network fetch.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/dining-data-service/internal/domain"
	"github.com/couchcryptid/dining-data-service/internal/observability"
)

// FreshnessWindow is the maximum age of a cached response that is reused
// without a network fetch. A response exactly this old is still fresh.
const FreshnessWindow = 24 * time.Hour

// Refresh sources, used as metric labels and log fields.
const (
	sourceMemory  = "memory"
	sourceCache   = "cache"
	sourceNetwork = "network"
)

// Fetcher issues the feed request.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
	// CacheKey identifies the request in the response cache.
	CacheKey() string
}

// ResponseCache stores raw feed bodies keyed by request.
type ResponseCache interface {
	Get(ctx context.Context, key string) (domain.CachedResponse, bool, error)
	Put(ctx context.Context, key string, resp domain.CachedResponse) error
}

// StaticData supplies the lookup tables that do not come from the feed.
type StaticData interface {
	HardcodedMenu(slug string) domain.Menu
	ExternalRecords() []json.RawMessage
}

type state struct {
	eateries    []*domain.Eatery
	refreshedAt time.Time
}

// Catalog holds the current list of locations. The list is replaced
// wholesale on each successful refresh and is safe to read concurrently.
type Catalog struct {
	fetcher   Fetcher
	cache     ResponseCache
	static    StaticData
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	loc       *time.Location
	freshness time.Duration

	current atomic.Pointer[state]
	flight  singleflight.Group
	writes  sync.WaitGroup
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithClock sets the time source used for freshness checks and fetch stamps.
func WithClock(c clockwork.Clock) Option {
	return func(cat *Catalog) { cat.clock = c }
}

// WithLocation sets the zone used for day keys.
func WithLocation(loc *time.Location) Option {
	return func(cat *Catalog) { cat.loc = loc }
}

// WithFreshnessWindow overrides FreshnessWindow.
func WithFreshnessWindow(d time.Duration) Option {
	return func(cat *Catalog) { cat.freshness = d }
}

// New creates an empty Catalog. cache and static may be nil.
func New(fetcher Fetcher, cache ResponseCache, static StaticData, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Catalog {
	c := &Catalog{
		fetcher:   fetcher,
		cache:     cache,
		static:    static,
		logger:    logger.With("component", "catalog"),
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		loc:       time.Local,
		freshness: FreshnessWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Locations returns the current list in feed order followed by the external
// locations. The slice is a copy; the eateries are immutable.
func (c *Catalog) Locations() []*domain.Eatery {
	s := c.current.Load()
	if s == nil {
		return nil
	}
	return slices.Clone(s.eateries)
}

// Location returns the first location with the given slug.
func (c *Catalog) Location(slug string) (*domain.Eatery, error) {
	s := c.current.Load()
	if s != nil {
		for _, e := range s.eateries {
			if e.Slug == slug {
				return e, nil
			}
		}
	}
	return nil, domain.ErrNotFound
}

// RefreshedAt reports when the current list was installed, or the zero time.
func (c *Catalog) RefreshedAt() time.Time {
	if s := c.current.Load(); s != nil {
		return s.refreshedAt
	}
	return time.Time{}
}

func (c *Catalog) populated() bool {
	s := c.current.Load()
	return s != nil && len(s.eateries) > 0
}

// CheckReadiness returns nil once the catalog holds at least one location.
func (c *Catalog) CheckReadiness(_ context.Context) error {
	if !c.populated() {
		return errors.New("catalog has no locations yet")
	}
	return nil
}

// FetchLocations refreshes the catalog and returns once the result is known.
//
// Without force, a non-empty catalog is kept as is, and otherwise a cached
// response within the freshness window is reused. Forced refreshes always go
// to the network. Concurrent calls with the same force value share one
// in-flight refresh and all receive its result. A non-forced result never
// replaces a list installed by a forced refresh that finished first. A
// refresh runs to completion even if ctx is cancelled.
//
// A feed envelope whose status is not success yields an error wrapping
// domain.ErrServer. Fetcher errors are returned unchanged. In both cases the
// previous list stays in place.
func (c *Catalog) FetchLocations(ctx context.Context, force bool) error {
	if !force && c.populated() {
		c.metrics.Refreshes.WithLabelValues(sourceMemory, "success").Inc()
		return nil
	}

	key := "refresh:cache"
	if force {
		key = "refresh:force"
	}
	_, err, shared := c.flight.Do(key, func() (any, error) {
		return nil, c.refresh(context.WithoutCancel(ctx), force)
	})
	if shared {
		c.logger.Debug("joined in-flight refresh", "force", force)
	}
	return err
}

// FetchLocationsAsync runs FetchLocations in the background. The returned
// channel receives exactly one value, nil on success, and is then closed.
func (c *Catalog) FetchLocationsAsync(ctx context.Context, force bool) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- c.FetchLocations(ctx, force)
	}()
	return done
}

// Wait blocks until background response-cache writes have finished.
func (c *Catalog) Wait() {
	c.writes.Wait()
}

func (c *Catalog) refresh(ctx context.Context, force bool) error {
	if !force && c.populated() {
		c.metrics.Refreshes.WithLabelValues(sourceMemory, "success").Inc()
		return nil
	}

	prev := c.current.Load()
	start := time.Now()
	body, source, err := c.load(ctx, force)
	if err != nil {
		c.metrics.Refreshes.WithLabelValues(source, "transport_error").Inc()
		c.logger.Error("feed fetch failed", "source", source, "error", err)
		return err
	}

	eateries, err := c.build(body)
	if err != nil {
		c.metrics.Refreshes.WithLabelValues(source, "server_error").Inc()
		c.logger.Error("feed rejected", "source", source, "error", err)
		return err
	}

	next := &state{eateries: eateries, refreshedAt: c.clock.Now()}
	if force {
		c.current.Store(next)
	} else if !c.current.CompareAndSwap(prev, next) {
		// A forced refresh installed newer data while this one was loading.
		c.metrics.Refreshes.WithLabelValues(source, "superseded").Inc()
		c.logger.Debug("discarding superseded refresh", "source", source)
		return nil
	}
	c.metrics.Refreshes.WithLabelValues(source, "success").Inc()
	c.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	c.metrics.LocationsLoaded.Set(float64(len(eateries)))
	c.logger.Info("catalog refreshed", "source", source, "locations", len(eateries), "force", force)
	return nil
}

// load returns the feed body, from the response cache when allowed and fresh.
func (c *Catalog) load(ctx context.Context, force bool) ([]byte, string, error) {
	key := c.fetcher.CacheKey()
	if !force {
		if resp, ok := c.lookup(ctx, key); ok {
			return resp.Body, sourceCache, nil
		}
	}

	start := time.Now()
	body, err := c.fetcher.Fetch(ctx)
	c.metrics.FeedRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, sourceNetwork, err
	}

	c.store(ctx, key, domain.CachedResponse{Body: body, FetchedAt: c.clock.Now()})
	return body, sourceNetwork, nil
}

// lookup consults the response cache. Read failures count as a miss.
func (c *Catalog) lookup(ctx context.Context, key string) (domain.CachedResponse, bool) {
	if c.cache == nil {
		return domain.CachedResponse{}, false
	}

	resp, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("response cache read failed", "key", key, "error", err)
		c.metrics.ResponseCache.WithLabelValues("miss").Inc()
		return domain.CachedResponse{}, false
	}
	if !ok {
		c.metrics.ResponseCache.WithLabelValues("miss").Inc()
		return domain.CachedResponse{}, false
	}

	age := c.clock.Since(resp.FetchedAt)
	if age > c.freshness {
		c.metrics.ResponseCache.WithLabelValues("stale").Inc()
		c.logger.Debug("cached response is stale", "key", key, "age", age)
		return domain.CachedResponse{}, false
	}

	c.metrics.ResponseCache.WithLabelValues("hit").Inc()
	return resp, true
}

// store writes the response in the background.
func (c *Catalog) store(ctx context.Context, key string, resp domain.CachedResponse) {
	if c.cache == nil {
		return
	}
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		if err := c.cache.Put(ctx, key, resp); err != nil {
			c.metrics.CacheWriteErrors.Inc()
			c.logger.Warn("response cache write failed", "key", key, "error", err)
		}
	}()
}

// build validates the envelope and normalizes every record, feed records
// first and external records after. Duplicate slugs are kept.
func (c *Catalog) build(body []byte) ([]*domain.Eatery, error) {
	records, err := domain.ParseEnvelope(body)
	if err != nil {
		return nil, err
	}

	var external []json.RawMessage
	if c.static != nil {
		external = c.static.ExternalRecords()
	}

	eateries := make([]*domain.Eatery, 0, len(records)+len(external))
	for _, raw := range records {
		eateries = append(eateries, c.newEatery(raw))
	}
	for _, raw := range external {
		eateries = append(eateries, c.newEatery(raw))
	}
	return eateries, nil
}

func (c *Catalog) newEatery(raw json.RawMessage) *domain.Eatery {
	rec, err := domain.DecodeRecord(raw)
	if err != nil {
		c.metrics.DecodeDefects.Inc()
		c.logger.Warn("record decoded with defaults", "slug", rec.Slug, "error", err)
	}

	var hardcoded domain.Menu
	if c.static != nil {
		hardcoded = c.static.HardcodedMenu(rec.Slug)
	}
	return domain.NewEatery(rec, hardcoded, c.loc)
}
