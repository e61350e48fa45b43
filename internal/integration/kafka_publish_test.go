//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dining-data-service/internal/adapter/cache"
	"github.com/couchcryptid/dining-data-service/internal/adapter/feed"
	"github.com/couchcryptid/dining-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/dining-data-service/internal/catalog"
	"github.com/couchcryptid/dining-data-service/internal/config"
	"github.com/couchcryptid/dining-data-service/internal/domain"
	"github.com/couchcryptid/dining-data-service/internal/observability"
	"github.com/couchcryptid/dining-data-service/internal/scheduler"
	"github.com/couchcryptid/dining-data-service/internal/staticdata"
)

// TestRefreshPublishesSnapshots drives a forced refresh against a local feed
// and reads the resulting snapshots back from Kafka.
func TestRefreshPublishesSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	est := time.FixedZone("EST", -5*60*60)
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 2, 5, 12, 0, 0, 0, est)))
	defer domain.SetClock(nil)

	broker := startKafka(ctx, t)
	topic := fmt.Sprintf("snapshots-%d", time.Now().UnixNano())
	createTopic(t, broker, topic)

	var hits int
	srv := feedServer(t, &hits)

	static, err := staticdata.Default()
	require.NoError(t, err)

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	cat := catalog.New(feed.NewClient(srv.URL, 5*time.Second, logger), cache.NewMemoryCache(4), static,
		logger, metrics, catalog.WithLocation(est))

	writer := kafka.NewWriter(&config.Config{KafkaBrokers: []string{broker}, KafkaTopic: topic}, logger)
	defer writer.Close()

	sched, err := scheduler.New(cat, writer, "@hourly", est, logger, metrics)
	require.NoError(t, err)
	require.NoError(t, sched.RunOnce(ctx, true))
	assert.Equal(t, 1, hits)

	locations := cat.Locations()
	require.Len(t, locations, 2+len(static.ExternalRecords()))

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	defer reader.Close()

	got := make(map[string]domain.Snapshot, len(locations))
	headers := make(map[string]map[string]string, len(locations))
	for range locations {
		readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
		msg, err := reader.ReadMessage(readCtx)
		readCancel()
		require.NoError(t, err, "read snapshot")

		var snap domain.Snapshot
		require.NoError(t, json.Unmarshal(msg.Value, &snap))
		assert.Equal(t, snap.Slug, string(msg.Key))
		got[snap.Slug] = snap

		h := make(map[string]string, len(msg.Headers))
		for _, hdr := range msg.Headers {
			h[hdr.Key] = string(hdr.Value)
		}
		headers[snap.Slug] = h
	}

	oken := got["Okenshields"]
	assert.True(t, oken.IsOpen)
	assert.Equal(t, domain.TypeDiningHall, oken.Type)
	assert.Equal(t, domain.AreaCentral, oken.Area)
	require.NotNil(t, oken.ActiveEvent)
	assert.Equal(t, "Lunch", oken.ActiveEvent.Description)

	assert.Equal(t, "2024-02-05T17:00:00Z", headers["Okenshields"]["evaluated_at"])
	assert.NotEmpty(t, headers["Okenshields"]["message_id"])

	assert.Contains(t, got, "Bear-Necessities")
	for _, raw := range static.ExternalRecords() {
		rec, _ := domain.DecodeRecord(raw)
		assert.Contains(t, got, rec.Slug, "external locations are published too")
	}
}
