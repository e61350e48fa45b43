package scheduler_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dining-data-service/internal/domain"
	"github.com/couchcryptid/dining-data-service/internal/observability"
	"github.com/couchcryptid/dining-data-service/internal/scheduler"
)

// --- mocks ---

type mockRefresher struct {
	mu       sync.Mutex
	calls    []bool
	err      error
	eateries []*domain.Eatery
}

func (m *mockRefresher) FetchLocations(_ context.Context, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, force)
	return m.err
}

func (m *mockRefresher) Locations() []*domain.Eatery { return m.eateries }

func (m *mockRefresher) forcedCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.calls {
		if f {
			n++
		}
	}
	return n
}

func (m *mockRefresher) history() []bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]bool(nil), m.calls...)
}

type mockPublisher struct {
	mu      sync.Mutex
	batches [][]domain.Snapshot
	err     error
}

func (m *mockPublisher) PublishSnapshots(_ context.Context, snapshots []domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.batches = append(m.batches, snapshots)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func eateries(slugs ...string) []*domain.Eatery {
	out := make([]*domain.Eatery, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, domain.NewEatery(domain.EateryRecord{Slug: s}, nil, time.UTC))
	}
	return out
}

// --- tests ---

func TestRunOnce_PublishesSnapshots(t *testing.T) {
	now := time.Date(2024, 2, 5, 12, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	ref := &mockRefresher{eateries: eateries("Okenshields", "Becker")}
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()

	s, err := scheduler.New(ref, pub, "@hourly", time.UTC, discardLogger(), metrics)
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background(), true))

	assert.Equal(t, []bool{true}, ref.history())
	require.Len(t, pub.batches, 1)
	require.Len(t, pub.batches[0], 2)
	assert.Equal(t, "Okenshields", pub.batches[0][0].Slug)
	assert.Equal(t, now, pub.batches[0][0].At)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.SnapshotsPublished), 0)
}

func TestRunOnce_RefreshErrorSkipsPublish(t *testing.T) {
	errBoom := errors.New("feed down")
	ref := &mockRefresher{err: errBoom}
	pub := &mockPublisher{}

	s, err := scheduler.New(ref, pub, "@hourly", time.UTC, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	require.ErrorIs(t, s.RunOnce(context.Background(), false), errBoom)
	assert.Empty(t, pub.batches)
}

func TestRunOnce_PublishError(t *testing.T) {
	ref := &mockRefresher{eateries: eateries("Okenshields")}
	pub := &mockPublisher{err: errors.New("broker unavailable")}
	metrics := observability.NewMetricsForTesting()

	s, err := scheduler.New(ref, pub, "@hourly", time.UTC, discardLogger(), metrics)
	require.NoError(t, err)

	err = s.RunOnce(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors), 0)
}

func TestRunOnce_NilPublisher(t *testing.T) {
	ref := &mockRefresher{eateries: eateries("Okenshields")}

	s, err := scheduler.New(ref, nil, "@hourly", time.UTC, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(context.Background(), true))
}

func TestNew_InvalidSchedule(t *testing.T) {
	_, err := scheduler.New(&mockRefresher{}, nil, "every tuesday", time.UTC, discardLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
}

func TestRun_WarmsUpThenStops(t *testing.T) {
	ref := &mockRefresher{eateries: eateries("Okenshields")}
	pub := &mockPublisher{}
	metrics := observability.NewMetricsForTesting()

	s, err := scheduler.New(ref, pub, "@daily", time.UTC, discardLogger(), metrics)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return len(ref.history()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []bool{false}, ref.history(), "warm-up is not forced")
	require.Eventually(t, func() bool { return !s.Next().IsZero() }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.SchedulerRunning), 0)
}

func TestRun_WarmUpFailureKeepsRunning(t *testing.T) {
	ref := &mockRefresher{err: errors.New("feed down")}

	s, err := scheduler.New(ref, nil, "@every 1s", time.UTC, discardLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return ref.forcedCalls() >= 1 }, 5*time.Second, 50*time.Millisecond,
		"scheduled refreshes are forced")

	cancel()
	require.NoError(t, <-done)
}
