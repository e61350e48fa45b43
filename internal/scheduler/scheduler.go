// Package scheduler keeps the catalog warm: one refresh at startup, then
// forced refreshes on a cron schedule, publishing location snapshots after
// each success.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/couchcryptid/dining-data-service/internal/domain"
	"github.com/couchcryptid/dining-data-service/internal/observability"
)

// Refresher is the catalog surface the scheduler drives.
type Refresher interface {
	FetchLocations(ctx context.Context, force bool) error
	Locations() []*domain.Eatery
}

// Publisher receives the snapshots produced after a refresh.
type Publisher interface {
	PublishSnapshots(ctx context.Context, snapshots []domain.Snapshot) error
}

// Scheduler runs catalog refreshes.
type Scheduler struct {
	refresher Refresher
	publisher Publisher
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu  sync.Mutex
	ctx context.Context
}

// New creates a Scheduler. publisher may be nil; schedule is a standard
// five-field cron expression or descriptor evaluated in loc.
func New(r Refresher, p Publisher, schedule string, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) (*Scheduler, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Scheduler{
		refresher: r,
		publisher: p,
		schedule:  schedule,
		cron:      cron.New(cron.WithLocation(loc)),
		logger:    logger.With("component", "scheduler"),
		metrics:   metrics,
		ctx:       context.Background(),
	}
	if _, err := s.cron.AddFunc(schedule, s.scheduledRefresh); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run warms the catalog without forcing, so a fresh cached response is
// reused, then starts the schedule and blocks until ctx is cancelled. A
// failed warm-up is logged and does not stop the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("scheduler started", "schedule", s.schedule)
	s.metrics.SchedulerRunning.Set(1)
	defer s.metrics.SchedulerRunning.Set(0)

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if err := s.RunOnce(ctx, false); err != nil {
		s.logger.Error("warm-up refresh failed", "error", err)
	}

	s.cron.Start()
	<-ctx.Done()
	s.logger.Info("scheduler stopping", "reason", ctx.Err())

	// Wait for an in-progress refresh to finish.
	<-s.cron.Stop().Done()
	return nil
}

// RunOnce refreshes the catalog and publishes snapshots of every location.
func (s *Scheduler) RunOnce(ctx context.Context, force bool) error {
	if err := s.refresher.FetchLocations(ctx, force); err != nil {
		return err
	}
	return s.publish(ctx)
}

// Next reports when the schedule fires next, or the zero time before Run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) scheduledRefresh() {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if err := s.RunOnce(ctx, true); err != nil {
		s.logger.Error("scheduled refresh failed", "error", err)
	}
}

func (s *Scheduler) publish(ctx context.Context) error {
	if s.publisher == nil {
		return nil
	}

	now := domain.Now()
	eateries := s.refresher.Locations()
	snapshots := make([]domain.Snapshot, 0, len(eateries))
	for _, e := range eateries {
		snapshots = append(snapshots, e.Snapshot(now))
	}

	if err := s.publisher.PublishSnapshots(ctx, snapshots); err != nil {
		s.metrics.PublishErrors.Inc()
		return fmt.Errorf("publish snapshots: %w", err)
	}
	s.metrics.SnapshotsPublished.Add(float64(len(snapshots)))
	return nil
}
