package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dandantas/laundromat/internal/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

// Sweepable is the slice of the reservation engine the sweeper drives
type Sweepable interface {
	ExpireStale(ctx context.Context, correlationID string) (int, error)
}

// Sweeper runs the periodic staleness sweep: on every schedule tick it asks
// the engine to rewrite expired reservations to the free state. The sweep
// is idempotent, so an extra tick is always safe. Single process, no
// distributed locking.
type Sweeper struct {
	engine   Sweepable
	clock    clockwork.Clock
	schedule cron.Schedule
	enabled  bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewSweeper creates a sweeper driven by the given cron expression
// (standard five-field form, e.g. "* * * * *" for every minute)
func NewSweeper(engine Sweepable, clock clockwork.Clock, cronExpr string, enabled bool) (*Sweeper, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return nil, err
	}

	return &Sweeper{
		engine:   engine,
		clock:    clock,
		schedule: schedule,
		enabled:  enabled,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins the sweep loop. An immediate sweep runs before the first
// scheduled tick so stale records from before a restart are cleaned up.
func (s *Sweeper) Start(ctx context.Context) {
	if !s.enabled {
		slog.Info("Staleness sweeper is disabled by configuration")
		return
	}

	slog.Info("Starting staleness sweeper")

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop gracefully stops the sweeper, waiting for an in-flight sweep
func (s *Sweeper) Stop(ctx context.Context) {
	if !s.enabled {
		return
	}

	slog.Info("Stopping staleness sweeper")

	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("Staleness sweeper stopped")
	case <-ctx.Done():
		slog.Warn("Timeout waiting for staleness sweep to complete")
	}
}

// run is the main sweep loop
func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	// Run immediately on start
	s.sweep(ctx)

	for {
		now := s.clock.Now().UTC()
		next := s.schedule.Next(now)
		timer := s.clock.NewTimer(next.Sub(now))

		select {
		case <-timer.Chan():
			s.sweep(ctx)
		case <-s.stopChan:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// sweep processes one staleness pass
func (s *Sweeper) sweep(ctx context.Context) {
	correlationID := uuid.New().String()
	start := time.Now()

	expired, err := s.engine.ExpireStale(ctx, correlationID)

	duration := time.Since(start)

	if err != nil {
		slog.Error("Staleness sweep failed",
			"correlation_id", correlationID,
			"expired", expired,
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
	} else if expired > 0 {
		slog.Info("Staleness sweep completed",
			"correlation_id", correlationID,
			"expired", expired,
			"duration_ms", duration.Milliseconds(),
		)
	} else {
		slog.Debug("Staleness sweep found nothing to expire",
			"correlation_id", correlationID,
			"duration_ms", duration.Milliseconds(),
		)
	}

	if expired > 0 {
		metrics.ReservationsExpired.Add(float64(expired))
	}
}
