package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// FireFunc is the delivery sink invoked when a scheduled alert comes due
type FireFunc func(payload model.AlertPayload, correlationID string)

// Scheduler arranges one-shot completion-warning alerts, one pending handle
// per machine id at most. Handles are held in memory only: pending alerts
// do not survive a process restart. Scheduling for a machine that already
// has a pending alert cancels the old handle first, so a superseding claim
// never leaves a stale notification behind.
type Scheduler struct {
	clock clockwork.Clock
	lead  time.Duration
	fire  FireFunc

	mu      sync.Mutex
	pending map[string]clockwork.Timer
}

// NewScheduler creates a notification scheduler. lead is how long before a
// reservation's end the alert fires.
func NewScheduler(clock clockwork.Clock, lead time.Duration, fire FireFunc) *Scheduler {
	return &Scheduler{
		clock:   clock,
		lead:    lead,
		fire:    fire,
		pending: make(map[string]clockwork.Timer),
	}
}

// ScheduleEndingSoon arranges the completion-warning alert for a reservation
// of the given duration starting now. The alert fires lead before the end;
// when duration <= lead the delay clamps to zero and the alert fires
// immediately rather than being skipped.
func (s *Scheduler) ScheduleEndingSoon(machineID string, duration time.Duration) {
	delay := duration - s.lead
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.pending[machineID]; ok {
		old.Stop()
		slog.Debug("Superseded pending alert", "machine_id", machineID)
	}

	correlationID := uuid.New().String()
	s.pending[machineID] = s.clock.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, machineID)
		s.mu.Unlock()

		s.fire(BuildPayload(machineID, s.lead), correlationID)
	})

	slog.Info("Scheduled completion warning",
		"machine_id", machineID,
		"fire_in", delay,
		"correlation_id", correlationID,
	)
}

// Cancel stops the pending alert for a machine, if any. Returns whether a
// handle was outstanding.
func (s *Scheduler) Cancel(machineID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.pending[machineID]
	if !ok {
		return false
	}

	timer.Stop()
	delete(s.pending, machineID)
	slog.Info("Cancelled pending alert", "machine_id", machineID)
	return true
}

// CancelAll stops every pending alert; used during shutdown
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for machineID, timer := range s.pending {
		timer.Stop()
		delete(s.pending, machineID)
	}
}

// PendingCount returns the number of outstanding alert handles
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
