package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"github.com/jonboulle/clockwork"
)

// Engine error taxonomy. Handlers map these to response codes; none of
// them is retried automatically.
var (
	ErrUnknownMachine  = errors.New("unknown machine")
	ErrMachineBusy     = errors.New("machine busy")
	ErrInvalidDuration = errors.New("invalid duration")
	ErrStorageFailure  = errors.New("storage failure")
)

// StateStore is the durable per-machine record store the engine reads and
// writes through. Get returns (nil, nil) when no record exists for the
// machine; absence is equivalent to a free machine.
type StateStore interface {
	Get(ctx context.Context, machineID string) (*model.ReservationRecord, error)
	Set(ctx context.Context, record *model.ReservationRecord) error
}

// Notifier arranges the one-shot completion-warning alert for a claim and
// cancels it when the reservation is superseded.
type Notifier interface {
	ScheduleEndingSoon(machineID string, duration time.Duration)
	Cancel(machineID string) bool
}

// History records reservation lifecycle events. Recording is best-effort:
// a failure is logged by the engine and never fails the operation.
type History interface {
	Record(ctx context.Context, event *model.ReservationEvent) error
}

// Engine owns the machine-reservation state machine: status derivation,
// claim admission, forced release and the staleness sweep. The busy-check
// and record write of a claim run under one mutex, so two claims on the
// same machine can never both succeed.
type Engine struct {
	catalog  *model.Catalog
	store    StateStore
	notifier Notifier
	history  History
	clock    clockwork.Clock

	minDurationMinutes int
	maxDurationMinutes int

	mu chan struct{} // claim/release/sweep serialization, see NewEngine
}

// NewEngine creates a reservation engine. Durations outside
// [minDurationMinutes, maxDurationMinutes] are rejected by Claim.
func NewEngine(
	catalog *model.Catalog,
	store StateStore,
	notifier Notifier,
	history History,
	clock clockwork.Clock,
	minDurationMinutes, maxDurationMinutes int,
) *Engine {
	e := &Engine{
		catalog:            catalog,
		store:              store,
		notifier:           notifier,
		history:            history,
		clock:              clock,
		minDurationMinutes: minDurationMinutes,
		maxDurationMinutes: maxDurationMinutes,
		mu:                 make(chan struct{}, 1),
	}
	e.mu <- struct{}{}
	return e
}

// lock acquires the engine mutex, honoring context cancellation
func (e *Engine) lock(ctx context.Context) error {
	select {
	case <-e.mu:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) unlock() {
	e.mu <- struct{}{}
}

// GetStatus derives the current busy/free status of one machine from its
// stored record and the clock. It is read-only: an expired record is
// reported Available without being rewritten (the sweep does that).
func (e *Engine) GetStatus(ctx context.Context, machineID string) (model.MachineStatus, error) {
	machine, ok := e.catalog.Get(machineID)
	if !ok {
		return model.MachineStatus{}, fmt.Errorf("%w: %s", ErrUnknownMachine, machineID)
	}

	record, err := e.store.Get(ctx, machineID)
	if err != nil {
		return model.MachineStatus{}, fmt.Errorf("%w: reading record for %s: %v", ErrStorageFailure, machineID, err)
	}

	return statusFor(machine, record, e.clock.Now().UTC()), nil
}

// ListStatuses derives the status of every machine in catalog order
func (e *Engine) ListStatuses(ctx context.Context) ([]model.MachineStatus, error) {
	statuses := make([]model.MachineStatus, 0, e.catalog.Size())
	for _, machine := range e.catalog.Machines() {
		status, err := e.GetStatus(ctx, machine.ID)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// Claim reserves a machine for durationMinutes starting now. It is the only
// entry point that starts usage: on success the record is persisted, a
// history event is recorded and the completion-warning alert is scheduled
// (superseding any stale pending alert for the machine). A machine whose
// stored record is logically expired but not yet swept claims successfully.
func (e *Engine) Claim(ctx context.Context, machineID string, durationMinutes int, correlationID string) (*model.ReservationRecord, error) {
	machine, ok := e.catalog.Get(machineID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMachine, machineID)
	}

	if durationMinutes < e.minDurationMinutes || durationMinutes > e.maxDurationMinutes {
		return nil, fmt.Errorf("%w: %d minutes (allowed range %d-%d)",
			ErrInvalidDuration, durationMinutes, e.minDurationMinutes, e.maxDurationMinutes)
	}

	if err := e.lock(ctx); err != nil {
		return nil, err
	}
	defer e.unlock()

	current, err := e.store.Get(ctx, machineID)
	if err != nil {
		return nil, fmt.Errorf("%w: reading record for %s: %v", ErrStorageFailure, machineID, err)
	}

	now := e.clock.Now().UTC()
	if current.ActiveAt(now) {
		return nil, fmt.Errorf("%w: %s in use until %s", ErrMachineBusy, machineID, current.EndTime.Format(time.RFC3339))
	}

	duration := time.Duration(durationMinutes) * time.Minute
	record := &model.ReservationRecord{
		MachineID: machineID,
		InUse:     true,
		EndTime:   now.Add(duration),
		UpdatedAt: now,
	}

	if err := e.store.Set(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: writing record for %s: %v", ErrStorageFailure, machineID, err)
	}

	e.recordEvent(ctx, &model.ReservationEvent{
		MachineID:       machineID,
		Event:           model.EventClaimed,
		DurationMinutes: durationMinutes,
		EndTime:         record.EndTime,
		CorrelationID:   correlationID,
		CreatedAt:       now,
	})

	e.notifier.ScheduleEndingSoon(machineID, duration)

	slog.Info("Machine claimed",
		"machine_id", machineID,
		"kind", machine.Kind,
		"duration_minutes", durationMinutes,
		"end_time", record.EndTime.Format(time.RFC3339),
		"correlation_id", correlationID,
	)

	return record, nil
}

// Release forces a machine free before its natural expiry, cancelling any
// pending completion-warning alert. Releasing a machine that is already
// free is a no-op.
func (e *Engine) Release(ctx context.Context, machineID string, correlationID string) error {
	if _, ok := e.catalog.Get(machineID); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownMachine, machineID)
	}

	if err := e.lock(ctx); err != nil {
		return err
	}
	defer e.unlock()

	e.notifier.Cancel(machineID)

	current, err := e.store.Get(ctx, machineID)
	if err != nil {
		return fmt.Errorf("%w: reading record for %s: %v", ErrStorageFailure, machineID, err)
	}

	if current == nil || !current.InUse {
		return nil
	}

	now := e.clock.Now().UTC()
	if err := e.store.Set(ctx, &model.ReservationRecord{
		MachineID: machineID,
		InUse:     false,
		UpdatedAt: now,
	}); err != nil {
		return fmt.Errorf("%w: writing record for %s: %v", ErrStorageFailure, machineID, err)
	}

	e.recordEvent(ctx, &model.ReservationEvent{
		MachineID:     machineID,
		Event:         model.EventReleased,
		CorrelationID: correlationID,
		CreatedAt:     now,
	})

	slog.Info("Machine released", "machine_id", machineID, "correlation_id", correlationID)
	return nil
}

// ExpireStale rewrites every logically expired record to the canonical free
// state. It is idempotent: a second run with no intervening claims writes
// nothing. Per-machine storage failures are collected and do not stop the
// sweep. Returns the number of records rewritten.
func (e *Engine) ExpireStale(ctx context.Context, correlationID string) (int, error) {
	if err := e.lock(ctx); err != nil {
		return 0, err
	}
	defer e.unlock()

	now := e.clock.Now().UTC()
	expired := 0
	var errs []error

	for _, machine := range e.catalog.Machines() {
		record, err := e.store.Get(ctx, machine.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: reading record for %s: %v", ErrStorageFailure, machine.ID, err))
			continue
		}

		if record == nil || !record.InUse || record.ActiveAt(now) {
			continue
		}

		if err := e.store.Set(ctx, &model.ReservationRecord{
			MachineID: machine.ID,
			InUse:     false,
			UpdatedAt: now,
		}); err != nil {
			errs = append(errs, fmt.Errorf("%w: writing record for %s: %v", ErrStorageFailure, machine.ID, err))
			continue
		}

		e.recordEvent(ctx, &model.ReservationEvent{
			MachineID:     machine.ID,
			Event:         model.EventExpired,
			EndTime:       record.EndTime,
			CorrelationID: correlationID,
			CreatedAt:     now,
		})

		expired++
		slog.Info("Expired stale reservation",
			"machine_id", machine.ID,
			"end_time", record.EndTime.Format(time.RFC3339),
			"correlation_id", correlationID,
		)
	}

	return expired, errors.Join(errs...)
}

// DurationBounds returns the inclusive claim duration range in minutes
func (e *Engine) DurationBounds() (min, max int) {
	return e.minDurationMinutes, e.maxDurationMinutes
}

// recordEvent appends to the reservation history, logging failures instead
// of propagating them
func (e *Engine) recordEvent(ctx context.Context, event *model.ReservationEvent) {
	if e.history == nil {
		return
	}
	if err := e.history.Record(ctx, event); err != nil {
		slog.Error("Failed to record reservation event",
			"machine_id", event.MachineID,
			"event", event.Event,
			"error", err,
		)
	}
}

// statusFor derives a MachineStatus from a stored record at one instant
func statusFor(machine model.MachineDescriptor, record *model.ReservationRecord, now time.Time) model.MachineStatus {
	status := model.MachineStatus{
		MachineID: machine.ID,
		Kind:      machine.Kind,
	}

	if record.ActiveAt(now) {
		status.InUse = true
		status.MinutesRemaining = record.MinutesRemainingAt(now)
		status.EndTime = record.EndTime.Format(time.RFC3339)
	}

	return status
}
