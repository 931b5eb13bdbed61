package notify

import (
	"sync"
	"testing"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fireRecorder collects fired alerts on a channel so tests can wait for the
// asynchronous timer callbacks
type fireRecorder struct {
	mu    sync.Mutex
	fired chan model.AlertPayload
	corrs []string
}

func newFireRecorder() *fireRecorder {
	return &fireRecorder{fired: make(chan model.AlertPayload, 16)}
}

func (f *fireRecorder) fire(payload model.AlertPayload, correlationID string) {
	f.mu.Lock()
	f.corrs = append(f.corrs, correlationID)
	f.mu.Unlock()
	f.fired <- payload
}

func (f *fireRecorder) waitForFire(t *testing.T) model.AlertPayload {
	t.Helper()
	select {
	case payload := <-f.fired:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("expected alert to fire")
		return model.AlertPayload{}
	}
}

func (f *fireRecorder) assertNoFire(t *testing.T) {
	t.Helper()
	select {
	case payload := <-f.fired:
		t.Fatalf("unexpected alert fired for %s", payload.MachineID)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestScheduleFiresLeadBeforeEnd(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	rec := newFireRecorder()
	s := NewScheduler(clock, 10*time.Minute, rec.fire)

	s.ScheduleEndingSoon("washer1", 30*time.Minute)
	assert.Equal(t, 1, s.PendingCount())

	// Just before the 20 minute mark nothing happens
	clock.Advance(19 * time.Minute)
	rec.assertNoFire(t)

	clock.Advance(time.Minute)
	payload := rec.waitForFire(t)
	assert.Equal(t, "washer1", payload.MachineID)
	assert.Equal(t, "Laundry Almost Done!", payload.Title)
	assert.Equal(t, "Your laundry in washer1 will be done in 10 minutes", payload.Body)
	assert.Zero(t, s.PendingCount())
}

func TestScheduleShortReservationFiresImmediately(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	rec := newFireRecorder()
	s := NewScheduler(clock, 10*time.Minute, rec.fire)

	// 5 minute reservation with a 10 minute lead: delay clamps to zero
	s.ScheduleEndingSoon("dryer1", 5*time.Minute)
	clock.Advance(time.Millisecond)

	payload := rec.waitForFire(t)
	assert.Equal(t, "dryer1", payload.MachineID)
}

func TestCancelPreventsFire(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	rec := newFireRecorder()
	s := NewScheduler(clock, 10*time.Minute, rec.fire)

	s.ScheduleEndingSoon("washer1", 30*time.Minute)
	require.True(t, s.Cancel("washer1"))
	assert.Zero(t, s.PendingCount())

	clock.Advance(time.Hour)
	rec.assertNoFire(t)

	// Cancelling again reports no outstanding handle
	assert.False(t, s.Cancel("washer1"))
}

func TestRescheduleSupersedesPendingAlert(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	rec := newFireRecorder()
	s := NewScheduler(clock, 10*time.Minute, rec.fire)

	s.ScheduleEndingSoon("washer1", 30*time.Minute)
	s.ScheduleEndingSoon("washer1", 60*time.Minute)
	assert.Equal(t, 1, s.PendingCount())

	// The original 20 minute mark passes silently
	clock.Advance(25 * time.Minute)
	rec.assertNoFire(t)

	// The superseding alert fires at 50 minutes
	clock.Advance(25 * time.Minute)
	rec.waitForFire(t)
	rec.assertNoFire(t)
}

func TestSchedulerTracksMachinesIndependently(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	rec := newFireRecorder()
	s := NewScheduler(clock, 10*time.Minute, rec.fire)

	s.ScheduleEndingSoon("washer1", 30*time.Minute)
	s.ScheduleEndingSoon("dryer1", 60*time.Minute)
	assert.Equal(t, 2, s.PendingCount())

	clock.Advance(20 * time.Minute)
	payload := rec.waitForFire(t)
	assert.Equal(t, "washer1", payload.MachineID)
	assert.Equal(t, 1, s.PendingCount())

	clock.Advance(30 * time.Minute)
	payload = rec.waitForFire(t)
	assert.Equal(t, "dryer1", payload.MachineID)
}

func TestCancelAllClearsPending(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	rec := newFireRecorder()
	s := NewScheduler(clock, 10*time.Minute, rec.fire)

	s.ScheduleEndingSoon("washer1", 30*time.Minute)
	s.ScheduleEndingSoon("washer2", 30*time.Minute)
	s.ScheduleEndingSoon("dryer1", 60*time.Minute)

	s.CancelAll()
	assert.Zero(t, s.PendingCount())

	clock.Advance(2 * time.Hour)
	rec.assertNoFire(t)
}

func TestBuildPayloadText(t *testing.T) {
	payload := BuildPayload("dryer2", 10*time.Minute)

	assert.Equal(t, "Laundry Almost Done!", payload.Title)
	assert.Equal(t, "Your laundry in dryer2 will be done in 10 minutes", payload.Body)
	assert.Equal(t, "dryer2", payload.MachineID)
}
