package reservation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduledCall struct {
	machineID string
	duration  time.Duration
}

// recordingNotifier captures schedule/cancel calls for assertions
type recordingNotifier struct {
	mu        sync.Mutex
	scheduled []scheduledCall
	cancelled []string
}

func (n *recordingNotifier) ScheduleEndingSoon(machineID string, duration time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.scheduled = append(n.scheduled, scheduledCall{machineID: machineID, duration: duration})
}

func (n *recordingNotifier) Cancel(machineID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = append(n.cancelled, machineID)
	return true
}

// memoryHistory collects recorded events
type memoryHistory struct {
	mu     sync.Mutex
	events []model.ReservationEvent
}

func (h *memoryHistory) Record(ctx context.Context, event *model.ReservationEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, *event)
	return nil
}

func (h *memoryHistory) byEvent(eventType string) []model.ReservationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []model.ReservationEvent
	for _, e := range h.events {
		if e.Event == eventType {
			out = append(out, e)
		}
	}
	return out
}

type engineFixture struct {
	engine   *Engine
	store    *MemoryStore
	notifier *recordingNotifier
	history  *memoryHistory
	clock    *clockwork.FakeClock
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC))
	store := NewMemoryStore()
	notifier := &recordingNotifier{}
	history := &memoryHistory{}
	engine := NewEngine(model.DefaultCatalog(), store, notifier, history, clock, 5, 90)

	return &engineFixture{
		engine:   engine,
		store:    store,
		notifier: notifier,
		history:  history,
		clock:    clock,
	}
}

func TestGetStatusNoRecordIsAvailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"washer1", "washer2", "dryer1", "dryer2"} {
		status, err := f.engine.GetStatus(ctx, id)
		require.NoError(t, err)
		assert.False(t, status.InUse, "machine %s should be available", id)
		assert.Zero(t, status.MinutesRemaining)
	}
}

func TestGetStatusUnknownMachine(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.GetStatus(context.Background(), "washer9")
	require.ErrorIs(t, err, ErrUnknownMachine)
}

func TestClaimThenStatusReportsFullDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, minutes := range []int{5, 30, 45, 90} {
		machineID := "washer1"
		record, err := f.engine.Claim(ctx, machineID, minutes, "corr-1")
		require.NoError(t, err)
		assert.True(t, record.InUse)
		assert.Equal(t, f.clock.Now().UTC().Add(time.Duration(minutes)*time.Minute), record.EndTime)

		status, err := f.engine.GetStatus(ctx, machineID)
		require.NoError(t, err)
		assert.True(t, status.InUse)
		assert.Equal(t, minutes, status.MinutesRemaining)

		require.NoError(t, f.engine.Release(ctx, machineID, "corr-1"))
	}
}

func TestClaimBusyLeavesRecordUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.NoError(t, err)

	before, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)

	_, err = f.engine.Claim(ctx, "washer1", 45, "corr-2")
	require.ErrorIs(t, err, ErrMachineBusy)

	after, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)
	assert.Equal(t, before.EndTime, after.EndTime)
	assert.True(t, after.InUse)
}

func TestClaimInvalidDuration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, minutes := range []int{-10, 0, 4, 91, 200} {
		_, err := f.engine.Claim(ctx, "dryer1", minutes, "corr-1")
		require.ErrorIs(t, err, ErrInvalidDuration, "duration %d should be rejected", minutes)
	}

	// Nothing was written
	record, err := f.store.Get(ctx, "dryer1")
	require.NoError(t, err)
	assert.Nil(t, record)
	assert.Empty(t, f.notifier.scheduled)
}

func TestClaimUnknownMachine(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Claim(context.Background(), "dryer7", 30, "corr-1")
	require.ErrorIs(t, err, ErrUnknownMachine)
}

func TestStatusCountsDownAndExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.NoError(t, err)

	f.clock.Advance(20 * time.Minute)
	status, err := f.engine.GetStatus(ctx, "washer1")
	require.NoError(t, err)
	assert.True(t, status.InUse)
	assert.Equal(t, 10, status.MinutesRemaining)

	// Past the end the machine reads available even before the sweep runs
	f.clock.Advance(11 * time.Minute)
	status, err = f.engine.GetStatus(ctx, "washer1")
	require.NoError(t, err)
	assert.False(t, status.InUse)

	// The stored record still says in_use until the sweep rewrites it
	record, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)
	assert.True(t, record.InUse)
}

func TestMinutesRemainingCeilingNeverZero(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.NoError(t, err)

	// 29m30s remaining rounds up to 30
	f.clock.Advance(30 * time.Second)
	status, err := f.engine.GetStatus(ctx, "washer1")
	require.NoError(t, err)
	assert.Equal(t, 30, status.MinutesRemaining)

	// 30s remaining still reports 1, never 0
	f.clock.Advance(29 * time.Minute)
	status, err = f.engine.GetStatus(ctx, "washer1")
	require.NoError(t, err)
	assert.True(t, status.InUse)
	assert.Equal(t, 1, status.MinutesRemaining)
}

func TestClaimOnLogicallyExpiredRecordSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.NoError(t, err)

	// Past the end, no sweep has run: the stale record must not block
	f.clock.Advance(31 * time.Minute)
	record, err := f.engine.Claim(ctx, "washer1", 45, "corr-2")
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().UTC().Add(45*time.Minute), record.EndTime)
}

func TestExpireStaleRewritesAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, "dryer1", 60, "corr-2")
	require.NoError(t, err)

	// Only washer1 has passed its end time
	f.clock.Advance(31 * time.Minute)

	expired, err := f.engine.ExpireStale(ctx, "sweep-1")
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	record, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)
	assert.False(t, record.InUse)

	dryerRecord, err := f.store.Get(ctx, "dryer1")
	require.NoError(t, err)
	assert.True(t, dryerRecord.InUse)

	// Second run writes nothing
	afterFirst, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)

	expired, err = f.engine.ExpireStale(ctx, "sweep-2")
	require.NoError(t, err)
	assert.Zero(t, expired)

	afterSecond, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)
	assert.Equal(t, afterFirst, afterSecond)
	assert.Len(t, f.history.byEvent(model.EventExpired), 1)
}

func TestClaimSchedulesCompletionWarning(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Claim(context.Background(), "washer1", 30, "corr-1")
	require.NoError(t, err)

	require.Len(t, f.notifier.scheduled, 1)
	assert.Equal(t, "washer1", f.notifier.scheduled[0].machineID)
	assert.Equal(t, 30*time.Minute, f.notifier.scheduled[0].duration)
}

func TestReleaseFreesMachineAndCancelsAlert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "dryer2", 60, "corr-1")
	require.NoError(t, err)

	require.NoError(t, f.engine.Release(ctx, "dryer2", "corr-2"))

	assert.Contains(t, f.notifier.cancelled, "dryer2")

	status, err := f.engine.GetStatus(ctx, "dryer2")
	require.NoError(t, err)
	assert.False(t, status.InUse)

	record, err := f.store.Get(ctx, "dryer2")
	require.NoError(t, err)
	assert.False(t, record.InUse)
}

func TestReleaseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer2", 30, "corr-1")
	require.NoError(t, err)

	require.NoError(t, f.engine.Release(ctx, "washer2", "corr-2"))
	require.NoError(t, f.engine.Release(ctx, "washer2", "corr-3"))

	// Only one released event despite two calls
	assert.Len(t, f.history.byEvent(model.EventReleased), 1)
}

func TestReleaseUnknownMachine(t *testing.T) {
	f := newFixture(t)

	err := f.engine.Release(context.Background(), "nope", "corr-1")
	require.ErrorIs(t, err, ErrUnknownMachine)
}

func TestHistoryRecordsLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.NoError(t, err)

	f.clock.Advance(31 * time.Minute)
	_, err = f.engine.ExpireStale(ctx, "sweep-1")
	require.NoError(t, err)

	_, err = f.engine.Claim(ctx, "washer1", 45, "corr-2")
	require.NoError(t, err)
	require.NoError(t, f.engine.Release(ctx, "washer1", "corr-3"))

	claimed := f.history.byEvent(model.EventClaimed)
	require.Len(t, claimed, 2)
	assert.Equal(t, 30, claimed[0].DurationMinutes)
	assert.Equal(t, "corr-1", claimed[0].CorrelationID)
	assert.Equal(t, 45, claimed[1].DurationMinutes)

	assert.Len(t, f.history.byEvent(model.EventExpired), 1)
	assert.Len(t, f.history.byEvent(model.EventReleased), 1)
}

func TestListStatuses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "dryer1", 60, "corr-1")
	require.NoError(t, err)

	statuses, err := f.engine.ListStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 4)

	byID := make(map[string]model.MachineStatus, len(statuses))
	for _, s := range statuses {
		byID[s.MachineID] = s
	}
	assert.True(t, byID["dryer1"].InUse)
	assert.Equal(t, 60, byID["dryer1"].MinutesRemaining)
	assert.False(t, byID["washer1"].InUse)
	assert.Equal(t, model.KindWasher, byID["washer1"].Kind)
}

func TestConcurrentClaimsOnlyOneSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Claim(ctx, "washer1", 30, "corr")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, ErrMachineBusy)
		}
	}
	assert.Equal(t, 1, successes)
}

// failingStore wraps a real store and fails reads or writes on demand
type failingStore struct {
	inner   StateStore
	failGet bool
	failSet bool
}

func (s *failingStore) Get(ctx context.Context, machineID string) (*model.ReservationRecord, error) {
	if s.failGet {
		return nil, errors.New("disk read failed")
	}
	return s.inner.Get(ctx, machineID)
}

func (s *failingStore) Set(ctx context.Context, record *model.ReservationRecord) error {
	if s.failSet {
		return errors.New("disk write failed")
	}
	return s.inner.Set(ctx, record)
}

func TestGetStatusStorageReadFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.store = &failingStore{inner: f.store, failGet: true}

	_, err := f.engine.GetStatus(context.Background(), "washer1")
	require.ErrorIs(t, err, ErrStorageFailure)
}

func TestClaimStorageReadFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.store = &failingStore{inner: f.store, failGet: true}

	_, err := f.engine.Claim(context.Background(), "washer1", 30, "corr-1")
	require.ErrorIs(t, err, ErrStorageFailure)

	// Nothing scheduled or recorded for the failed claim
	assert.Empty(t, f.notifier.scheduled)
	assert.Empty(t, f.history.events)
}

func TestClaimStorageWriteFailureLeavesPriorState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	prior := &model.ReservationRecord{
		MachineID: "washer1",
		InUse:     false,
		UpdatedAt: f.clock.Now().UTC().Add(-time.Hour),
	}
	require.NoError(t, f.store.Set(ctx, prior))

	f.engine.store = &failingStore{inner: f.store, failSet: true}

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.ErrorIs(t, err, ErrStorageFailure)

	// Prior record untouched, no alert, no history event
	after, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)
	assert.Equal(t, prior, after)
	assert.Empty(t, f.notifier.scheduled)
	assert.Empty(t, f.history.events)
}

func TestExpireStaleStorageWriteFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.Claim(ctx, "washer1", 30, "corr-1")
	require.NoError(t, err)
	f.clock.Advance(31 * time.Minute)

	f.engine.store = &failingStore{inner: f.store, failSet: true}

	expired, err := f.engine.ExpireStale(ctx, "sweep-1")
	require.ErrorIs(t, err, ErrStorageFailure)
	assert.Zero(t, expired)

	// The stale record is still there for the next sweep to retry
	record, err := f.store.Get(ctx, "washer1")
	require.NoError(t, err)
	assert.True(t, record.InUse)
	assert.Empty(t, f.history.byEvent(model.EventExpired))
}

func TestExpireStaleStorageReadFailure(t *testing.T) {
	f := newFixture(t)
	f.engine.store = &failingStore{inner: f.store, failGet: true}

	expired, err := f.engine.ExpireStale(context.Background(), "sweep-1")
	require.ErrorIs(t, err, ErrStorageFailure)
	assert.Zero(t, expired)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	original := &model.ReservationRecord{
		MachineID: "washer1",
		InUse:     true,
		EndTime:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Set(ctx, original))

	got, err := store.Get(ctx, "washer1")
	require.NoError(t, err)
	got.InUse = false

	again, err := store.Get(ctx, "washer1")
	require.NoError(t, err)
	assert.True(t, again.InUse)
}
