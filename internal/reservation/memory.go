package reservation

import (
	"context"
	"sync"

	"github.com/dandantas/laundromat/internal/model"
)

// MemoryStore is a volatile StateStore keyed by machine id. It backs the
// "memory" storage driver for local development and is the store of choice
// in tests. Not durable across restarts.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]model.ReservationRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]model.ReservationRecord),
	}
}

// Get returns a copy of the stored record, or (nil, nil) when absent
func (s *MemoryStore) Get(ctx context.Context, machineID string) (*model.ReservationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[machineID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

// Set stores a copy of the record under its machine id
func (s *MemoryStore) Set(ctx context.Context, record *model.ReservationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.MachineID] = *record
	return nil
}
