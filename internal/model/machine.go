package model

import (
	"errors"
	"fmt"
)

// MachineKind identifies the appliance type of a catalog entry
type MachineKind string

const (
	KindWasher MachineKind = "washer"
	KindDryer  MachineKind = "dryer"
)

// Valid reports whether the kind is one of the recognized appliance types
func (k MachineKind) Valid() bool {
	return k == KindWasher || k == KindDryer
}

// MachineDescriptor is a static catalog entry for one shared appliance
type MachineDescriptor struct {
	ID                     string      `json:"id" yaml:"id"`
	Kind                   MachineKind `json:"kind" yaml:"kind"`
	DefaultDurationMinutes int         `json:"default_duration_minutes" yaml:"default_duration_minutes"`
}

// Validate validates a single catalog entry
func (m *MachineDescriptor) Validate() error {
	if m.ID == "" {
		return errors.New("machine id is required")
	}
	if !m.Kind.Valid() {
		return fmt.Errorf("invalid machine kind: %s (must be 'washer' or 'dryer')", m.Kind)
	}
	if m.DefaultDurationMinutes <= 0 {
		return fmt.Errorf("machine %s: default duration must be positive, got %d", m.ID, m.DefaultDurationMinutes)
	}
	return nil
}

// Catalog is the immutable set of machines known to the system.
// Machine ids are the sole key and must be unique.
type Catalog struct {
	machines []MachineDescriptor
	byID     map[string]MachineDescriptor
}

// NewCatalog builds a catalog from descriptors, rejecting duplicates and
// invalid entries
func NewCatalog(machines []MachineDescriptor) (*Catalog, error) {
	if len(machines) == 0 {
		return nil, errors.New("catalog must contain at least one machine")
	}

	byID := make(map[string]MachineDescriptor, len(machines))
	for i := range machines {
		m := machines[i]
		if err := m.Validate(); err != nil {
			return nil, err
		}
		if _, exists := byID[m.ID]; exists {
			return nil, fmt.Errorf("duplicate machine id: %s", m.ID)
		}
		byID[m.ID] = m
	}

	return &Catalog{
		machines: machines,
		byID:     byID,
	}, nil
}

// DefaultCatalog returns the reference deployment: two washers at 30 minutes,
// two dryers at 60 minutes
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog([]MachineDescriptor{
		{ID: "washer1", Kind: KindWasher, DefaultDurationMinutes: 30},
		{ID: "washer2", Kind: KindWasher, DefaultDurationMinutes: 30},
		{ID: "dryer1", Kind: KindDryer, DefaultDurationMinutes: 60},
		{ID: "dryer2", Kind: KindDryer, DefaultDurationMinutes: 60},
	})
	if err != nil {
		// The built-in catalog is statically valid
		panic(err)
	}
	return catalog
}

// Get looks up a machine descriptor by id
func (c *Catalog) Get(id string) (MachineDescriptor, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// Machines returns the catalog entries in declaration order
func (c *Catalog) Machines() []MachineDescriptor {
	return c.machines
}

// Size returns the number of machines in the catalog
func (c *Catalog) Size() int {
	return len(c.machines)
}
