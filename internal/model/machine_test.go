package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachineDescriptorValidate(t *testing.T) {
	tests := []struct {
		name    string
		machine MachineDescriptor
		wantErr bool
	}{
		{
			name:    "valid washer",
			machine: MachineDescriptor{ID: "washer1", Kind: KindWasher, DefaultDurationMinutes: 30},
		},
		{
			name:    "valid dryer",
			machine: MachineDescriptor{ID: "dryer1", Kind: KindDryer, DefaultDurationMinutes: 60},
		},
		{
			name:    "missing id",
			machine: MachineDescriptor{Kind: KindWasher, DefaultDurationMinutes: 30},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			machine: MachineDescriptor{ID: "oven1", Kind: "oven", DefaultDurationMinutes: 30},
			wantErr: true,
		},
		{
			name:    "zero duration",
			machine: MachineDescriptor{ID: "washer1", Kind: KindWasher, DefaultDurationMinutes: 0},
			wantErr: true,
		},
		{
			name:    "negative duration",
			machine: MachineDescriptor{ID: "washer1", Kind: KindWasher, DefaultDurationMinutes: -5},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.machine.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]MachineDescriptor{
		{ID: "washer1", Kind: KindWasher, DefaultDurationMinutes: 30},
		{ID: "washer1", Kind: KindWasher, DefaultDurationMinutes: 45},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate machine id")
}

func TestNewCatalogRejectsEmpty(t *testing.T) {
	_, err := NewCatalog(nil)
	assert.Error(t, err)
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.Equal(t, 4, catalog.Size())

	washer, ok := catalog.Get("washer1")
	require.True(t, ok)
	assert.Equal(t, KindWasher, washer.Kind)
	assert.Equal(t, 30, washer.DefaultDurationMinutes)

	dryer, ok := catalog.Get("dryer2")
	require.True(t, ok)
	assert.Equal(t, KindDryer, dryer.Kind)
	assert.Equal(t, 60, dryer.DefaultDurationMinutes)

	_, ok = catalog.Get("washer9")
	assert.False(t, ok)
}
