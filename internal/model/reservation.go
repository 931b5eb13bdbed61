package model

import (
	"time"
)

// ReservationRecord is the durable per-machine reservation state.
// Absence of a record is equivalent to InUse=false. A record with
// InUse=true is only semantically active while EndTime is strictly in
// the future; once past it is logically expired even before the sweep
// rewrites it.
type ReservationRecord struct {
	MachineID string    `json:"machine_id" bson:"machine_id"`
	InUse     bool      `json:"in_use" bson:"in_use"`
	EndTime   time.Time `json:"end_time" bson:"end_time"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// ActiveAt reports whether the reservation is semantically active at the
// given instant. Nil records and free records are never active.
func (r *ReservationRecord) ActiveAt(now time.Time) bool {
	if r == nil || !r.InUse {
		return false
	}
	return r.EndTime.After(now)
}

// MinutesRemainingAt returns ceil((EndTime - now) / 60s), floored at 1.
// Only meaningful while the record is active.
func (r *ReservationRecord) MinutesRemainingAt(now time.Time) int {
	remaining := r.EndTime.Sub(now)
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// MachineStatus is the derived busy/free view of one machine. It is
// computed on demand from the stored record and the clock, never persisted.
type MachineStatus struct {
	MachineID        string      `json:"machine_id"`
	Kind             MachineKind `json:"kind"`
	InUse            bool        `json:"in_use"`
	MinutesRemaining int         `json:"minutes_remaining,omitempty"`
	EndTime          string      `json:"end_time,omitempty"`
}
