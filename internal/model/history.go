package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Reservation lifecycle event types
const (
	EventClaimed  = "claimed"
	EventReleased = "released"
	EventExpired  = "expired"
)

// ReservationEvent is one entry in the reservation history log
type ReservationEvent struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MachineID       string             `json:"machine_id" bson:"machine_id"`
	Event           string             `json:"event" bson:"event"`
	DurationMinutes int                `json:"duration_minutes,omitempty" bson:"duration_minutes,omitempty"`
	EndTime         time.Time          `json:"end_time,omitempty" bson:"end_time,omitempty"`
	CorrelationID   string             `json:"correlation_id" bson:"correlation_id"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
}

// ReservationEventSummary represents a history entry for list responses
type ReservationEventSummary struct {
	ID              string `json:"id"`
	MachineID       string `json:"machine_id"`
	Event           string `json:"event"`
	DurationMinutes int    `json:"duration_minutes,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
	CorrelationID   string `json:"correlation_id"`
	CreatedAt       string `json:"created_at"`
}

// ToSummary converts ReservationEvent to ReservationEventSummary
func (e *ReservationEvent) ToSummary() ReservationEventSummary {
	var endTime, createdAt string
	if !e.EndTime.IsZero() {
		endTime = e.EndTime.Format(time.RFC3339)
	}
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt.Format(time.RFC3339)
	}

	return ReservationEventSummary{
		ID:              e.ID.Hex(),
		MachineID:       e.MachineID,
		Event:           e.Event,
		DurationMinutes: e.DurationMinutes,
		EndTime:         endTime,
		CorrelationID:   e.CorrelationID,
		CreatedAt:       createdAt,
	}
}
