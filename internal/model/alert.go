package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertPayload is the completion-warning notification body sent to the
// configured webhook
type AlertPayload struct {
	Title     string `json:"title" bson:"title"`
	Body      string `json:"body" bson:"body"`
	MachineID string `json:"machine_id" bson:"machine_id"`
}

// AlertAttempt represents a single webhook delivery attempt
type AlertAttempt struct {
	AttemptNumber int       `json:"attempt_number" bson:"attempt_number"`
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	StatusCode    int       `json:"status_code,omitempty" bson:"status_code,omitempty"`
	ResponseBody  string    `json:"response_body,omitempty" bson:"response_body,omitempty"`
	Error         string    `json:"error,omitempty" bson:"error,omitempty"`
	DurationMs    int64     `json:"duration_ms" bson:"duration_ms"`
}

// AlertLog represents an alert delivery log document
type AlertLog struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	MachineID     string             `json:"machine_id" bson:"machine_id"`
	CorrelationID string             `json:"correlation_id" bson:"correlation_id"`
	WebhookURL    string             `json:"webhook_url" bson:"webhook_url"`
	Payload       AlertPayload       `json:"payload" bson:"payload"`
	Attempts      []AlertAttempt     `json:"attempts" bson:"attempts"`
	FinalStatus   string             `json:"final_status" bson:"final_status"` // "delivered", "failed", "retrying"
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	CompletedAt   time.Time          `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

// AlertLogSummary represents a summary for list responses
type AlertLogSummary struct {
	ID            string `json:"id"`
	MachineID     string `json:"machine_id"`
	CorrelationID string `json:"correlation_id"`
	Title         string `json:"title"`
	FinalStatus   string `json:"final_status"`
	AttemptsCount int    `json:"attempts_count"`
	CreatedAt     string `json:"created_at"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

// ToSummary converts AlertLog to AlertLogSummary
func (al *AlertLog) ToSummary() AlertLogSummary {
	var createdAt, completedAt string
	if !al.CreatedAt.IsZero() {
		createdAt = al.CreatedAt.Format(time.RFC3339)
	}
	if !al.CompletedAt.IsZero() {
		completedAt = al.CompletedAt.Format(time.RFC3339)
	}

	return AlertLogSummary{
		ID:            al.ID.Hex(),
		MachineID:     al.MachineID,
		CorrelationID: al.CorrelationID,
		Title:         al.Payload.Title,
		FinalStatus:   al.FinalStatus,
		AttemptsCount: len(al.Attempts),
		CreatedAt:     createdAt,
		CompletedAt:   completedAt,
	}
}

// RetryConfig represents webhook retry configuration
type RetryConfig struct {
	MaxAttempts    int     `json:"max_attempts"`
	InitialDelayMs int     `json:"initial_delay_ms"`
	MaxDelayMs     int     `json:"max_delay_ms"`
	Multiplier     float64 `json:"multiplier"`
}

// SetDefaults sets default values for retry configuration
func (rc *RetryConfig) SetDefaults() {
	if rc.MaxAttempts == 0 {
		rc.MaxAttempts = 3
	}
	if rc.InitialDelayMs == 0 {
		rc.InitialDelayMs = 1000
	}
	if rc.MaxDelayMs == 0 {
		rc.MaxDelayMs = 30000
	}
	if rc.Multiplier == 0 {
		rc.Multiplier = 2.0
	}
}
