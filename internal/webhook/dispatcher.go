package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dispatcher delivers completion-warning alerts to the configured webhook
// with retry logic and a circuit breaker. Delivery is best-effort: a final
// failure is reported in the returned log but never retried later.
type Dispatcher struct {
	url            string
	retryConfig    model.RetryConfig
	httpClient     *http.Client
	circuitBreaker *CircuitBreaker
}

// NewDispatcher creates a dispatcher posting to url
func NewDispatcher(url string, timeout time.Duration, retryConfig model.RetryConfig) *Dispatcher {
	retryConfig.SetDefaults()
	return &Dispatcher{
		url:         url,
		retryConfig: retryConfig,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		circuitBreaker: NewCircuitBreaker(),
	}
}

// Send delivers one alert payload, retrying per the retry configuration.
// The returned AlertLog records every attempt and the final status even
// when delivery ultimately fails.
func (d *Dispatcher) Send(ctx context.Context, payload model.AlertPayload, correlationID string) (*model.AlertLog, error) {
	alertLog := &model.AlertLog{
		ID:            primitive.NewObjectID(),
		MachineID:     payload.MachineID,
		CorrelationID: correlationID,
		WebhookURL:    d.url,
		Payload:       payload,
		Attempts:      make([]model.AlertAttempt, 0),
		FinalStatus:   "retrying",
		CreatedAt:     time.Now().UTC(),
	}

	if !d.circuitBreaker.CanAttempt() {
		slog.Warn("Circuit breaker is open, skipping alert delivery",
			"correlation_id", correlationID,
			"machine_id", payload.MachineID,
			"circuit_state", d.circuitBreaker.GetStateName(),
		)
		alertLog.FinalStatus = "failed"
		alertLog.CompletedAt = time.Now().UTC()
		return alertLog, fmt.Errorf("circuit breaker is open")
	}

	retryStrategy := NewRetryStrategy(d.retryConfig)

	for attempt := 1; attempt <= retryStrategy.GetMaxAttempts(); attempt++ {
		attemptResult, err := d.deliver(ctx, payload)
		attemptResult.AttemptNumber = attempt
		alertLog.Attempts = append(alertLog.Attempts, attemptResult)

		if err == nil && attemptResult.StatusCode >= 200 && attemptResult.StatusCode < 300 {
			slog.Info("Alert delivered",
				"correlation_id", correlationID,
				"machine_id", payload.MachineID,
				"attempt", attempt,
				"status_code", attemptResult.StatusCode,
			)

			alertLog.FinalStatus = "delivered"
			alertLog.CompletedAt = time.Now().UTC()
			d.circuitBreaker.RecordSuccess()
			return alertLog, nil
		}

		if !retryStrategy.ShouldRetry(attempt, attemptResult.StatusCode, err) {
			slog.Error("Alert delivery failed, no retry",
				"correlation_id", correlationID,
				"machine_id", payload.MachineID,
				"attempt", attempt,
				"status_code", attemptResult.StatusCode,
				"error", attemptResult.Error,
			)

			alertLog.FinalStatus = "failed"
			alertLog.CompletedAt = time.Now().UTC()
			d.circuitBreaker.RecordFailure()
			return alertLog, fmt.Errorf("alert delivery failed after %d attempts", attempt)
		}

		if attempt < retryStrategy.GetMaxAttempts() {
			delay := retryStrategy.CalculateDelay(attempt)
			slog.Warn("Alert delivery failed, retrying",
				"correlation_id", correlationID,
				"machine_id", payload.MachineID,
				"attempt", attempt,
				"next_retry_ms", delay.Milliseconds(),
				"error", attemptResult.Error,
			)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				alertLog.FinalStatus = "failed"
				alertLog.CompletedAt = time.Now().UTC()
				return alertLog, ctx.Err()
			}
		}
	}

	slog.Error("Alert delivery failed after all retries",
		"correlation_id", correlationID,
		"machine_id", payload.MachineID,
		"attempts", retryStrategy.GetMaxAttempts(),
	)

	alertLog.FinalStatus = "failed"
	alertLog.CompletedAt = time.Now().UTC()
	d.circuitBreaker.RecordFailure()
	return alertLog, fmt.Errorf("alert delivery failed after %d attempts", retryStrategy.GetMaxAttempts())
}

// deliver performs a single delivery attempt
func (d *Dispatcher) deliver(ctx context.Context, payload model.AlertPayload) (model.AlertAttempt, error) {
	start := time.Now()
	attempt := model.AlertAttempt{
		Timestamp: start.UTC(),
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		attempt.Error = fmt.Sprintf("Failed to marshal payload: %v", err)
		attempt.DurationMs = time.Since(start).Milliseconds()
		return attempt, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		attempt.Error = fmt.Sprintf("Failed to create request: %v", err)
		attempt.DurationMs = time.Since(start).Milliseconds()
		return attempt, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		attempt.Error = fmt.Sprintf("Request failed: %v", err)
		attempt.DurationMs = time.Since(start).Milliseconds()
		return attempt, err
	}
	defer resp.Body.Close()

	// Limit response capture to 1KB
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		slog.Warn("Failed to read webhook response body", "error", err)
	}

	attempt.StatusCode = resp.StatusCode
	attempt.ResponseBody = string(bodyBytes)
	attempt.DurationMs = time.Since(start).Milliseconds()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		attempt.Error = fmt.Sprintf("Webhook returned status %d", resp.StatusCode)
		return attempt, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return attempt, nil
}

// GetCircuitBreakerState returns the current circuit breaker state
func (d *Dispatcher) GetCircuitBreakerState() string {
	return d.circuitBreaker.GetStateName()
}
