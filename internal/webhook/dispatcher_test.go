package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dandantas/laundromat/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig() model.RetryConfig {
	return model.RetryConfig{
		MaxAttempts:    3,
		InitialDelayMs: 1,
		MaxDelayMs:     2,
		Multiplier:     1.0,
	}
}

func testPayload() model.AlertPayload {
	return model.AlertPayload{
		Title:     "Laundry Almost Done!",
		Body:      "Your laundry in washer1 will be done in 10 minutes",
		MachineID: "washer1",
	}
}

func TestSendDeliversOnFirstAttempt(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(server.URL, 5*time.Second, fastRetryConfig())
	alertLog, err := d.Send(context.Background(), testPayload(), "corr-1")

	require.NoError(t, err)
	assert.Equal(t, "delivered", alertLog.FinalStatus)
	assert.Equal(t, "washer1", alertLog.MachineID)
	require.Len(t, alertLog.Attempts, 1)
	assert.Equal(t, http.StatusOK, alertLog.Attempts[0].StatusCode)
	assert.Equal(t, int32(1), requests.Load())
}

func TestSendRetriesOnServerError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(server.URL, 5*time.Second, fastRetryConfig())
	alertLog, err := d.Send(context.Background(), testPayload(), "corr-1")

	require.NoError(t, err)
	assert.Equal(t, "delivered", alertLog.FinalStatus)
	require.Len(t, alertLog.Attempts, 3)
	assert.Equal(t, http.StatusInternalServerError, alertLog.Attempts[0].StatusCode)
	assert.Equal(t, http.StatusOK, alertLog.Attempts[2].StatusCode)
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	d := NewDispatcher(server.URL, 5*time.Second, fastRetryConfig())
	alertLog, err := d.Send(context.Background(), testPayload(), "corr-1")

	require.Error(t, err)
	assert.Equal(t, "failed", alertLog.FinalStatus)
	assert.Len(t, alertLog.Attempts, 1)
	assert.Equal(t, int32(1), requests.Load())
}

func TestSendFailsAfterAllRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	d := NewDispatcher(server.URL, 5*time.Second, fastRetryConfig())
	alertLog, err := d.Send(context.Background(), testPayload(), "corr-1")

	require.Error(t, err)
	assert.Equal(t, "failed", alertLog.FinalStatus)
	assert.Len(t, alertLog.Attempts, 3)
}

func TestSendOpensCircuitAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	d := NewDispatcher(server.URL, 5*time.Second, fastRetryConfig())

	for i := 0; i < 5; i++ {
		_, err := d.Send(context.Background(), testPayload(), "corr-1")
		require.Error(t, err)
	}
	assert.Equal(t, "open", d.GetCircuitBreakerState())

	// Open circuit skips delivery entirely
	alertLog, err := d.Send(context.Background(), testPayload(), "corr-2")
	require.Error(t, err)
	assert.Equal(t, "failed", alertLog.FinalStatus)
	assert.Empty(t, alertLog.Attempts)
}

func TestRetryStrategyDelays(t *testing.T) {
	rs := NewRetryStrategy(model.RetryConfig{
		MaxAttempts:    5,
		InitialDelayMs: 1000,
		MaxDelayMs:     3000,
		Multiplier:     2.0,
	})

	assert.Equal(t, time.Second, rs.CalculateDelay(1))
	assert.Equal(t, 2*time.Second, rs.CalculateDelay(2))
	// Capped by max delay
	assert.Equal(t, 3*time.Second, rs.CalculateDelay(3))
	assert.Equal(t, 3*time.Second, rs.CalculateDelay(4))
	assert.Equal(t, time.Duration(0), rs.CalculateDelay(0))
}

func TestShouldRetry(t *testing.T) {
	rs := NewRetryStrategy(model.RetryConfig{MaxAttempts: 3})

	tests := []struct {
		name       string
		attempt    int
		statusCode int
		err        error
		want       bool
	}{
		{"network error retries", 1, 0, assert.AnError, true},
		{"500 retries", 1, 500, assert.AnError, true},
		{"503 retries", 2, 503, assert.AnError, true},
		{"429 retries", 1, 429, assert.AnError, true},
		{"400 does not retry", 1, 400, assert.AnError, false},
		{"404 does not retry", 1, 404, assert.AnError, false},
		{"max attempts exhausted", 3, 500, assert.AnError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rs.ShouldRetry(tt.attempt, tt.statusCode, tt.err))
		})
	}
}
