package ai

import (
	"errors"
	"testing"
	"time"

	"resumeforge/internal/config"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func breakerConfig(enabled bool, minRequests uint32, threshold float64) *config.OperationAIConfig {
	return &config.OperationAIConfig{
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled:          enabled,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          time.Minute,
			MinRequests:      minRequests,
			FailureThreshold: threshold,
		},
	}
}

func TestCircuitBreakerIndependentPerOperation(t *testing.T) {
	refine := NewCircuitBreaker[string](breakerName("", config.OperationRefine), breakerConfig(true, 2, 0.5), nil)
	draft := NewCircuitBreaker[string](breakerName("", config.OperationDraft), breakerConfig(true, 2, 0.5), nil)

	assert.Equal(t, "AI-refine", refine.GetStats()["name"])
	assert.Equal(t, "closed", refine.GetStats()["state"])

	boom := errors.New("boom")
	for range 2 {
		_, err := refine.Execute(func() (string, error) { return "", boom })
		require.ErrorIs(t, err, boom)
	}

	assert.False(t, refine.IsHealthy())
	assert.Equal(t, "open", refine.GetStats()["state"])
	assert.True(t, draft.IsHealthy(), "tripping one operation must not affect another")

	_, err := refine.Execute(func() (string, error) { return "never called", nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestCircuitBreakerBelowMinRequests(t *testing.T) {
	cb := NewCircuitBreaker[int]("AI-test", breakerConfig(true, 5, 0.1), nil)
	for range 4 {
		_, _ = cb.Execute(func() (int, error) { return 0, errors.New("fail") })
	}
	assert.True(t, cb.IsHealthy())
}

func TestCircuitBreakerDisabled(t *testing.T) {
	cb := NewCircuitBreaker[int]("AI-test", breakerConfig(false, 1, 0.1), nil)
	require.Nil(t, cb)

	got, err := cb.Execute(func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.True(t, cb.IsHealthy())
	assert.Equal(t, map[string]any{"enabled": false}, cb.GetStats())
}

func TestBreakerName(t *testing.T) {
	assert.Equal(t, "AI-analyze", breakerName("", config.OperationAnalyze))
	assert.Equal(t, "AI-model-analyze", breakerName("model", config.OperationAnalyze))
}
