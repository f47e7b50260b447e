package observability

import (
	"context"
	"errors"
	"testing"

	"resumeforge/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestDisabledManagerRunsFunction(t *testing.T) {
	om := NewNopManager()
	want := errors.New("boom")

	called := false
	err := om.GetMetrics().TrackAIOperationWithTokens(context.Background(), "analyze", func(context.Context) *AIOperationResult {
		called = true
		return &AIOperationResult{Error: want}
	}, om)

	assert.True(t, called)
	assert.ErrorIs(t, err, want)

	// recorders on uninitialized metrics are no-ops
	om.GetMetrics().RecordBusinessMetric(context.Background(), MetricHistorySaved, true, om)
	om.GetMetrics().RecordCacheLookup(context.Background(), "hit", om)
}

func collectNames(t *testing.T, om *ObservabilityManager) map[string]metricdata.Metrics {
	t.Helper()
	require.NotNil(t, om.manualReader)

	var rm metricdata.ResourceMetrics
	require.NoError(t, om.manualReader.Collect(context.Background(), &rm))

	byName := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			byName[m.Name] = m
		}
	}
	return byName
}

func TestEnabledManagerRecords(t *testing.T) {
	om, err := NewObservabilityManager(ObservabilityConfig{
		ServiceName:    "resumeforge-test",
		ServiceVersion: "test",
		Enabled:        true,
		SampleRate:     1.0,
	}, nil)
	require.NoError(t, err)
	defer func() { _ = om.Shutdown(context.Background()) }()

	ctx := context.Background()
	metrics := om.GetMetrics()

	err = metrics.TrackAIOperationWithTokens(ctx, "analyze", func(context.Context) *AIOperationResult {
		return &AIOperationResult{TokenUsage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}
	}, om)
	require.NoError(t, err)

	metrics.RecordBusinessMetric(ctx, MetricAnalysisCompleted, true, om)
	metrics.RecordBusinessMetric(ctx, MetricHistoryDeleted, true, om)
	metrics.RecordBusinessMetric(ctx, MetricRateLimitHit, false, om)
	metrics.RecordCacheLookup(ctx, "miss", om)

	byName := collectNames(t, om)
	for _, name := range []string{
		"resumeforge_ai_requests_total",
		"resumeforge_ai_processing_duration_seconds",
		"resumeforge_ai_token_usage",
		"resumeforge_analyses_total",
		"resumeforge_history_mutations_total",
		"resumeforge_rate_limit_hits_total",
		"resumeforge_cache_lookups_total",
	} {
		assert.Contains(t, byName, name)
	}

	requests, ok := byName["resumeforge_ai_requests_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, requests.DataPoints, 1)
	assert.Equal(t, int64(1), requests.DataPoints[0].Value)
}

func TestBusinessMetricsCanBeDisabled(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.CustomMetrics.AIOperations.Enabled = true
	cfg.Observability.CustomMetrics.BusinessMetrics.Enabled = false

	om, err := NewObservabilityManager(ObservabilityConfig{ServiceName: "resumeforge-test", Enabled: true, SampleRate: 1}, cfg)
	require.NoError(t, err)
	defer func() { _ = om.Shutdown(context.Background()) }()

	om.GetMetrics().RecordBusinessMetric(context.Background(), MetricAnalysisCompleted, true, om)

	assert.NotContains(t, collectNames(t, om), "resumeforge_analyses_total")
}

func TestGetObservabilityConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Observability.Enabled = true
	cfg.Observability.ServiceName = "resumeforge"
	cfg.Observability.SampleRate = 0.5
	cfg.Observability.Tracing.SampleRate = 0.25
	cfg.Observability.Prometheus.Enabled = true
	cfg.Observability.Prometheus.Port = "9100"

	got := GetObservabilityConfig(cfg, "1.2.3")
	assert.Equal(t, "1.2.3", got.ServiceVersion)
	assert.Equal(t, 0.25, got.SampleRate)
	assert.True(t, got.Prometheus.Enabled)
	assert.Equal(t, "9100", got.Prometheus.Port)

	fallback := GetObservabilityConfig(nil, "dev")
	assert.False(t, fallback.Enabled)
	assert.Equal(t, "resumeforge", fallback.ServiceName)
}
