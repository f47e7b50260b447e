package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// Business metric types accepted by RecordBusinessMetric
const (
	MetricAnalysisCompleted   = "analysis_completed"
	MetricTemplateRecommended = "template_recommended"
	MetricDraftGenerated      = "draft_generated"
	MetricSectionRefined      = "section_refined"
	MetricSkillsSuggested     = "skills_suggested"
	MetricBulletsGenerated    = "bullets_generated"
	MetricHistorySaved        = "history_saved"
	MetricHistoryDeleted      = "history_deleted"
	MetricUserSignup          = "user_signup"
	MetricUserSignin          = "user_signin"
	MetricRateLimitHit        = "rate_limit_hit"
)

// Metrics holds all custom metrics for resumeforge
type Metrics struct {
	// AI operation metrics
	AIProcessingTime metric.Float64Histogram
	AIRequestCount   metric.Int64Counter
	AIErrorCount     metric.Int64Counter
	AITokenUsage     metric.Int64Histogram

	// Business metrics
	AnalysesCompleted metric.Int64Counter
	DraftsGenerated   metric.Int64Counter
	SectionsRefined   metric.Int64Counter
	Suggestions       metric.Int64Counter
	HistoryMutations  metric.Int64Counter
	AuthAttempts      metric.Int64Counter

	// Infrastructure metrics
	CacheLookups  metric.Int64Counter
	RateLimitHits metric.Int64Counter
}

type counterSpec struct {
	target      *metric.Int64Counter
	name        string
	description string
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.AIProcessingTime, err = meter.Float64Histogram(
		"resumeforge_ai_processing_duration_seconds",
		metric.WithDescription("Time spent processing AI requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI processing time metric: %w", err)
	}

	m.AITokenUsage, err = meter.Int64Histogram(
		"resumeforge_ai_token_usage",
		metric.WithDescription("Token usage for AI requests (input, output, total)"),
		metric.WithUnit("tokens"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI token usage metric: %w", err)
	}

	counters := []counterSpec{
		{&m.AIRequestCount, "resumeforge_ai_requests_total", "Total number of AI requests"},
		{&m.AIErrorCount, "resumeforge_ai_errors_total", "Total number of AI request errors"},
		{&m.AnalysesCompleted, "resumeforge_analyses_total", "Total number of resume analyses"},
		{&m.DraftsGenerated, "resumeforge_drafts_generated_total", "Total number of initial drafts generated"},
		{&m.SectionsRefined, "resumeforge_sections_refined_total", "Total number of section refinements"},
		{&m.Suggestions, "resumeforge_suggestions_total", "Template, skill and bullet suggestions served"},
		{&m.HistoryMutations, "resumeforge_history_mutations_total", "Saved analyses created or deleted"},
		{&m.AuthAttempts, "resumeforge_auth_attempts_total", "Signup and signin attempts"},
		{&m.CacheLookups, "resumeforge_cache_lookups_total", "Analysis cache lookups by result"},
		{&m.RateLimitHits, "resumeforge_rate_limit_hits_total", "Total number of rate limit hits"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
		*c.target = counter
	}

	return m, nil
}

// AIOperationResult holds the result of an AI operation including token usage
type AIOperationResult struct {
	Error      error
	TokenUsage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// TrackAIOperationWithTokens instruments an AI operation with tracing, metrics, and token usage
func (m *Metrics) TrackAIOperationWithTokens(ctx context.Context, operation string, fn func(context.Context) *AIOperationResult, om *ObservabilityManager) error {
	if m.AIProcessingTime == nil {
		// Metrics not initialized, just run the function
		result := fn(ctx)
		if result != nil {
			return result.Error
		}
		return nil
	}

	ctx, span := om.Tracer("resumeforge.ai").Start(ctx, "track."+operation)
	defer span.End()

	start := time.Now()
	result := fn(ctx)
	duration := time.Since(start).Seconds()

	var err error
	if result != nil {
		err = result.Error
	}

	if m.isAIMetricsEnabled(om) {
		m.recordAIMetrics(ctx, operation, err, duration, result, om, span)
	}

	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("error", true))
	}

	return err
}

func (m *Metrics) isAIMetricsEnabled(om *ObservabilityManager) bool {
	if om == nil || om.fullConfig == nil {
		return true
	}
	return om.fullConfig.Observability.CustomMetrics.AIOperations.Enabled
}

func (m *Metrics) recordAIMetrics(ctx context.Context, operation string, err error, duration float64, result *AIOperationResult, om *ObservabilityManager, span oteltrace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	}

	if om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackDuration {
		m.AIProcessingTime.Record(ctx, duration, metric.WithAttributes(attrs...))
	}
	m.AIRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if err != nil {
		m.AIErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.recordTokenUsage(ctx, result, attrs, om, span)

	span.SetAttributes(attrs...)
}

func (m *Metrics) recordTokenUsage(ctx context.Context, result *AIOperationResult, attrs []attribute.KeyValue, om *ObservabilityManager, span oteltrace.Span) {
	if result == nil || result.TokenUsage == nil {
		return
	}
	usage := result.TokenUsage

	if om == nil || om.fullConfig == nil || om.fullConfig.Observability.CustomMetrics.AIOperations.TrackTokenUsage {
		for _, tt := range []struct {
			tokenType string
			value     int64
		}{
			{"input", usage.InputTokens},
			{"output", usage.OutputTokens},
			{"total", usage.TotalTokens},
		} {
			tokenAttrs := append(append([]attribute.KeyValue(nil), attrs...), attribute.String("token_type", tt.tokenType))
			m.AITokenUsage.Record(ctx, tt.value, metric.WithAttributes(tokenAttrs...))
		}
	}

	// traces always carry token counts
	span.SetAttributes(
		attribute.Int64("ai.tokens.input", usage.InputTokens),
		attribute.Int64("ai.tokens.output", usage.OutputTokens),
		attribute.Int64("ai.tokens.total", usage.TotalTokens),
	)
}

// RecordBusinessMetric records business-specific metrics
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, om *ObservabilityManager, attributes ...attribute.KeyValue) {
	if metricType == MetricRateLimitHit {
		m.recordRateLimitHit(ctx, attributes, om)
		return
	}
	if om != nil && om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.BusinessMetrics.Enabled {
		return
	}

	attrs := append([]attribute.KeyValue{attribute.Bool("success", success)}, attributes...)

	switch metricType {
	case MetricAnalysisCompleted:
		add(ctx, m.AnalysesCompleted, attrs)
	case MetricDraftGenerated:
		add(ctx, m.DraftsGenerated, attrs)
	case MetricSectionRefined:
		add(ctx, m.SectionsRefined, attrs)
	case MetricTemplateRecommended:
		add(ctx, m.Suggestions, append(attrs, attribute.String("kind", "template")))
	case MetricSkillsSuggested:
		add(ctx, m.Suggestions, append(attrs, attribute.String("kind", "skills")))
	case MetricBulletsGenerated:
		add(ctx, m.Suggestions, append(attrs, attribute.String("kind", "bullets")))
	case MetricHistorySaved:
		add(ctx, m.HistoryMutations, append(attrs, attribute.String("action", "save")))
	case MetricHistoryDeleted:
		add(ctx, m.HistoryMutations, append(attrs, attribute.String("action", "delete")))
	case MetricUserSignup:
		add(ctx, m.AuthAttempts, append(attrs, attribute.String("action", "signup")))
	case MetricUserSignin:
		add(ctx, m.AuthAttempts, append(attrs, attribute.String("action", "signin")))
	}
}

// RecordCacheLookup counts an analysis cache lookup; result is hit, miss or error
func (m *Metrics) RecordCacheLookup(ctx context.Context, result string, om *ObservabilityManager) {
	if om != nil && om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackCache {
		return
	}
	add(ctx, m.CacheLookups, []attribute.KeyValue{attribute.String("result", result)})
}

func (m *Metrics) recordRateLimitHit(ctx context.Context, attrs []attribute.KeyValue, om *ObservabilityManager) {
	if om != nil && om.fullConfig != nil && !om.fullConfig.Observability.CustomMetrics.Infrastructure.TrackRateLimits {
		return
	}
	add(ctx, m.RateLimitHits, attrs)
}

func add(ctx context.Context, counter metric.Int64Counter, attrs []attribute.KeyValue) {
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}
