package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Service runs one AI operation: it resolves prompts, calls the provider and
// decodes the structured answer.
type Service struct {
	Provider Provider // Exported for access from server package
	op       config.Operation
	config   config.OperationAIConfig
	resolve  func(kind, fallback string) string
	logger   *errors.Logger
}

// NewService creates the AI service for one operation
func NewService(appCfg *config.Config, op config.Operation, prompts *config.PromptStore, logger *errors.Logger) (*Service, error) {
	cfg := appCfg.GetOperationConfig(op)

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", string(op),
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	checkTimeout := appCfg.Observability.HealthCheck.AIModelCheckTimeout

	var provider Provider
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, op, checkTimeout, logger)
	case "anthropic":
		provider, err = NewAnthropicProvider(cfg, op, checkTimeout, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	return newService(provider, op, cfg, func(kind, fallback string) string {
		return appCfg.ResolvePrompt(prompts, op, kind, fallback)
	}, logger), nil
}

func newService(provider Provider, op config.Operation, cfg config.OperationAIConfig, resolve func(kind, fallback string) string, logger *errors.Logger) *Service {
	if resolve == nil {
		resolve = func(_, fallback string) string { return fallback }
	}
	return &Service{
		Provider: provider,
		op:       op,
		config:   cfg,
		resolve:  resolve,
		logger:   logger,
	}
}

// Operation returns the operation this service runs
func (s *Service) Operation() config.Operation {
	return s.op
}

// Model returns the configured model name
func (s *Service) Model() string {
	return s.config.Model
}

// GetModelInfo returns information about the AI model for health checks
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	return s.Provider.GetModelInfo(ctx)
}

// Close releases the provider
func (s *Service) Close() error {
	return s.Provider.Close()
}

// prompts returns the system prompt and the unformatted user template
func (s *Service) prompts() (string, string) {
	system, user := defaultPrompts(s.op)
	return s.resolve("system", system), s.resolve("user", user)
}

// generate sends one request for the service's operation and decodes the answer into Out
func generate[Out any](ctx context.Context, s *Service, userPrompt string, spanAttributes ...attribute.KeyValue) (Out, *TokenUsage, error) {
	var output Out
	tracer := otel.Tracer("resumeforge.ai")
	ctx, span := tracer.Start(ctx, "ai."+string(s.op))
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", s.config.Provider),
		attribute.String("ai.model", s.config.Model),
		attribute.Float64("ai.temperature", float64(*s.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	systemPrompt, _ := s.prompts()
	resp, err := s.Provider.GenerateJSON(ctx, Request{
		Operation:    string(s.op),
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Schema:       responseSchema(s.op),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generation failed")
		if _, ok := errors.AsAppError(err); ok {
			return output, nil, err
		}
		return output, nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+string(s.op), err)
	}

	if err := json.Unmarshal([]byte(resp.Text), &output); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid response")
		return output, nil, errors.NewAIError(errors.ErrCodeAIResponseParse,
			"Failed to parse AI response for "+string(s.op), err)
	}

	if resp.Usage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", resp.Usage.InputTokens),
			attribute.Int64("ai.tokens.output", resp.Usage.OutputTokens),
			attribute.Int64("ai.tokens.total", resp.Usage.TotalTokens),
		)
	}
	span.SetAttributes(attribute.Bool("success", true))
	return output, resp.Usage, nil
}

// Analyze scores a resume against a job description
func (s *Service) Analyze(ctx context.Context, input types.AnalyzeInput) (types.AnalysisResult, *TokenUsage, error) {
	_, user := s.prompts()
	result, usage, err := generate[types.AnalysisResult](ctx, s,
		fmt.Sprintf(user, input.Resume, input.JobDescription),
		attribute.Int("input.resume_length", len(input.Resume)),
		attribute.Int("input.job_length", len(input.JobDescription)))
	if err != nil {
		return types.AnalysisResult{}, nil, err
	}
	result.ATSScore = min(max(result.ATSScore, 0), 100)
	return result, usage, nil
}

// RecommendTemplate scores the available templates for a resume/job pair
func (s *Service) RecommendTemplate(ctx context.Context, input types.AnalyzeInput) (types.TemplateRecommendation, *TokenUsage, error) {
	_, user := s.prompts()
	return generate[types.TemplateRecommendation](ctx, s,
		fmt.Sprintf(user, templateList(), input.Resume, input.JobDescription),
		attribute.Int("input.resume_length", len(input.Resume)))
}

// GenerateInitialDraft produces a first optimized draft from the resume and its analysis
func (s *Service) GenerateInitialDraft(ctx context.Context, input types.InitialDraftInput) (types.InitialDraftOutput, *TokenUsage, error) {
	_, user := s.prompts()
	prompt, err := formatDraftPrompt(user, input)
	if err != nil {
		return types.InitialDraftOutput{}, nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "Failed to build draft prompt", err)
	}
	return generate[types.InitialDraftOutput](ctx, s, prompt,
		attribute.Int("input.resume_length", len(input.Resume)),
		attribute.String("input.template", input.TemplateType))
}

// RefineSection proposes rewrites for one resume section
func (s *Service) RefineSection(ctx context.Context, input types.RefineSectionInput) (types.SectionRefinement, *TokenUsage, error) {
	_, user := s.prompts()
	return generate[types.SectionRefinement](ctx, s,
		fmt.Sprintf(user, input.JobDescription, input.SectionText),
		attribute.Int("input.section_length", len(input.SectionText)))
}

// SuggestSkillBullets writes one bullet per keyword gap
func (s *Service) SuggestSkillBullets(ctx context.Context, input types.SkillGapInput) ([]types.SkillSuggestion, *TokenUsage, error) {
	_, user := s.prompts()
	return generate[[]types.SkillSuggestion](ctx, s,
		fmt.Sprintf(user, input.JobDescription, input.Resume, strings.Join(input.KeywordGaps, ", ")),
		attribute.Int("input.gap_count", len(input.KeywordGaps)))
}

// GenerateBullets writes bullet points for a job title and task
func (s *Service) GenerateBullets(ctx context.Context, input types.BulletPointsInput) (types.BulletPointsOutput, *TokenUsage, error) {
	_, user := s.prompts()
	return generate[types.BulletPointsOutput](ctx, s,
		fmt.Sprintf(user, input.JobTitle, input.TaskDescription))
}
