package ai

import (
	"context"
	"sync"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"

	"golang.org/x/sync/errgroup"
)

// AnalysisCache stores analysis results keyed by the resume/job pair
type AnalysisCache interface {
	Get(ctx context.Context, resume, jobDescription string) (types.AnalysisResult, bool, error)
	Set(ctx context.Context, resume, jobDescription string, result types.AnalysisResult) error
}

// Assistant groups the per-operation services behind one façade that the
// workflow engine and the CLI talk to.
type Assistant struct {
	services map[config.Operation]*Service
	cache    AnalysisCache
	logger   *errors.Logger
}

// NewAssistant creates one service per operation
func NewAssistant(appCfg *config.Config, prompts *config.PromptStore, logger *errors.Logger) (*Assistant, error) {
	services := make(map[config.Operation]*Service, len(config.Operations))
	for _, op := range config.Operations {
		svc, err := NewService(appCfg, op, prompts, logger)
		if err != nil {
			return nil, err
		}
		services[op] = svc
	}
	return &Assistant{services: services, logger: logger}, nil
}

// NewAssistantWithServices builds an assistant from existing services
func NewAssistantWithServices(services []*Service, logger *errors.Logger) *Assistant {
	byOp := make(map[config.Operation]*Service, len(services))
	for _, svc := range services {
		byOp[svc.Operation()] = svc
	}
	return &Assistant{services: byOp, logger: logger}
}

// WithCache enables read-through caching of analyses
func (a *Assistant) WithCache(cache AnalysisCache) *Assistant {
	a.cache = cache
	return a
}

// Service returns the service for op, or nil
func (a *Assistant) Service(op config.Operation) *Service {
	return a.services[op]
}

func (a *Assistant) service(op config.Operation) (*Service, error) {
	svc, ok := a.services[op]
	if !ok {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"AI service not configured for operation "+string(op), nil)
	}
	return svc, nil
}

// AnalyzeWithUsage analyzes a resume, consulting the cache first. cached is
// true when the result came from the cache, in which case usage is nil.
func (a *Assistant) AnalyzeWithUsage(ctx context.Context, input types.AnalyzeInput) (result types.AnalysisResult, usage *TokenUsage, cached bool, err error) {
	svc, err := a.service(config.OperationAnalyze)
	if err != nil {
		return types.AnalysisResult{}, nil, false, err
	}

	if a.cache != nil {
		hit, ok, cacheErr := a.cache.Get(ctx, input.Resume, input.JobDescription)
		if cacheErr != nil {
			a.logger.Warn("Analysis cache lookup failed", "error", cacheErr.Error())
		} else if ok {
			return hit, nil, true, nil
		}
	}

	result, usage, err = svc.Analyze(ctx, input)
	if err != nil {
		return types.AnalysisResult{}, nil, false, err
	}

	if a.cache != nil {
		if cacheErr := a.cache.Set(ctx, input.Resume, input.JobDescription, result); cacheErr != nil {
			a.logger.Warn("Analysis cache store failed", "error", cacheErr.Error())
		}
	}
	return result, usage, false, nil
}

// Analyze scores a resume against a job description
func (a *Assistant) Analyze(ctx context.Context, resume, jobDescription string) (types.AnalysisResult, error) {
	result, _, _, err := a.AnalyzeWithUsage(ctx, types.AnalyzeInput{Resume: resume, JobDescription: jobDescription})
	return result, err
}

// RecommendTemplate scores the resume templates
func (a *Assistant) RecommendTemplate(ctx context.Context, resume, jobDescription string) (types.TemplateRecommendation, error) {
	svc, err := a.service(config.OperationTemplates)
	if err != nil {
		return types.TemplateRecommendation{}, err
	}
	rec, _, err := svc.RecommendTemplate(ctx, types.AnalyzeInput{Resume: resume, JobDescription: jobDescription})
	return rec, err
}

// GenerateInitialDraft returns the optimized draft text
func (a *Assistant) GenerateInitialDraft(ctx context.Context, input types.InitialDraftInput) (string, error) {
	svc, err := a.service(config.OperationDraft)
	if err != nil {
		return "", err
	}
	out, _, err := svc.GenerateInitialDraft(ctx, input)
	return out.ModifiedDraft, err
}

// RefineSection proposes rewrites for one section
func (a *Assistant) RefineSection(ctx context.Context, sectionText, jobDescription string) (types.SectionRefinement, error) {
	svc, err := a.service(config.OperationRefine)
	if err != nil {
		return types.SectionRefinement{}, err
	}
	out, _, err := svc.RefineSection(ctx, types.RefineSectionInput{SectionText: sectionText, JobDescription: jobDescription})
	return out, err
}

// SuggestSkillBullets writes one bullet per keyword gap
func (a *Assistant) SuggestSkillBullets(ctx context.Context, resume, jobDescription string, gaps []string) ([]types.SkillSuggestion, error) {
	svc, err := a.service(config.OperationSkills)
	if err != nil {
		return nil, err
	}
	out, _, err := svc.SuggestSkillBullets(ctx, types.SkillGapInput{Resume: resume, JobDescription: jobDescription, KeywordGaps: gaps})
	return out, err
}

// GenerateBullets writes bullet points for a task
func (a *Assistant) GenerateBullets(ctx context.Context, jobTitle, task string) (types.BulletPointsOutput, error) {
	svc, err := a.service(config.OperationBullets)
	if err != nil {
		return types.BulletPointsOutput{}, err
	}
	out, _, err := svc.GenerateBullets(ctx, types.BulletPointsInput{JobTitle: jobTitle, TaskDescription: task})
	return out, err
}

// ModelHealth checks every operation's model concurrently
func (a *Assistant) ModelHealth(ctx context.Context) map[config.Operation]*ModelInfo {
	var mu sync.Mutex
	infos := make(map[config.Operation]*ModelInfo, len(a.services))

	// Checks report failures in ModelInfo and never return an error, so one
	// unhealthy model does not cancel the others. The group only waits.
	var g errgroup.Group
	for op, svc := range a.services {
		g.Go(func() error {
			info := svc.GetModelInfo(ctx)
			mu.Lock()
			infos[op] = info
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return infos
}

// CircuitBreakerStats returns breaker statistics per operation
func (a *Assistant) CircuitBreakerStats() map[string]any {
	stats := make(map[string]any, len(a.services))
	for op, svc := range a.services {
		stats[string(op)] = svc.Provider.GetCircuitBreakerStats()
	}
	return stats
}

// Close closes every provider
func (a *Assistant) Close() error {
	var firstErr error
	for _, svc := range a.services {
		if err := svc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
