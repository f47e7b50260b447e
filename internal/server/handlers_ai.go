package server

import (
	"context"
	"net/http"

	"resumeforge/internal/ai"
	"resumeforge/internal/observability"
	"resumeforge/internal/types"
)

type analyzeRequest struct {
	Resume         string `json:"resume" validate:"notblank"`
	JobDescription string `json:"job_description" validate:"notblank"`
}

type bulletsRequest struct {
	JobTitle        string `json:"job_title" validate:"notblank"`
	TaskDescription string `json:"task_description" validate:"notblank"`
}

type skillsRequest struct {
	Resume         string   `json:"resume" validate:"notblank"`
	JobDescription string   `json:"job_description" validate:"notblank"`
	KeywordGaps    []string `json:"keyword_gaps" validate:"min=1,dive,notblank"`
}

type draftRequest struct {
	Resume         string                `json:"resume" validate:"notblank"`
	JobDescription string                `json:"job_description" validate:"notblank"`
	AnalysisResult *types.AnalysisResult `json:"analysis_result" validate:"required"`
	TemplateType   string                `json:"template_type"`
}

type refineRequest struct {
	SectionText    string `json:"section_text" validate:"notblank"`
	JobDescription string `json:"job_description" validate:"notblank"`
}

// track runs fn under the AI metrics for operation
func (s *Server) track(ctx context.Context, operation string, fn func(context.Context) (*ai.TokenUsage, error)) error {
	return s.om.GetMetrics().TrackAIOperationWithTokens(ctx, operation, func(ctx context.Context) *observability.AIOperationResult {
		usage, err := fn(ctx)
		result := &observability.AIOperationResult{Error: err}
		if usage != nil {
			result.TokenUsage = &observability.TokenUsage{
				InputTokens:  usage.InputTokens,
				OutputTokens: usage.OutputTokens,
				TotalTokens:  usage.TotalTokens,
			}
		}
		return result
	}, s.om)
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeAndValidate(w, r, &req, "Both resume and job description are required.") {
		return
	}

	var result types.AnalysisResult
	err := s.track(r.Context(), "analyze", func(ctx context.Context) (*ai.TokenUsage, error) {
		out, usage, cached, err := s.deps.Assistant.AnalyzeWithUsage(ctx, types.AnalyzeInput{
			Resume:         req.Resume,
			JobDescription: req.JobDescription,
		})
		if err == nil && s.deps.Cache != nil {
			lookup := "miss"
			if cached {
				lookup = "hit"
			}
			s.om.GetMetrics().RecordCacheLookup(ctx, lookup, s.om)
		}
		result = out
		return usage, err
	})
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricAnalysisCompleted, err == nil, s.om)
	if err != nil {
		s.writeAIError(w, "analyze", err)
		return
	}

	s.Logger.Info("Resume analyzed",
		"request_id", requestID(r.Context()),
		"ats_score", result.ATSScore)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) recommendTemplateHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !s.decodeAndValidate(w, r, &req, "Both resume and job description are required.") {
		return
	}

	var rec types.TemplateRecommendation
	err := s.track(r.Context(), "templates", func(ctx context.Context) (*ai.TokenUsage, error) {
		var err error
		rec, err = s.deps.Assistant.RecommendTemplate(ctx, req.Resume, req.JobDescription)
		return nil, err
	})
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricTemplateRecommended, err == nil, s.om)
	if err != nil {
		s.writeAIError(w, "templates", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) initialDraftHandler(w http.ResponseWriter, r *http.Request) {
	var req draftRequest
	if !s.decodeAndValidate(w, r, &req, "Resume, JD, and Analysis are required.") {
		return
	}

	var draft string
	err := s.track(r.Context(), "draft", func(ctx context.Context) (*ai.TokenUsage, error) {
		var err error
		draft, err = s.deps.Assistant.GenerateInitialDraft(ctx, types.InitialDraftInput{
			Resume:         req.Resume,
			JobDescription: req.JobDescription,
			Analysis:       *req.AnalysisResult,
			TemplateType:   req.TemplateType,
		})
		return nil, err
	})
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricDraftGenerated, err == nil, s.om)
	if err != nil {
		s.writeAIError(w, "draft", err)
		return
	}
	writeJSON(w, http.StatusOK, types.InitialDraftOutput{ModifiedDraft: draft})
}

func (s *Server) refineSectionHandler(w http.ResponseWriter, r *http.Request) {
	var req refineRequest
	if !s.decodeAndValidate(w, r, &req, "Section text and job description are required.") {
		return
	}

	var refinement types.SectionRefinement
	err := s.track(r.Context(), "refine", func(ctx context.Context) (*ai.TokenUsage, error) {
		var err error
		refinement, err = s.deps.Assistant.RefineSection(ctx, req.SectionText, req.JobDescription)
		return nil, err
	})
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricSectionRefined, err == nil, s.om)
	if err != nil {
		s.writeAIError(w, "refine", err)
		return
	}
	if refinement.SuggestedRewrites == nil {
		refinement.SuggestedRewrites = []types.RefinementSuggestion{}
	}
	writeJSON(w, http.StatusOK, refinement)
}

func (s *Server) skillBulletsHandler(w http.ResponseWriter, r *http.Request) {
	var req skillsRequest
	if !s.decodeAndValidate(w, r, &req, "Resume, job description, and keyword gaps are required for targeted suggestions.") {
		return
	}

	var suggestions []types.SkillSuggestion
	err := s.track(r.Context(), "skills", func(ctx context.Context) (*ai.TokenUsage, error) {
		var err error
		suggestions, err = s.deps.Assistant.SuggestSkillBullets(ctx, req.Resume, req.JobDescription, req.KeywordGaps)
		return nil, err
	})
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricSkillsSuggested, err == nil, s.om)
	if err != nil {
		s.writeAIError(w, "skills", err)
		return
	}
	if suggestions == nil {
		suggestions = []types.SkillSuggestion{}
	}
	writeJSON(w, http.StatusOK, types.SkillGapOutput{Suggestions: suggestions})
}

func (s *Server) bulletPointsHandler(w http.ResponseWriter, r *http.Request) {
	var req bulletsRequest
	if !s.decodeAndValidate(w, r, &req, "Both job title and task description are required.") {
		return
	}

	var out types.BulletPointsOutput
	err := s.track(r.Context(), "bullets", func(ctx context.Context) (*ai.TokenUsage, error) {
		var err error
		out, err = s.deps.Assistant.GenerateBullets(ctx, req.JobTitle, req.TaskDescription)
		return nil, err
	})
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricBulletsGenerated, err == nil, s.om)
	if err != nil {
		s.writeAIError(w, "bullets", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
