package workflow

import (
	"context"

	"resumeforge/internal/types"
)

// Analyzer scores a resume against a job description
type Analyzer interface {
	Analyze(ctx context.Context, resume, jobDescription string) (types.AnalysisResult, error)
}

// TemplateRecommender scores the resume templates for a resume/job pair
type TemplateRecommender interface {
	RecommendTemplate(ctx context.Context, resume, jobDescription string) (types.TemplateRecommendation, error)
}

// DraftGenerator produces the first optimized draft
type DraftGenerator interface {
	GenerateInitialDraft(ctx context.Context, input types.InitialDraftInput) (string, error)
}

// SectionRefiner proposes rewrites for one section of the draft
type SectionRefiner interface {
	RefineSection(ctx context.Context, sectionText, jobDescription string) (types.SectionRefinement, error)
}

// SkillGapSuggester writes bullets covering keyword gaps
type SkillGapSuggester interface {
	SuggestSkillBullets(ctx context.Context, resume, jobDescription string, gaps []string) ([]types.SkillSuggestion, error)
}

// Persistence stores analyses for an authenticated identity
type Persistence interface {
	Save(ctx context.Context, token string, req types.SaveAnalysisRequest) (int64, error)
	List(ctx context.Context, token string) ([]types.HistoryEntry, error)
	Delete(ctx context.Context, token string, id int64) error
}

// Collaborators bundles the external services the engine calls
type Collaborators struct {
	Analyzer            Analyzer
	TemplateRecommender TemplateRecommender
	DraftGenerator      DraftGenerator
	SectionRefiner      SectionRefiner
	SkillGapSuggester   SkillGapSuggester
	Persistence         Persistence
}
