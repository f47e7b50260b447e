package types

import (
	"encoding/json"
	"strings"
	"time"
)

// AdviceType classifies a piece of content or formatting feedback
type AdviceType string

const (
	AdviceImprovement AdviceType = "improvement"
	AdviceStrength    AdviceType = "strength"
)

// Advice is a single observation from the analysis service
type Advice struct {
	Type   AdviceType `json:"type"`
	Detail string     `json:"detail"`
}

// Feedback holds the structured critique of a resume against a job description
type Feedback struct {
	KeywordGaps         []string `json:"keyword_gaps"`
	KeywordStrengths    []string `json:"keyword_strengths"`
	ContentImprovements []Advice `json:"content_improvements"`
	FormattingAdvice    []Advice `json:"formatting_advice"`
}

// AnalysisResult is the outcome of an ATS analysis. Treated as immutable once received.
type AnalysisResult struct {
	ATSScore int      `json:"ats_score"` // 0-100
	Feedback Feedback `json:"feedback"`
}

// AnalyzeInput represents the input for analyzing a resume
type AnalyzeInput struct {
	Resume         string `json:"resume"`
	JobDescription string `json:"job_description"`
}

// TemplateOptions lists the resume templates the recommender chooses from
var TemplateOptions = []string{
	"Chronological/Traditional (Best for steady career progression)",
	"Functional/Skills-Based (Best for career changers or gap coverage)",
	"Hybrid/Combination (Best balance of skills and experience depth)",
	"Technical/Project-Focused (Best for engineers/developers)",
}

// TemplateOption is one scored template
type TemplateOption struct {
	TemplateName       string `json:"template_name"`
	CompatibilityScore int    `json:"compatibility_score"` // 0-100
	Reason             string `json:"reason"`
}

// TemplateRecommendation is the recommender's answer for a resume/job pair
type TemplateRecommendation struct {
	BestTemplateType   string           `json:"best_template_type"`
	Justification      string           `json:"justification"`
	AvailableTemplates []TemplateOption `json:"available_templates"`
}

// Best returns the available template whose name starts with BestTemplateType, if any
func (r TemplateRecommendation) Best() (TemplateOption, bool) {
	for _, tpl := range r.AvailableTemplates {
		if tpl.TemplateName == r.BestTemplateType || hasPrefixFold(tpl.TemplateName, r.BestTemplateType) {
			return tpl, true
		}
	}
	return TemplateOption{}, false
}

// InitialDraftInput represents the input for generating a first optimized draft
type InitialDraftInput struct {
	Resume         string         `json:"resume"`
	JobDescription string         `json:"job_description"`
	Analysis       AnalysisResult `json:"analysis_result"`
	TemplateType   string         `json:"template_type,omitempty"`
}

// InitialDraftOutput holds the generated draft text
type InitialDraftOutput struct {
	ModifiedDraft string `json:"modified_draft"`
}

// RefineSectionInput represents a request to refine one resume section
type RefineSectionInput struct {
	SectionText    string `json:"section_text"`
	JobDescription string `json:"job_description"`
}

// RefinementSuggestion is a proposed replacement for a snippet of the draft
type RefinementSuggestion struct {
	OriginalTextSnippet string `json:"original_text_snippet"`
	SuggestedBullet     string `json:"suggested_bullet"`
}

// SectionRefinement is the refiner's answer for one section
type SectionRefinement struct {
	SectionTitle      string                 `json:"section_title"`
	SuggestedRewrites []RefinementSuggestion `json:"suggested_rewrites"`
}

// SkillGapInput represents a request for bullets covering missing keywords
type SkillGapInput struct {
	Resume         string   `json:"resume"`
	JobDescription string   `json:"job_description"`
	KeywordGaps    []string `json:"keyword_gaps"`
}

// SkillSuggestion is a gap-scoped suggestion
type SkillSuggestion struct {
	Skill  string `json:"skill"`
	Bullet string `json:"bullet"`
}

// SkillGapOutput wraps the suggestions list as the API returns it
type SkillGapOutput struct {
	Suggestions []SkillSuggestion `json:"suggestions"`
}

// BulletPointsInput represents a request to write bullets for a task
type BulletPointsInput struct {
	JobTitle        string `json:"job_title"`
	TaskDescription string `json:"task_description"`
}

// BulletPointsOutput holds generated bullet points
type BulletPointsOutput struct {
	JobTitle         string   `json:"job_title"`
	GeneratedBullets []string `json:"generated_bullets"`
}

// DocumentSection is one section found in a resume or draft
type DocumentSection struct {
	Name    string `json:"name"`
	Heading string `json:"heading"`
	Lines   int    `json:"lines"`
	Text    string `json:"text"`
}

// SectionListing lists the sections of a document in the order they appear
type SectionListing struct {
	Sections []DocumentSection `json:"sections"`
}

// HistoryEntry is a persisted snapshot of a draft and its analysis
type HistoryEntry struct {
	ID             int64           `json:"id"`
	CreatedAt      time.Time       `json:"-"`
	TargetJobTitle string          `json:"target_job_title"`
	ATSScore       int             `json:"ats_score"`
	JobDescription string          `json:"job_description"`
	ResumeText     string          `json:"resume_text"`
	AnalysisJSON   json.RawMessage `json:"analysis_json"`
}

// HistoryTimeLayout is the wire format of HistoryEntry.CreatedAt
const HistoryTimeLayout = "2006-01-02 15:04:05"

type historyEntryWire struct {
	ID             int64           `json:"id"`
	CreatedAt      string          `json:"created_at"`
	TargetJobTitle string          `json:"target_job_title"`
	ATSScore       int             `json:"ats_score"`
	JobDescription string          `json:"job_description"`
	ResumeText     string          `json:"resume_text"`
	AnalysisJSON   json.RawMessage `json:"analysis_json"`
}

// MarshalJSON renders created_at in HistoryTimeLayout
func (h HistoryEntry) MarshalJSON() ([]byte, error) {
	analysis := h.AnalysisJSON
	if len(analysis) == 0 {
		analysis = json.RawMessage("{}")
	}
	return json.Marshal(historyEntryWire{
		ID:             h.ID,
		CreatedAt:      h.CreatedAt.UTC().Format(HistoryTimeLayout),
		TargetJobTitle: h.TargetJobTitle,
		ATSScore:       h.ATSScore,
		JobDescription: h.JobDescription,
		ResumeText:     h.ResumeText,
		AnalysisJSON:   analysis,
	})
}

// UnmarshalJSON parses created_at in HistoryTimeLayout
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var wire historyEntryWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	var createdAt time.Time
	if wire.CreatedAt != "" {
		parsed, err := time.Parse(HistoryTimeLayout, wire.CreatedAt)
		if err != nil {
			return err
		}
		createdAt = parsed
	}
	*h = HistoryEntry{
		ID:             wire.ID,
		CreatedAt:      createdAt,
		TargetJobTitle: wire.TargetJobTitle,
		ATSScore:       wire.ATSScore,
		JobDescription: wire.JobDescription,
		ResumeText:     wire.ResumeText,
		AnalysisJSON:   wire.AnalysisJSON,
	}
	return nil
}

// Analysis parses the stored analysis JSON
func (h HistoryEntry) Analysis() (AnalysisResult, error) {
	var result AnalysisResult
	if len(h.AnalysisJSON) == 0 {
		return result, nil
	}
	err := json.Unmarshal(h.AnalysisJSON, &result)
	return result, err
}

// DefaultAnalysisTitle is stored when a save carries no title
const DefaultAnalysisTitle = "Untitled Analysis"

// SaveAnalysisRequest is the payload of a save
type SaveAnalysisRequest struct {
	ResumeText     string          `json:"resume_text"`
	JobDescription string          `json:"job_description"`
	AnalysisResult *AnalysisResult `json:"analysis_result" validate:"required"`
	TargetJobTitle string          `json:"target_job_title"`
}

// SaveAnalysisResponse is returned after a save
type SaveAnalysisResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

// HistoryResponse wraps the history list
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

// DeleteAnalysisRequest is the payload of a delete
type DeleteAnalysisRequest struct {
	DraftID int64 `json:"draft_id" validate:"required,gt=0"`
}

// SignupRequest registers a new account
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=2,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// SigninRequest authenticates an existing account
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by signup and signin
type AuthResponse struct {
	Message  string `json:"message"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Token    string `json:"token"`
}

// MessageResponse is a generic acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

func hasPrefixFold(s, prefix string) bool {
	return prefix != "" && len(prefix) <= len(s) && strings.EqualFold(s[:len(prefix)], prefix)
}
