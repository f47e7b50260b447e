package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"resumeforge/internal/document"
	"resumeforge/internal/errors"
	"resumeforge/internal/types"
)

// Untitled is the fallback title when neither an override nor the job
// description provides one and no analysis exists.
const Untitled = types.DefaultAnalysisTitle

// View is a point-in-time copy of the engine's data
type View struct {
	State          State
	Resume         string
	JobDescription string
	Analysis       *types.AnalysisResult
	Recommendation *types.TemplateRecommendation
	Template       string
	Draft          string
	DraftDegraded  bool
	DraftPending   bool
	Section        document.SectionName
	SectionText    string
	Refinement     *types.SectionRefinement
	Suggestions    []types.SkillSuggestion
}

// Engine drives one resume through analysis, template selection and editing.
// Every state change bumps a scope counter; a response is only applied when
// the scope it was requested in is still current.
type Engine struct {
	mu       sync.Mutex
	deps     Collaborators
	identity Identity
	scope    uint64
	view     View
	logger   *errors.Logger
}

// NewEngine creates an engine in the Idle state
func NewEngine(deps Collaborators, logger *errors.Logger) *Engine {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Engine{deps: deps, logger: logger}
}

// State returns the current state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view.State
}

// Snapshot returns a copy of the engine's data
func (e *Engine) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.view
	v.Suggestions = append([]types.SkillSuggestion(nil), e.view.Suggestions...)
	return v
}

// Identity returns the identity the engine acts for
func (e *Engine) Identity() Identity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.identity
}

// SetIdentity replaces the identity
func (e *Engine) SetIdentity(id Identity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.identity = id
}

// moveLocked changes state and opens a new scope
func (e *Engine) moveLocked(to State) uint64 {
	e.logger.Debug("Workflow transition", "from", e.view.State.String(), "to", to.String())
	e.view.State = to
	e.view.DraftPending = false
	e.scope++
	return e.scope
}

// Analyze validates the inputs, then requests an analysis. On success the
// engine enters Results with the draft reset to the raw resume; on failure it
// returns to the state it was in before the call.
func (e *Engine) Analyze(ctx context.Context, resume, jobDescription string) (types.AnalysisResult, error) {
	if strings.TrimSpace(resume) == "" || strings.TrimSpace(jobDescription) == "" {
		return types.AnalysisResult{}, ErrMissingInput
	}

	e.mu.Lock()
	previous := e.view.State
	if !CanTransition(previous, StateAnalyzing) {
		e.mu.Unlock()
		return types.AnalysisResult{}, fmt.Errorf("analyze from %s: %w", previous, ErrInvalidTransition)
	}
	token := e.moveLocked(StateAnalyzing)
	e.mu.Unlock()

	result, err := e.deps.Analyzer.Analyze(ctx, resume, jobDescription)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope != token {
		return types.AnalysisResult{}, ErrStaleResponse
	}
	if err != nil {
		e.view.State = previous
		e.scope++
		return types.AnalysisResult{}, external("analyze", err)
	}

	e.moveLocked(StateResults)
	e.view = View{
		State:          StateResults,
		Resume:         resume,
		JobDescription: jobDescription,
		Analysis:       &result,
		Draft:          resume,
	}
	return result, nil
}

// BeginTemplateSelection requests template recommendations and, once they
// resolve, the initial draft. A failed recommendation leaves the state
// unchanged. A failed draft falls back to the raw resume and is recorded as
// degraded rather than returned as an error.
func (e *Engine) BeginTemplateSelection(ctx context.Context) (types.TemplateRecommendation, error) {
	e.mu.Lock()
	if e.view.Analysis == nil {
		e.mu.Unlock()
		return types.TemplateRecommendation{}, ErrNoAnalysis
	}
	if e.view.State != StateResults {
		state := e.view.State
		e.mu.Unlock()
		return types.TemplateRecommendation{}, fmt.Errorf("template selection from %s: %w", state, ErrInvalidTransition)
	}
	token := e.scope
	resume, jd := e.view.Resume, e.view.JobDescription
	analysis := *e.view.Analysis
	e.mu.Unlock()

	rec, err := e.deps.TemplateRecommender.RecommendTemplate(ctx, resume, jd)

	e.mu.Lock()
	if e.scope != token {
		e.mu.Unlock()
		return types.TemplateRecommendation{}, ErrStaleResponse
	}
	if err != nil {
		e.mu.Unlock()
		return types.TemplateRecommendation{}, external("recommend template", err)
	}
	token = e.moveLocked(StateTemplateSelection)
	e.view.Recommendation = &rec
	e.view.DraftPending = true
	e.mu.Unlock()

	input := types.InitialDraftInput{
		Resume:         resume,
		JobDescription: jd,
		Analysis:       analysis,
	}
	if best, ok := rec.Best(); ok {
		input.TemplateType = best.TemplateName
	}
	draft, err := e.deps.DraftGenerator.GenerateInitialDraft(ctx, input)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope != token {
		return rec, ErrStaleResponse
	}
	e.view.DraftPending = false
	if err != nil || strings.TrimSpace(draft) == "" {
		e.logger.Warn("Initial draft unavailable, using raw resume", "error", fmt.Sprint(err))
		e.view.Draft = resume
		e.view.DraftDegraded = true
		return rec, nil
	}
	e.view.Draft = draft
	e.view.DraftDegraded = false
	return rec, nil
}

// SelectTemplate picks a template and enters Editing with the current draft.
// It is rejected until the initial draft request has resolved.
func (e *Engine) SelectTemplate(name string) error {
	template, ok := resolveTemplate(name)
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownTemplate)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.State != StateTemplateSelection {
		return fmt.Errorf("select template from %s: %w", e.view.State, ErrInvalidTransition)
	}
	if e.view.DraftPending {
		return ErrDraftPending
	}
	e.moveLocked(StateEditing)
	e.view.Template = template
	if e.view.Draft == "" {
		e.view.Draft = e.view.Resume
	}
	return nil
}

// ChangeTemplate returns from Editing to TemplateSelection, fetching
// recommendations again if none are held.
func (e *Engine) ChangeTemplate(ctx context.Context) error {
	e.mu.Lock()
	if e.view.State != StateEditing {
		state := e.view.State
		e.mu.Unlock()
		return fmt.Errorf("change template from %s: %w", state, ErrInvalidTransition)
	}
	token := e.moveLocked(StateTemplateSelection)
	e.view.Refinement = nil
	e.view.Section = ""
	e.view.SectionText = ""
	if e.view.Recommendation != nil {
		e.mu.Unlock()
		return nil
	}
	resume, jd := e.view.Resume, e.view.JobDescription
	e.mu.Unlock()

	rec, err := e.deps.TemplateRecommender.RecommendTemplate(ctx, resume, jd)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope != token {
		return ErrStaleResponse
	}
	if err != nil {
		return external("recommend template", err)
	}
	e.view.Recommendation = &rec
	return nil
}

// Reset discards the results and returns to Idle
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.State != StateResults {
		return fmt.Errorf("reset from %s: %w", e.view.State, ErrInvalidTransition)
	}
	e.moveLocked(StateIdle)
	e.view = View{State: StateIdle}
	return nil
}

// SelectSection extracts a section from the draft and requests rewrites for
// it. Selecting another section opens a new scope, so an earlier refinement
// still in flight is discarded.
func (e *Engine) SelectSection(ctx context.Context, name document.SectionName) (types.SectionRefinement, error) {
	e.mu.Lock()
	if e.view.State != StateEditing {
		state := e.view.State
		e.mu.Unlock()
		return types.SectionRefinement{}, fmt.Errorf("select section from %s: %w", state, ErrInvalidTransition)
	}
	text, err := document.ExtractSection(e.view.Draft, name, document.DocumentOrder)
	if err != nil {
		e.mu.Unlock()
		return types.SectionRefinement{}, fmt.Errorf("section %s: %w", name, err)
	}
	e.scope++
	token := e.scope
	e.view.Section = name
	e.view.SectionText = text
	e.view.Refinement = nil
	jd := e.view.JobDescription
	e.mu.Unlock()

	refinement, err := e.deps.SectionRefiner.RefineSection(ctx, text, jd)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope != token {
		return types.SectionRefinement{}, ErrStaleResponse
	}
	if err != nil {
		return types.SectionRefinement{}, external("refine section", err)
	}
	e.view.Refinement = &refinement
	return refinement, nil
}

// ApplySuggestion patches the draft with a rewrite. Suggestions are applied
// as given; applied is false when no draft line qualifies.
func (e *Engine) ApplySuggestion(s types.RefinementSuggestion) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.State != StateEditing {
		return false
	}
	patched, applied := document.Apply(e.view.Draft, s.OriginalTextSnippet, s.SuggestedBullet)
	if applied {
		e.view.Draft = patched
	}
	return applied
}

// SetDraft replaces the draft with user-edited text
func (e *Engine) SetDraft(text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.DraftPending {
		return ErrDraftPending
	}
	switch e.view.State {
	case StateResults, StateTemplateSelection, StateEditing:
		e.view.Draft = text
		return nil
	}
	return fmt.Errorf("edit draft in %s: %w", e.view.State, ErrInvalidTransition)
}

// SuggestSkillBullets requests one bullet per keyword gap of the analysis
func (e *Engine) SuggestSkillBullets(ctx context.Context) ([]types.SkillSuggestion, error) {
	e.mu.Lock()
	if e.view.Analysis == nil {
		e.mu.Unlock()
		return nil, ErrNoAnalysis
	}
	if e.view.State != StateResults && e.view.State != StateEditing {
		state := e.view.State
		e.mu.Unlock()
		return nil, fmt.Errorf("skill suggestions in %s: %w", state, ErrInvalidTransition)
	}
	gaps := append([]string(nil), e.view.Analysis.Feedback.KeywordGaps...)
	if len(gaps) == 0 {
		e.mu.Unlock()
		return nil, ErrNoKeywordGaps
	}
	token := e.scope
	resume, jd := e.view.Resume, e.view.JobDescription
	e.mu.Unlock()

	suggestions, err := e.deps.SkillGapSuggester.SuggestSkillBullets(ctx, resume, jd, gaps)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scope != token {
		return nil, ErrStaleResponse
	}
	if err != nil {
		return nil, external("suggest skill bullets", err)
	}
	e.view.Suggestions = suggestions
	return suggestions, nil
}

// Save persists the current draft and analysis. Guests, missing identities
// and missing analyses are rejected before any call is made. The save is a
// mutation, so its result is returned even if the workflow moved on.
func (e *Engine) Save(ctx context.Context, jobTitleOverride string) (int64, error) {
	e.mu.Lock()
	token := e.identity.BearerToken()
	if token == "" {
		e.mu.Unlock()
		return 0, ErrUnauthorized
	}
	if e.view.Analysis == nil {
		e.mu.Unlock()
		return 0, ErrNoAnalysis
	}
	analysis := *e.view.Analysis
	text := e.view.Draft
	if text == "" {
		text = e.view.Resume
	}
	req := types.SaveAnalysisRequest{
		ResumeText:     text,
		JobDescription: e.view.JobDescription,
		AnalysisResult: &analysis,
		TargetJobTitle: SaveTitle(jobTitleOverride, e.view.JobDescription, &analysis),
	}
	e.mu.Unlock()

	id, err := e.deps.Persistence.Save(ctx, token, req)
	if err != nil {
		return 0, external("save analysis", err)
	}
	return id, nil
}

// LoadHistoryEntry restores a saved analysis and enters Results
func (e *Engine) LoadHistoryEntry(entry types.HistoryEntry) error {
	analysis, err := entry.Analysis()
	if err != nil {
		return fmt.Errorf("history entry %d: %w", entry.ID, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.moveLocked(StateResults)
	e.view = View{
		State:          StateResults,
		Resume:         entry.ResumeText,
		JobDescription: entry.JobDescription,
		Analysis:       &analysis,
		Draft:          entry.ResumeText,
	}
	return nil
}

// SaveTitle picks the stored title: the override when given, else the first
// line of the job description when it is between 6 and 99 characters, else
// a title built from the ATS score.
func SaveTitle(override, jobDescription string, analysis *types.AnalysisResult) string {
	if title := strings.TrimSpace(override); title != "" {
		return title
	}
	firstLine, _, _ := strings.Cut(jobDescription, "\n")
	firstLine = strings.TrimSpace(firstLine)
	if n := len(firstLine); n > 5 && n < 100 {
		return firstLine
	}
	if analysis == nil {
		return Untitled
	}
	return fmt.Sprintf("Analysis - ATS Score %d%%", analysis.ATSScore)
}

// resolveTemplate maps a full option or its short name ("Hybrid/Combination")
// to the full option text.
func resolveTemplate(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	for _, opt := range types.TemplateOptions {
		if strings.EqualFold(opt, name) {
			return opt, true
		}
	}
	for _, opt := range types.TemplateOptions {
		if len(opt) >= len(name) && strings.EqualFold(opt[:len(name)], name) {
			return opt, true
		}
	}
	return "", false
}
