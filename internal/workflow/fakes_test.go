package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"resumeforge/internal/types"
)

var errUpstream = errors.New("upstream unavailable")

// fakeAI implements every AI collaborator. A non-nil gate blocks the named
// call until it is closed.
type fakeAI struct {
	mu sync.Mutex

	analysis       types.AnalysisResult
	analyzeErr     error
	recommendation types.TemplateRecommendation
	recommendErr   error
	draft          string
	draftErr       error
	refinement     types.SectionRefinement
	refineErr      error
	suggestions    []types.SkillSuggestion

	gates map[string]chan struct{}
	calls map[string]int
	last  map[string]any
}

func newFakeAI() *fakeAI {
	return &fakeAI{
		analysis: types.AnalysisResult{
			ATSScore: 72,
			Feedback: types.Feedback{
				KeywordGaps:      []string{"Kubernetes", "Terraform"},
				KeywordStrengths: []string{"Go"},
			},
		},
		recommendation: types.TemplateRecommendation{
			BestTemplateType: "Technical/Project-Focused",
			Justification:    "Engineering role",
			AvailableTemplates: []types.TemplateOption{
				{TemplateName: types.TemplateOptions[3], CompatibilityScore: 91, Reason: "projects"},
				{TemplateName: types.TemplateOptions[0], CompatibilityScore: 70, Reason: "steady"},
			},
		},
		draft: tailoredDraft,
		refinement: types.SectionRefinement{
			SectionTitle: "Experience",
			SuggestedRewrites: []types.RefinementSuggestion{
				{OriginalTextSnippet: "Maintained billing services", SuggestedBullet: "- Cut billing latency 40% across 12 services"},
			},
		},
		suggestions: []types.SkillSuggestion{{Skill: "Kubernetes", Bullet: "Migrated 30 services to Kubernetes"}},
		gates:       map[string]chan struct{}{},
		calls:       map[string]int{},
		last:        map[string]any{},
	}
}

func (f *fakeAI) enter(name string, arg any) {
	f.mu.Lock()
	f.calls[name]++
	f.last[name] = arg
	gate := f.gates[name]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeAI) gate(name string) chan struct{} {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[name] = ch
	f.mu.Unlock()
	return ch
}

func (f *fakeAI) ungate(name string) {
	f.mu.Lock()
	delete(f.gates, name)
	f.mu.Unlock()
}

func (f *fakeAI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAI) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeAI) Analyze(_ context.Context, resume, jd string) (types.AnalysisResult, error) {
	f.enter("analyze", [2]string{resume, jd})
	return f.analysis, f.analyzeErr
}

func (f *fakeAI) RecommendTemplate(_ context.Context, resume, jd string) (types.TemplateRecommendation, error) {
	f.enter("recommend", [2]string{resume, jd})
	return f.recommendation, f.recommendErr
}

func (f *fakeAI) GenerateInitialDraft(_ context.Context, input types.InitialDraftInput) (string, error) {
	f.enter("draft", input)
	return f.draft, f.draftErr
}

func (f *fakeAI) RefineSection(_ context.Context, sectionText, jd string) (types.SectionRefinement, error) {
	f.enter("refine", sectionText)
	return f.refinement, f.refineErr
}

func (f *fakeAI) SuggestSkillBullets(_ context.Context, resume, jd string, gaps []string) ([]types.SkillSuggestion, error) {
	f.enter("skills", gaps)
	return f.suggestions, nil
}

// memoryStore is an in-memory Persistence for one token
type memoryStore struct {
	mu      sync.Mutex
	token   string
	nextID  int64
	entries map[int64]types.HistoryEntry
	calls   int
}

func newMemoryStore(token string) *memoryStore {
	return &memoryStore{token: token, entries: map[int64]types.HistoryEntry{}}
}

func (m *memoryStore) Save(_ context.Context, token string, req types.SaveAnalysisRequest) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if token != m.token {
		return 0, errors.New("invalid token")
	}
	m.nextID++
	raw, err := json.Marshal(req.AnalysisResult)
	if err != nil {
		return 0, err
	}
	m.entries[m.nextID] = types.HistoryEntry{
		ID:             m.nextID,
		CreatedAt:      time.Date(2026, 1, 1, 0, 0, int(m.nextID), 0, time.UTC),
		TargetJobTitle: req.TargetJobTitle,
		ATSScore:       req.AnalysisResult.ATSScore,
		JobDescription: req.JobDescription,
		ResumeText:     req.ResumeText,
		AnalysisJSON:   raw,
	}
	return m.nextID, nil
}

func (m *memoryStore) List(_ context.Context, token string) ([]types.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if token != m.token {
		return nil, errors.New("invalid token")
	}
	out := make([]types.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) Delete(_ context.Context, token string, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if _, ok := m.entries[id]; !ok || token != m.token {
		return errors.New("not found")
	}
	delete(m.entries, id)
	return nil
}

func (m *memoryStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
