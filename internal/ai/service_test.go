package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeProvider struct {
	text     string
	err      error
	usage    *TokenUsage
	requests []Request
	down     bool
}

func (f *fakeProvider) GenerateJSON(_ context.Context, req Request) (*Response, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &Response{Text: f.text, Usage: f.usage}, nil
}

func (f *fakeProvider) GetModelInfo(context.Context) *ModelInfo {
	if f.down {
		return &ModelInfo{Name: "fake-model", Provider: "fake", Error: "model not found"}
	}
	return &ModelInfo{Name: "fake-model", Provider: "fake", Available: true}
}

func (f *fakeProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{"overall_healthy": true}
}

func (f *fakeProvider) Close() error { return nil }

func testOperationConfig() config.OperationAIConfig {
	timeout := 5 * time.Second
	retries := 0
	temperature := float32(0.2)
	maxTokens := int64(0)
	useSystem := true
	return config.OperationAIConfig{
		Provider:         "gemini",
		Model:            "fake-model",
		Timeout:          &timeout,
		MaxRetries:       &retries,
		Temperature:      &temperature,
		MaxTokens:        &maxTokens,
		UseSystemPrompts: &useSystem,
	}
}

func newTestService(op config.Operation, provider Provider) *Service {
	return newService(provider, op, testOperationConfig(), nil, resumeforgeErrors.NewNopLogger())
}

const analysisJSON = `{"ats_score": 140, "feedback": {"keyword_gaps": ["Kubernetes"], "keyword_strengths": ["Go"],
"content_improvements": [{"type": "improvement", "detail": "Quantify impact"}], "formatting_advice": []}}`

func TestServiceAnalyze(t *testing.T) {
	provider := &fakeProvider{text: analysisJSON, usage: &TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}}
	svc := newTestService(config.OperationAnalyze, provider)

	result, usage, err := svc.Analyze(context.Background(), types.AnalyzeInput{Resume: "my resume", JobDescription: "the job"})
	require.NoError(t, err)

	assert.Equal(t, 100, result.ATSScore, "score is clamped to 0-100")
	assert.Equal(t, []string{"Kubernetes"}, result.Feedback.KeywordGaps)
	assert.Equal(t, types.AdviceImprovement, result.Feedback.ContentImprovements[0].Type)
	assert.Equal(t, int64(15), usage.TotalTokens)

	require.Len(t, provider.requests, 1)
	req := provider.requests[0]
	assert.Equal(t, "analyze", req.Operation)
	assert.Equal(t, DefaultSystemPrompts.Analyze, req.SystemPrompt)
	assert.Contains(t, req.UserPrompt, "Resume: ```my resume```")
	assert.Contains(t, req.UserPrompt, "Job Description: ```the job```")
	assert.Equal(t, genai.TypeObject, req.Schema.Type)
	assert.Contains(t, req.Schema.Properties, "ats_score")
}

func TestServiceErrors(t *testing.T) {
	t.Run("unparseable response", func(t *testing.T) {
		svc := newTestService(config.OperationAnalyze, &fakeProvider{text: "not json"})
		_, _, err := svc.Analyze(context.Background(), types.AnalyzeInput{Resume: "r", JobDescription: "j"})
		assert.True(t, resumeforgeErrors.HasCode(err, resumeforgeErrors.ErrCodeAIResponseParse))
	})

	t.Run("provider failure", func(t *testing.T) {
		boom := errors.New("upstream down")
		svc := newTestService(config.OperationBullets, &fakeProvider{err: boom})
		_, _, err := svc.GenerateBullets(context.Background(), types.BulletPointsInput{JobTitle: "SRE", TaskDescription: "on-call"})
		assert.True(t, resumeforgeErrors.HasCode(err, resumeforgeErrors.ErrCodeAIServiceFailed))
		assert.ErrorIs(t, err, boom)
	})
}

func TestServicePromptOverrides(t *testing.T) {
	provider := &fakeProvider{text: `{"job_title": "SRE", "generated_bullets": ["a", "b", "c"]}`}
	svc := newService(provider, config.OperationBullets, testOperationConfig(), func(kind, fallback string) string {
		if kind == "system" {
			return "custom system"
		}
		return "Title=%s Task=%s"
	}, resumeforgeErrors.NewNopLogger())

	out, _, err := svc.GenerateBullets(context.Background(), types.BulletPointsInput{JobTitle: "SRE", TaskDescription: "paging"})
	require.NoError(t, err)
	assert.Len(t, out.GeneratedBullets, 3)
	assert.Equal(t, "custom system", provider.requests[0].SystemPrompt)
	assert.Equal(t, "Title=SRE Task=paging", provider.requests[0].UserPrompt)
}

func TestServiceSuggestSkillBullets(t *testing.T) {
	provider := &fakeProvider{text: `[{"skill": "Kubernetes", "bullet": "Migrated 40 services to Kubernetes"}]`}
	svc := newTestService(config.OperationSkills, provider)

	out, _, err := svc.SuggestSkillBullets(context.Background(), types.SkillGapInput{
		Resume: "r", JobDescription: "j", KeywordGaps: []string{"Kubernetes", "Terraform"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Kubernetes", out[0].Skill)
	assert.Contains(t, provider.requests[0].UserPrompt, "Kubernetes, Terraform")
	assert.Equal(t, genai.TypeArray, provider.requests[0].Schema.Type)
}

func TestServiceGenerateInitialDraft(t *testing.T) {
	provider := &fakeProvider{text: `{"modified_draft": "Improved resume"}`}
	svc := newTestService(config.OperationDraft, provider)

	out, _, err := svc.GenerateInitialDraft(context.Background(), types.InitialDraftInput{
		Resume:         "raw",
		JobDescription: "jd",
		Analysis: types.AnalysisResult{
			ATSScore: 61,
			Feedback: types.Feedback{KeywordGaps: []string{"GraphQL"}},
		},
		TemplateType: "Hybrid/Combination",
	})
	require.NoError(t, err)
	assert.Equal(t, "Improved resume", out.ModifiedDraft)

	prompt := provider.requests[0].UserPrompt
	assert.Contains(t, prompt, `"keyword_gaps": [`)
	assert.NotContains(t, prompt, "ats_score", "only feedback is sent")
	assert.Contains(t, prompt, `"Hybrid/Combination"`)
}

func TestServiceRefineSection(t *testing.T) {
	provider := &fakeProvider{text: `{"section_title": "Experience", "suggested_rewrites": [
		{"original_text_snippet": "Managed team", "suggested_bullet": "Led 5 engineers"}]}`}
	svc := newTestService(config.OperationRefine, provider)

	out, _, err := svc.RefineSection(context.Background(), types.RefineSectionInput{SectionText: "Experience\nManaged team", JobDescription: "jd"})
	require.NoError(t, err)
	assert.Equal(t, "Experience", out.SectionTitle)
	require.Len(t, out.SuggestedRewrites, 1)

	prompt := provider.requests[0].UserPrompt
	assert.Less(t, strings.Index(prompt, "jd"), strings.Index(prompt, "Managed team"), "job description comes first")
}

func TestResponseSchemas(t *testing.T) {
	for _, op := range config.Operations {
		t.Run(string(op), func(t *testing.T) {
			assert.NotNil(t, responseSchema(op))
		})
	}

	templates := templateRecommendationSchema()
	name := templates.Properties["available_templates"].Items.Properties["template_name"]
	assert.Equal(t, types.TemplateOptions, name.Enum)

	advice := analysisSchema().Properties["feedback"].Properties["content_improvements"].Items
	assert.Equal(t, []string{"improvement", "strength"}, advice.Properties["type"].Enum)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence(`  {"a":1} `))
}

func TestSchemaInstruction(t *testing.T) {
	got, err := schemaInstruction("Be terse.", Request{Schema: initialDraftSchema()})
	require.NoError(t, err)
	assert.Contains(t, got, "Be terse.")
	assert.Contains(t, got, `"modified_draft"`)

	got, err = schemaInstruction("Only system", Request{})
	require.NoError(t, err)
	assert.Equal(t, "Only system", got)
}
