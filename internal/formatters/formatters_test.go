package formatters

import (
	"testing"
	"time"

	"resumeforge/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleAnalysis() types.AnalysisResult {
	return types.AnalysisResult{
		ATSScore: 68,
		Feedback: types.Feedback{
			KeywordGaps:      []string{"Kubernetes", "Terraform"},
			KeywordStrengths: []string{"Go"},
			ContentImprovements: []types.Advice{
				{Type: types.AdviceImprovement, Detail: "Quantify impact"},
			},
		},
	}
}

func TestFormatAnalysis(t *testing.T) {
	registry := NewFormatterRegistry()

	t.Run("text", func(t *testing.T) {
		out, err := registry.Format(sampleAnalysis(), "text")
		require.NoError(t, err)
		assert.Contains(t, out, "=== ATS ANALYSIS ===")
		assert.Contains(t, out, "Score: 68/100")
		assert.Contains(t, out, "  - Kubernetes\n")
		assert.Contains(t, out, "[improvement] Quantify impact")
		assert.Contains(t, out, "Formatting Advice:\n  - (none)")
	})

	t.Run("markdown", func(t *testing.T) {
		out, err := registry.Format(sampleAnalysis(), "markdown")
		require.NoError(t, err)
		assert.Contains(t, out, "# ATS Analysis")
		assert.Contains(t, out, "**Score:** 68/100")
		assert.Contains(t, out, "## Keyword Gaps\n\n- Kubernetes\n- Terraform\n")
	})

	t.Run("json", func(t *testing.T) {
		out, err := registry.Format(sampleAnalysis(), "json")
		require.NoError(t, err)
		assert.Contains(t, out, `"ats_score": 68`)
	})

	t.Run("yaml uses json names", func(t *testing.T) {
		out, err := registry.Format(sampleAnalysis(), "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "ats_score: 68")

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
		feedback := decoded["feedback"].(map[string]any)
		assert.Equal(t, []any{"Kubernetes", "Terraform"}, feedback["keyword_gaps"])
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := registry.Format(sampleAnalysis(), "xml")
		assert.Error(t, err)
	})
}

func TestYAMLQuotesAmbiguousStrings(t *testing.T) {
	out, err := (&YAMLFormatter{}).Format(map[string]string{"flag": "true", "count": "42"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "true", decoded["flag"])
	assert.Equal(t, "42", decoded["count"])
}

func TestFormatOtherOutputs(t *testing.T) {
	registry := NewFormatterRegistry()

	tests := []struct {
		name   string
		data   any
		format string
		want   []string
	}{
		{
			name: "templates",
			data: types.TemplateRecommendation{
				BestTemplateType: "Hybrid/Combination",
				Justification:    "Balanced profile",
				AvailableTemplates: []types.TemplateOption{
					{TemplateName: "Hybrid/Combination", CompatibilityScore: 91, Reason: "fits"},
				},
			},
			format: "text",
			want:   []string{"Best template: Hybrid/Combination", "Hybrid/Combination (91%): fits"},
		},
		{
			name:   "draft",
			data:   types.InitialDraftOutput{ModifiedDraft: "SUMMARY\nBuilt things\n\n"},
			format: "markdown",
			want:   []string{"# Optimized Draft\n\nSUMMARY\nBuilt things\n"},
		},
		{
			name: "refinement",
			data: types.SectionRefinement{
				SectionTitle:      "Experience",
				SuggestedRewrites: []types.RefinementSuggestion{{OriginalTextSnippet: "did ops", SuggestedBullet: "Ran ops for 40 services"}},
			},
			format: "text",
			want:   []string{"SECTION REFINEMENT: EXPERIENCE", "Original: did ops", "Suggested: Ran ops for 40 services"},
		},
		{
			name:   "empty refinement",
			data:   types.SectionRefinement{},
			format: "markdown",
			want:   []string{"No rewrites suggested."},
		},
		{
			name:   "skills",
			data:   types.SkillGapOutput{Suggestions: []types.SkillSuggestion{{Skill: "Go", Bullet: "Shipped a Go service"}}},
			format: "markdown",
			want:   []string{"- **Go:** Shipped a Go service"},
		},
		{
			name:   "bullets",
			data:   types.BulletPointsOutput{JobTitle: "SRE", GeneratedBullets: []string{"one", "two", "three"}},
			format: "text",
			want:   []string{"SRE:\n  - one\n  - two\n  - three"},
		},
		{
			name: "history",
			data: types.HistoryResponse{History: []types.HistoryEntry{{
				ID: 3, CreatedAt: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC), TargetJobTitle: "Platform Engineer", ATSScore: 77,
			}}},
			format: "text",
			want:   []string{"1 saved:", "#3 2026-05-04 12:00:00  Platform Engineer  ATS 77%"},
		},
		{
			name: "sections",
			data: types.SectionListing{Sections: []types.DocumentSection{
				{Name: "Experience", Heading: "EXPERIENCE", Lines: 2, Text: "EXPERIENCE\nRan ops"},
			}},
			format: "text",
			want:   []string{"=== SECTIONS ===", `Experience ("EXPERIENCE", 2 lines):`, "EXPERIENCE\nRan ops"},
		},
		{
			name:   "no sections",
			data:   types.SectionListing{},
			format: "markdown",
			want:   []string{"No known sections found."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := registry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestFormatterTypeMismatch(t *testing.T) {
	_, err := (&analysisFormatter{textStyle}).Format("not an analysis")
	assert.EqualError(t, err, "expected types.AnalysisResult, got string")
}
