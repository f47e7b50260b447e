package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTemplateRecommendationBest(t *testing.T) {
	available := []TemplateOption{
		{TemplateName: TemplateOptions[0], CompatibilityScore: 70},
		{TemplateName: TemplateOptions[3], CompatibilityScore: 91},
	}

	tests := []struct {
		name   string
		best   string
		want   string
		wantOK bool
	}{
		{name: "exact", best: TemplateOptions[3], want: TemplateOptions[3], wantOK: true},
		{name: "short prefix", best: "Technical/Project-Focused", want: TemplateOptions[3], wantOK: true},
		{name: "case insensitive", best: "chronological/traditional", want: TemplateOptions[0], wantOK: true},
		{name: "longer than any name", best: TemplateOptions[0] + " and more", wantOK: false},
		{name: "not offered", best: "Hybrid", wantOK: false},
		{name: "empty", best: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := TemplateRecommendation{BestTemplateType: tt.best, AvailableTemplates: available}
			got, ok := rec.Best()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.TemplateName)
		})
	}
}
