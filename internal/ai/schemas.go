package ai

import (
	"resumeforge/internal/config"
	"resumeforge/internal/types"

	"google.golang.org/genai"
)

func adviceSchema(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: description,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"type": {
					Type: genai.TypeString,
					Enum: []string{string(types.AdviceImprovement), string(types.AdviceStrength)},
				},
				"detail": {Type: genai.TypeString, Description: "The specific advice or observation."},
			},
			Required:         []string{"type", "detail"},
			PropertyOrdering: []string{"type", "detail"},
		},
	}
}

func stringList(description string) *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: description,
		Items:       &genai.Schema{Type: genai.TypeString},
	}
}

func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"ats_score": {
				Type:        genai.TypeInteger,
				Description: "A score from 1 to 100 representing the ATS and keyword match between the resume and the job description. Higher is better.",
			},
			"feedback": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"keyword_gaps":      stringList("Critical skills or keywords from the job description that are missing or weakly present in the resume."),
					"keyword_strengths": stringList("Skills or experiences from the resume that match the job description's requirements."),
					"content_improvements": adviceSchema(
						"Actionable advice on content and style, e.g. replace passive voice, quantify a bullet point, use stronger action verbs."),
					"formatting_advice": adviceSchema(
						"Suggestions on readability, length and formatting, e.g. section hierarchy or removing elements ATS parsers cannot read."),
				},
				Required:         []string{"keyword_gaps", "keyword_strengths", "content_improvements", "formatting_advice"},
				PropertyOrdering: []string{"keyword_gaps", "keyword_strengths", "content_improvements", "formatting_advice"},
			},
		},
		Required:         []string{"ats_score", "feedback"},
		PropertyOrdering: []string{"ats_score", "feedback"},
	}
}

func bulletPointSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"job_title":         {Type: genai.TypeString, Description: "The professional job title used for context."},
			"generated_bullets": stringList("Three polished, quantifiable and action-oriented resume bullet points."),
		},
		Required:         []string{"job_title", "generated_bullets"},
		PropertyOrdering: []string{"job_title", "generated_bullets"},
	}
}

// suggestionSchema is a bare array; the server wraps it as {"suggestions": [...]}
func suggestionSchema() *genai.Schema {
	return &genai.Schema{
		Type:        genai.TypeArray,
		Description: "Suggested bullet points, one for each skill gap.",
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"skill":  {Type: genai.TypeString, Description: "The missing keyword or skill this bullet addresses."},
				"bullet": {Type: genai.TypeString, Description: "A quantifiable, action-oriented bullet that integrates this skill into the resume."},
			},
			Required:         []string{"skill", "bullet"},
			PropertyOrdering: []string{"skill", "bullet"},
		},
	}
}

func templateRecommendationSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"best_template_type": {
				Type:        genai.TypeString,
				Description: "The single best-suited template from the options provided, e.g. 'Chronological/Traditional'.",
			},
			"justification": {
				Type:        genai.TypeString,
				Description: "A 1-2 sentence explanation of why this template best matches the resume and the target job.",
			},
			"available_templates": {
				Type:        genai.TypeArray,
				Description: "Every available template with a score and a brief compatibility reason.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"template_name":       {Type: genai.TypeString, Enum: types.TemplateOptions},
						"compatibility_score": {Type: genai.TypeInteger, Description: "Score from 1 to 100."},
						"reason":              {Type: genai.TypeString, Description: "One sentence on why this template is a good or bad match."},
					},
					Required:         []string{"template_name", "compatibility_score", "reason"},
					PropertyOrdering: []string{"template_name", "compatibility_score", "reason"},
				},
			},
		},
		Required:         []string{"best_template_type", "justification", "available_templates"},
		PropertyOrdering: []string{"best_template_type", "justification", "available_templates"},
	}
}

func initialDraftSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"modified_draft": {Type: genai.TypeString},
		},
		Required: []string{"modified_draft"},
	}
}

func sectionRefinementSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"section_title": {
				Type:        genai.TypeString,
				Description: "The title of the section being refined, e.g. 'Experience' or 'Summary'.",
			},
			"suggested_rewrites": {
				Type:        genai.TypeArray,
				Description: "Suggested changes for the section.",
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"original_text_snippet": {Type: genai.TypeString, Description: "A short snippet (5-10 words) of the text being replaced."},
						"suggested_bullet":      {Type: genai.TypeString, Description: "The refined, quantifiable and keyword-rich bullet point or sentence."},
					},
					Required:         []string{"original_text_snippet", "suggested_bullet"},
					PropertyOrdering: []string{"original_text_snippet", "suggested_bullet"},
				},
			},
		},
		Required:         []string{"section_title", "suggested_rewrites"},
		PropertyOrdering: []string{"section_title", "suggested_rewrites"},
	}
}

// responseSchema returns the structured output schema for an operation
func responseSchema(op config.Operation) *genai.Schema {
	switch op {
	case config.OperationAnalyze:
		return analysisSchema()
	case config.OperationTemplates:
		return templateRecommendationSchema()
	case config.OperationDraft:
		return initialDraftSchema()
	case config.OperationRefine:
		return sectionRefinementSchema()
	case config.OperationSkills:
		return suggestionSchema()
	case config.OperationBullets:
		return bulletPointSchema()
	}
	return nil
}
