package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/config"
	"resumeforge/internal/types"
)

// SystemPrompts contains all system-level instructions for AI interactions
type SystemPrompts struct {
	Analyze   string
	Templates string
	Draft     string
	Refine    string
	Skills    string
	Bullets   string
}

// UserPrompts contains user-level prompts with fmt placeholders for dynamic content
type UserPrompts struct {
	Analyze   string // resume, job description
	Templates string // template list, resume, job description
	Draft     string // resume, job description, feedback JSON
	Refine    string // job description, section text
	Skills    string // job description, resume, comma separated gaps
	Bullets   string // job title, task description
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = SystemPrompts{
	Analyze: `You are a world-class resume analyzer and Applicant Tracking System (ATS). ` +
		`Your task is to compare the provided resume text against the target job description. ` +
		`Generate a structured JSON response based ONLY on the provided schema. ` +
		`The analysis must focus on ATS compatibility, keyword matching, and content quality (using action verbs and quantifiable results). ` +
		`Be critical, specific, and actionable.`,

	Templates: `You are a professional resume strategist. Recommend the best template structure ` +
		`from the list provided that maximizes the user's appeal to an ATS and a recruiter for the target job.`,

	Draft: `You are an expert resume editor. Your task is to take the user's raw resume text ` +
		`and the analysis feedback and produce a single, CLEAN, slightly optimized text draft. ` +
		`Integrate the 'keyword_gaps' subtly, enhance the 'content_improvements' where possible, ` +
		`and retain the overall structure. Do NOT add extra formatting (like HTML tags). ` +
		`Return ONLY the modified resume text as a string inside a simple JSON object: {"modified_draft": "..."}.`,

	Refine: `You are a hyper-specific resume refinement tool. For the provided resume section, ` +
		`generate 2-3 precise, quantifiable, and keyword-rich rewrite suggestions for the ` +
		`existing bullet points or sentences, focusing entirely on the target job description. ` +
		`Each original_text_snippet must be copied verbatim from a single line of the section. ` +
		`Ensure the suggestions are action-verb focused and metric-driven. ` +
		`Return ONLY the structured JSON object.`,

	Skills: `You are a strategic career advisor. For each skill listed in the keyword gaps, ` +
		`generate one highly-polished, quantifiable, and action-oriented bullet point that the user ` +
		`could plausibly add to their resume to cover that specific skill, based on the general context of the ` +
		`target job description. You MUST return a JSON array of {"skill", "bullet"} objects. ` +
		`Each bullet must clearly demonstrate how a project or experience could show that skill. ` +
		`Do NOT use bullet points that are already present in the user's resume.`,

	Bullets: `You are a professional resume writer specializing in generating impactful, quantifiable, ` +
		`and results-oriented bullet points. Use strong action verbs and metrics. ` +
		`Your response MUST adhere strictly to the provided schema.`,
}

// DefaultUserPrompts provides the default user prompt templates
var DefaultUserPrompts = UserPrompts{
	Analyze: "Analyze the following resume against the job description.\n\n" +
		"Resume: ```%s```\n\n" +
		"Job Description: ```%s```\n\n" +
		"Provide a structured analysis and an ATS score (1-100).",

	Templates: "Available Templates:\n%s\n\n" +
		"Analyze the User's Resume:\n```%s```\n\n" +
		"Against the Target Job Description:\n```%s```\n\n" +
		"Provide your structured recommendation based ONLY on the schema.",

	Draft: "Raw Resume Text:\n```%s```\n\n" +
		"Target Job Description:\n```%s```\n\n" +
		"Analysis Feedback to Incorporate:\n%s\n\n" +
		"Produce the single, clean, modified resume text.",

	Refine: "Target Job Description (for context):\n```%s```\n\n" +
		"Resume Section Text to Refine:\n```%s```\n\n" +
		"Generate structured rewrite suggestions.",

	Skills: "Target Job Description: ```%s```\n\n" +
		"User's Current Resume (for context/to avoid duplication): ```%s```\n\n" +
		"CRITICAL MISSING SKILLS TO PROVIDE BULLET POINTS FOR: %s\n\n" +
		"For each missing skill, provide ONE suggested bullet point.",

	Bullets: "Generate three unique, powerful resume bullet points for a candidate with the Job Title: '%s' " +
		"who performed the Task: '%s'. Each bullet point should start with a strong action verb and include a quantifiable result.",
}

// defaultPrompts returns the built-in system and user prompt for an operation
func defaultPrompts(op config.Operation) (string, string) {
	switch op {
	case config.OperationAnalyze:
		return DefaultSystemPrompts.Analyze, DefaultUserPrompts.Analyze
	case config.OperationTemplates:
		return DefaultSystemPrompts.Templates, DefaultUserPrompts.Templates
	case config.OperationDraft:
		return DefaultSystemPrompts.Draft, DefaultUserPrompts.Draft
	case config.OperationRefine:
		return DefaultSystemPrompts.Refine, DefaultUserPrompts.Refine
	case config.OperationSkills:
		return DefaultSystemPrompts.Skills, DefaultUserPrompts.Skills
	case config.OperationBullets:
		return DefaultSystemPrompts.Bullets, DefaultUserPrompts.Bullets
	}
	return "", ""
}

// templateList renders the template options as a bulleted list
func templateList() string {
	lines := make([]string, 0, len(types.TemplateOptions))
	for _, opt := range types.TemplateOptions {
		lines = append(lines, "- "+opt)
	}
	return strings.Join(lines, "\n")
}

// formatDraftPrompt fills the draft template. Only the feedback half of the
// analysis is sent, and a chosen template is appended as an extra instruction.
func formatDraftPrompt(template string, input types.InitialDraftInput) (string, error) {
	feedback, err := json.MarshalIndent(input.Analysis.Feedback, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode analysis feedback: %w", err)
	}
	prompt := fmt.Sprintf(template, input.Resume, input.JobDescription, string(feedback))
	if input.TemplateType != "" {
		prompt += fmt.Sprintf("\n\nStructure the draft to follow the %q resume template.", input.TemplateType)
	}
	return prompt, nil
}
