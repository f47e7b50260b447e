package client

import (
	"context"
	"net/http"

	"resumeforge/internal/types"
)

// Analyze scores a resume against a job description
func (c *Client) Analyze(ctx context.Context, resume, jobDescription string) (types.AnalysisResult, error) {
	var out types.AnalysisResult
	err := c.do(ctx, http.MethodPost, "/analyze_resume", "",
		types.AnalyzeInput{Resume: resume, JobDescription: jobDescription}, &out)
	return out, err
}

// RecommendTemplate scores the resume templates for the pair
func (c *Client) RecommendTemplate(ctx context.Context, resume, jobDescription string) (types.TemplateRecommendation, error) {
	var out types.TemplateRecommendation
	err := c.do(ctx, http.MethodPost, "/recommend_template", "",
		types.AnalyzeInput{Resume: resume, JobDescription: jobDescription}, &out)
	return out, err
}

// GenerateInitialDraft returns the first optimized draft
func (c *Client) GenerateInitialDraft(ctx context.Context, input types.InitialDraftInput) (string, error) {
	var out types.InitialDraftOutput
	if err := c.do(ctx, http.MethodPost, "/generate_initial_draft", "", input, &out); err != nil {
		return "", err
	}
	return out.ModifiedDraft, nil
}

// RefineSection proposes rewrites for one section
func (c *Client) RefineSection(ctx context.Context, sectionText, jobDescription string) (types.SectionRefinement, error) {
	var out types.SectionRefinement
	err := c.do(ctx, http.MethodPost, "/refine_section", "",
		types.RefineSectionInput{SectionText: sectionText, JobDescription: jobDescription}, &out)
	return out, err
}

// SuggestSkillBullets writes bullets covering the keyword gaps
func (c *Client) SuggestSkillBullets(ctx context.Context, resume, jobDescription string, gaps []string) ([]types.SkillSuggestion, error) {
	var out types.SkillGapOutput
	err := c.do(ctx, http.MethodPost, "/suggest_skill_bullets", "",
		types.SkillGapInput{Resume: resume, JobDescription: jobDescription, KeywordGaps: gaps}, &out)
	return out.Suggestions, err
}

// GenerateBullets writes bullet points for a task
func (c *Client) GenerateBullets(ctx context.Context, jobTitle, task string) (types.BulletPointsOutput, error) {
	var out types.BulletPointsOutput
	err := c.do(ctx, http.MethodPost, "/generate_bullet_points", "",
		types.BulletPointsInput{JobTitle: jobTitle, TaskDescription: task}, &out)
	return out, err
}

// Signup registers an account and returns its token
func (c *Client) Signup(ctx context.Context, username, email, password string) (types.AuthResponse, error) {
	var out types.AuthResponse
	err := c.do(ctx, http.MethodPost, "/signup", "",
		types.SignupRequest{Username: username, Email: email, Password: password}, &out)
	return out, err
}

// Signin authenticates an account and returns its token
func (c *Client) Signin(ctx context.Context, email, password string) (types.AuthResponse, error) {
	var out types.AuthResponse
	err := c.do(ctx, http.MethodPost, "/signin", "",
		types.SigninRequest{Email: email, Password: password}, &out)
	return out, err
}

// Save stores an analysis for the token's user and returns its id
func (c *Client) Save(ctx context.Context, token string, req types.SaveAnalysisRequest) (int64, error) {
	var out types.SaveAnalysisResponse
	if err := c.do(ctx, http.MethodPost, "/save_analysis", token, req, &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}

// List returns the token user's saved analyses, newest first
func (c *Client) List(ctx context.Context, token string) ([]types.HistoryEntry, error) {
	var out types.HistoryResponse
	if err := c.do(ctx, http.MethodPost, "/get_history", token, struct{}{}, &out); err != nil {
		return nil, err
	}
	if out.History == nil {
		return []types.HistoryEntry{}, nil
	}
	return out.History, nil
}

// Delete removes a saved analysis owned by the token's user
func (c *Client) Delete(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodPost, "/delete_analysis", token, types.DeleteAnalysisRequest{DraftID: id}, nil)
}

// Health fetches the server health report. A degraded server is an error.
func (c *Client) Health(ctx context.Context) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/health", "", nil, &out)
	return out, err
}
