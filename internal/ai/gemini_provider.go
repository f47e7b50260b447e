package ai

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini
type GeminiProvider struct {
	client         *genai.Client
	config         config.OperationAIConfig
	circuitBreaker *CircuitBreaker[*genai.GenerateContentResponse]
	modelBreaker   *CircuitBreaker[*genai.Model]
	checkTimeout   time.Duration
	logger         *resumeforgeErrors.Logger
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a Gemini provider bound to one operation's configuration
func NewGeminiProvider(cfg config.OperationAIConfig, op config.Operation, checkTimeout time.Duration, logger *resumeforgeErrors.Logger) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, resumeforgeErrors.NewAIError(resumeforgeErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewCircuitBreaker[*genai.GenerateContentResponse](breakerName("", op), &cfg, logger),
		modelBreaker:   NewCircuitBreaker[*genai.Model](breakerName("model", op), &cfg, logger),
		checkTimeout:   checkTimeout,
		logger:         logger,
	}, nil
}

// GenerateJSON asks Gemini for a response constrained to req.Schema
func (g *GeminiProvider) GenerateJSON(ctx context.Context, req Request) (*Response, error) {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}
	if *g.config.MaxTokens > 0 {
		genaiConfig.MaxOutputTokens = int32(*g.config.MaxTokens)
	}
	if *g.config.UseSystemPrompts && req.SystemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	userPrompt := req.UserPrompt
	if !*g.config.UseSystemPrompts && req.SystemPrompt != "" {
		userPrompt = req.SystemPrompt + "\n\n" + userPrompt
	}

	callCtx, cancel := context.WithTimeout(ctx, *g.config.Timeout)
	defer cancel()

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return executeWithRetry(callCtx, g.logger, req.Operation, *g.config.MaxRetries, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		return nil, err
	}

	text := result.Text()
	if text == "" {
		return nil, resumeforgeErrors.NewAIError(resumeforgeErrors.ErrCodeAIResponseParse,
			"LLM response was empty or malformed", nil)
	}

	return &Response{Text: text, Usage: extractTokenUsage(result)}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:     g.config.Model,
		Provider: "gemini",
	}

	checkCtx, cancel := context.WithTimeout(ctx, g.checkTimeout)
	defer cancel()

	model, err := g.modelBreaker.Execute(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"provider", "gemini",
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.Version

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetStats(),
		"overall_healthy":  g.circuitBreaker.IsHealthy() && g.modelBreaker.IsHealthy(),
	}
}

// Close implements Provider; the genai client holds no resources in
// single-shot usage.
func (g *GeminiProvider) Close() error {
	return nil
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
