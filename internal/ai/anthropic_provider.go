package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 8192

// AnthropicProvider implements Provider for Claude models. Claude has no
// response schema parameter, so the schema travels in the system prompt.
type AnthropicProvider struct {
	client         anthropic.Client
	config         config.OperationAIConfig
	circuitBreaker *CircuitBreaker[*anthropic.Message]
	modelBreaker   *CircuitBreaker[*anthropic.ModelInfo]
	checkTimeout   time.Duration
	logger         *resumeforgeErrors.Logger
}

var _ Provider = (*AnthropicProvider)(nil)

// NewAnthropicProvider creates an Anthropic provider bound to one operation's configuration
func NewAnthropicProvider(cfg config.OperationAIConfig, op config.Operation, checkTimeout time.Duration, logger *resumeforgeErrors.Logger) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, resumeforgeErrors.NewConfigError(resumeforgeErrors.ErrCodeMissingAPIKey,
			"Anthropic API key is required", nil)
	}

	// retries are handled by executeWithRetry
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	)

	return &AnthropicProvider{
		client:         client,
		config:         cfg,
		circuitBreaker: NewCircuitBreaker[*anthropic.Message](breakerName("", op), &cfg, logger),
		modelBreaker:   NewCircuitBreaker[*anthropic.ModelInfo](breakerName("model", op), &cfg, logger),
		checkTimeout:   checkTimeout,
		logger:         logger,
	}, nil
}

// GenerateJSON asks Claude for JSON matching req.Schema
func (a *AnthropicProvider) GenerateJSON(ctx context.Context, req Request) (*Response, error) {
	system, err := schemaInstruction(req.SystemPrompt, req)
	if err != nil {
		return nil, err
	}

	maxTokens := *a.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.config.Model),
		MaxTokens: maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: req.UserPrompt},
			}},
		}},
	}
	if *a.config.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(*a.config.Temperature))
	}

	callCtx, cancel := context.WithTimeout(ctx, *a.config.Timeout)
	defer cancel()

	message, err := a.circuitBreaker.Execute(func() (*anthropic.Message, error) {
		return executeWithRetry(callCtx, a.logger, req.Operation, *a.config.MaxRetries, func() (*anthropic.Message, error) {
			return a.client.Messages.New(callCtx, params)
		})
	})
	if err != nil {
		return nil, err
	}

	var text strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			text.WriteString(block.AsText().Text)
		}
	}

	cleaned := stripCodeFence(text.String())
	if cleaned == "" {
		return nil, resumeforgeErrors.NewAIError(resumeforgeErrors.ErrCodeAIResponseParse,
			"LLM response was empty or malformed", nil)
	}

	usage := &TokenUsage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
		TotalTokens:  message.Usage.InputTokens + message.Usage.OutputTokens,
	}
	return &Response{Text: cleaned, Usage: usage}, nil
}

// GetModelInfo checks the configured model through the models endpoint
func (a *AnthropicProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:     a.config.Model,
		Provider: "anthropic",
	}

	checkCtx, cancel := context.WithTimeout(ctx, a.checkTimeout)
	defer cancel()

	model, err := a.modelBreaker.Execute(func() (*anthropic.ModelInfo, error) {
		return a.client.Models.Get(checkCtx, a.config.Model, anthropic.ModelGetParams{})
	})
	if err != nil {
		modelInfo.Error = fmt.Sprintf("Failed to get model info: %v", err)
		a.logger.Warn("Model availability check failed",
			"model", a.config.Model,
			"provider", "anthropic",
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	modelInfo.DisplayName = model.DisplayName
	modelInfo.Version = model.ID
	return modelInfo
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (a *AnthropicProvider) GetCircuitBreakerStats() map[string]any {
	return map[string]any{
		"ai_operations":    a.circuitBreaker.GetStats(),
		"model_operations": a.modelBreaker.GetStats(),
		"overall_healthy":  a.circuitBreaker.IsHealthy() && a.modelBreaker.IsHealthy(),
	}
}

// Close implements Provider
func (a *AnthropicProvider) Close() error {
	return nil
}

// schemaInstruction appends the JSON schema to the system prompt
func schemaInstruction(system string, req Request) (string, error) {
	if req.Schema == nil {
		return system, nil
	}
	schema, err := json.Marshal(req.Schema)
	if err != nil {
		return "", fmt.Errorf("failed to encode response schema: %w", err)
	}
	var b strings.Builder
	if system != "" {
		b.WriteString(system)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON value and nothing else. It must conform to this schema:\n")
	b.Write(schema)
	return b.String(), nil
}

// stripCodeFence removes a surrounding ```json fence if the model added one
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
