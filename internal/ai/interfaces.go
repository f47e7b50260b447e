package ai

import (
	"context"

	"google.golang.org/genai"
)

// Provider generates structured JSON from a prompt pair. Each provider is
// bound to one operation's configuration (model, temperature, retries).
type Provider interface {
	GenerateJSON(ctx context.Context, req Request) (*Response, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	GetCircuitBreakerStats() map[string]any
	Close() error
}

// Request is one structured generation call
type Request struct {
	Operation    string
	SystemPrompt string
	UserPrompt   string
	Schema       *genai.Schema
}

// Response carries the raw JSON text and what it cost
type Response struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
