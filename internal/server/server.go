// Package server exposes the resume assistant and saved-analysis history over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/store"
	"resumeforge/internal/types"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Assistant is the AI surface the handlers call
type Assistant interface {
	AnalyzeWithUsage(ctx context.Context, input types.AnalyzeInput) (types.AnalysisResult, *ai.TokenUsage, bool, error)
	RecommendTemplate(ctx context.Context, resume, jobDescription string) (types.TemplateRecommendation, error)
	GenerateInitialDraft(ctx context.Context, input types.InitialDraftInput) (string, error)
	RefineSection(ctx context.Context, sectionText, jobDescription string) (types.SectionRefinement, error)
	SuggestSkillBullets(ctx context.Context, resume, jobDescription string, gaps []string) ([]types.SkillSuggestion, error)
	GenerateBullets(ctx context.Context, jobTitle, task string) (types.BulletPointsOutput, error)
	ModelHealth(ctx context.Context) map[config.Operation]*ai.ModelInfo
	CircuitBreakerStats() map[string]any
}

// Store persists accounts and saved analyses
type Store interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error)
	UserByEmail(ctx context.Context, email string) (*store.User, error)
	SaveAnalysis(ctx context.Context, userID uuid.UUID, req types.SaveAnalysisRequest) (int64, error)
	ListAnalyses(ctx context.Context, userID uuid.UUID) ([]types.HistoryEntry, error)
	DeleteAnalysis(ctx context.Context, userID uuid.UUID, id int64) error
	Ping(ctx context.Context) error
}

// Pinger reports whether a backing service is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators a Server needs. Cache, Prompts and
// Observability are optional.
type Deps struct {
	Assistant     Assistant
	Store         Store
	Tokens        *auth.TokenService
	Passwords     *auth.PasswordHasher
	Cache         Pinger
	Prompts       *config.PromptStore
	Observability *observability.ObservabilityManager
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	AppConfig *config.Config

	// API Authentication for the AI endpoints
	APIKeys map[string]bool

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxRequestSize int64

	RateLimit   *config.RateLimitConfig
	RateLimiter *LimiterManager

	deps     Deps
	om       *observability.ObservabilityManager
	validate *validator.Validate

	Logger *resumeforgeErrors.Logger
}

// NewServer creates a server from the application config
func NewServer(appCfg *config.Config, version string, deps Deps, logger *resumeforgeErrors.Logger) *Server {
	if logger == nil {
		logger = resumeforgeErrors.NewNopLogger()
	}

	apiKeyMap := make(map[string]bool)
	for _, key := range appCfg.Server.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *LimiterManager
	if appCfg.Server.RateLimit.Enabled {
		rateLimiter = NewLimiterManager(
			appCfg.Server.RateLimit.RequestsPerMin,
			appCfg.Server.RateLimit.BurstCapacity,
			logger,
		)
	}

	om := deps.Observability
	if om == nil {
		om = observability.NewNopManager()
	}

	return &Server{
		Host:           appCfg.Server.Host,
		Port:           appCfg.Server.Port,
		Version:        version,
		AppConfig:      appCfg,
		APIKeys:        apiKeyMap,
		ReadTimeout:    appCfg.Server.ReadTimeout,
		WriteTimeout:   appCfg.Server.WriteTimeout,
		IdleTimeout:    appCfg.Server.IdleTimeout,
		MaxRequestSize: appCfg.App.MaxFileSize,
		RateLimit:      &appCfg.Server.RateLimit,
		RateLimiter:    rateLimiter,
		deps:           deps,
		om:             om,
		validate:       newValidator(),
		Logger:         logger,
	}
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.om.HTTPMiddleware()(s.requestIDMiddleware(s.setupRoutes()))
}

// Close releases the rate limiter
func (s *Server) Close() {
	if s.RateLimiter != nil {
		s.RateLimiter.Close()
	}
}
