package cli

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/auth"
	"resumeforge/internal/cache"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/server"
	"resumeforge/internal/store"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the resumeforge HTTP API",
		Long: `Start an HTTP server exposing the AI operations, accounts and saved history.

AI endpoints (X-API-Key when server.apiKeys is set):
- POST /analyze_resume
- POST /recommend_template
- POST /generate_initial_draft
- POST /refine_section
- POST /suggest_skill_bullets
- POST /generate_bullet_points

Account and history endpoints:
- POST /signup, POST /signin
- POST /save_analysis, POST /get_history, POST /delete_analysis (Bearer token)

Status:
- GET /health: AI models, database and cache status
- GET /stats: limits and rate limiting info

The server needs an AI API key, a PostgreSQL URL and a JWT secret.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	cmd.Flags().String("host", "", "Host to bind to (default from config)")
	cmd.Flags().Bool("watch-prompts", false, "Reload prompt files when they change (overrides config)")
	return cmd
}

// applyServeFlags copies explicitly set flags over the loaded config
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port, _ = cmd.Flags().GetString("port")
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("watch-prompts") {
		cfg.Server.WatchPrompts, _ = cmd.Flags().GetBool("watch-prompts")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	applyServeFlags(cmd, cfg)
	if err := cfg.ValidateServer(); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	om, err := observability.NewObservabilityManager(observability.GetObservabilityConfig(cfg, Version), cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := om.Shutdown(shutdownCtx); err != nil {
			logger.LogError(err, "Failed to shut down observability")
		}
	}()

	prompts, err := config.LoadPrompts(cfg)
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	assistant, err := ai.NewAssistant(cfg, prompts, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI assistant: %w", err)
	}
	defer func() { _ = assistant.Close() }()

	deps := server.Deps{
		Assistant:     assistant,
		Prompts:       prompts,
		Observability: om,
	}

	if cfg.Cache.Enabled {
		if analysisCache := openCache(ctx, cfg.Cache, logger); analysisCache != nil {
			defer func() { _ = analysisCache.Close() }()
			assistant.WithCache(analysisCache)
			deps.Cache = analysisCache
		}
	}

	db, err := store.Open(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	deps.Store = db

	if deps.Tokens, err = auth.NewTokenService(cfg.Auth); err != nil {
		return err
	}
	deps.Passwords = auth.NewPasswordHasher(cfg.Auth.BcryptCost)

	srv := server.NewServer(cfg, Version, deps, logger)
	defer srv.Close()
	return srv.Start(ctx)
}

// openCache connects the analysis cache. A cache that cannot be reached is
// logged and skipped; the server runs uncached.
func openCache(ctx context.Context, cfg config.CacheConfig, logger *errors.Logger) *cache.AnalysisCache {
	analysisCache, err := cache.NewAnalysisCache(cfg, logger)
	if err != nil {
		logger.Warn("Analysis cache disabled", "error", err.Error())
		return nil
	}
	if err := analysisCache.Ping(ctx); err != nil {
		logger.Warn("Analysis cache unreachable at startup, expect misses", "error", err.Error())
	}
	return analysisCache
}
