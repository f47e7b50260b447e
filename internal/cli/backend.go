package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/cache"
	"resumeforge/internal/client"
	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"

	"github.com/spf13/cobra"
)

// assistant is what the AI commands need from either backend
type assistant interface {
	workflow.Analyzer
	workflow.TemplateRecommender
	workflow.DraftGenerator
	workflow.SectionRefiner
	workflow.SkillGapSuggester
	GenerateBullets(ctx context.Context, jobTitle, task string) (types.BulletPointsOutput, error)
}

// usageReporter is implemented by the local assistant
type usageReporter interface {
	AnalyzeWithUsage(ctx context.Context, input types.AnalyzeInput) (types.AnalysisResult, *ai.TokenUsage, bool, error)
}

// backend is the local AI assistant or a remote server
type backend struct {
	assistant
	closers []func()
}

// Close releases the backend's connections
func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// analyze runs an analysis and reports token usage when the backend has it
func (b *backend) analyze(ctx context.Context, in types.AnalyzeInput) (types.AnalysisResult, *ai.TokenUsage, error) {
	if r, ok := b.assistant.(usageReporter); ok {
		result, usage, _, err := r.AnalyzeWithUsage(ctx, in)
		return result, usage, err
	}
	result, err := b.Analyze(ctx, in.Resume, in.JobDescription)
	return result, nil, err
}

// openBackend returns the server client under --remote, the local assistant
// otherwise
var openBackend = func(cmd *cobra.Command) (*backend, error) {
	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		c, err := newClient(cmd)
		if err != nil {
			return nil, err
		}
		return &backend{assistant: c}, nil
	}

	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())
	if err := cfg.ValidateAI(); err != nil {
		return nil, err
	}

	prompts, err := config.LoadPrompts(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	local, err := ai.NewAssistant(cfg, prompts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create AI assistant: %w", err)
	}
	b := &backend{assistant: local, closers: []func(){func() { _ = local.Close() }}}

	if cfg.Cache.Enabled {
		analysisCache, err := cache.NewAnalysisCache(cfg.Cache, logger)
		if err != nil {
			logger.Warn("Analysis cache unavailable, continuing without it", "error", err.Error())
		} else {
			local.WithCache(analysisCache)
			b.closers = append(b.closers, func() { _ = analysisCache.Close() })
		}
	}
	return b, nil
}

// newClient builds a server client from config and --server-url
var newClient = func(cmd *cobra.Command) (*client.Client, error) {
	cfg := getConfigFromContext(cmd.Context())
	clientCfg := cfg.Client
	if url, _ := cmd.Flags().GetString("server-url"); url != "" {
		clientCfg.BaseURL = url
	}
	return client.New(clientCfg, getLoggerFromContext(cmd.Context()))
}

// pairInput turns the resume and job description files into an analysis input
func pairInput(contents []string) (types.AnalyzeInput, error) {
	if len(contents) != 2 {
		return types.AnalyzeInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
	}
	in := types.AnalyzeInput{Resume: contents[0], JobDescription: contents[1]}
	if isBlank(in.Resume) || isBlank(in.JobDescription) {
		return types.AnalyzeInput{}, workflow.ErrMissingInput
	}
	return in, nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// readAnalysisFile loads a saved analysis result and checks it against the
// stored analysis schema
func readAnalysisFile(runner *common.Runner, path string) (types.AnalysisResult, error) {
	contents, err := runner.Files.ValidateAndReadFiles(path)
	if err != nil {
		return types.AnalysisResult{}, err
	}
	raw := []byte(contents[0])
	if err := store.ValidateAnalysisJSON(raw); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("analysis file %s: %w", path, err)
	}
	var result types.AnalysisResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return types.AnalysisResult{}, fmt.Errorf("analysis file %s: %w", path, err)
	}
	return result, nil
}
