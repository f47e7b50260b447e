package cli

import (
	"context"
	"fmt"
	"strings"

	"resumeforge/internal/ai"
	"resumeforge/internal/common"
	"resumeforge/internal/document"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var out common.CommandConfig
	cmd := &cobra.Command{
		Use:   "analyze [resume-file] [job-description-file]",
		Short: "Score a resume against a job description",
		Long: `Score how well a resume matches a job description the way an applicant
tracking system would. The result lists the ATS score, missing and matched
keywords, content improvements and formatting advice.

Either file may be "-" to read standard input. HTML files are converted to
plain text first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			return common.RunAICommand(cmd.Context(), newRunner(cmd, out), out, "analyze", args, pairInput, b.analyze)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func newTemplatesCmd() *cobra.Command {
	var out common.CommandConfig
	cmd := &cobra.Command{
		Use:   "templates [resume-file] [job-description-file]",
		Short: "Recommend a resume template for a job",
		Long: fmt.Sprintf(`Score every resume template for the resume and job description and pick
the best one. Templates:
  - %s`, strings.Join(types.TemplateOptions, "\n  - ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			return common.RunAICommand(cmd.Context(), newRunner(cmd, out), out, "recommend_template", args, pairInput,
				func(ctx context.Context, in types.AnalyzeInput) (types.TemplateRecommendation, *ai.TokenUsage, error) {
					rec, err := b.RecommendTemplate(ctx, in.Resume, in.JobDescription)
					return rec, nil, err
				})
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func newDraftCmd() *cobra.Command {
	var (
		out          common.CommandConfig
		analysisFile string
		template     string
	)
	cmd := &cobra.Command{
		Use:   "draft [resume-file] [job-description-file]",
		Short: "Generate an optimized resume draft",
		Long: `Rewrite the resume for the job description. The draft is guided by an
analysis, either read from --analysis (JSON as written by 'analyze --format
json') or produced on the fly.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer b.Close()
			runner := newRunner(cmd, out)

			var analysis *types.AnalysisResult
			if analysisFile != "" {
				result, err := readAnalysisFile(runner, analysisFile)
				if err != nil {
					return err
				}
				analysis = &result
			}

			return common.RunAICommand(cmd.Context(), runner, out, "generate_initial_draft", args, pairInput,
				func(ctx context.Context, in types.AnalyzeInput) (types.InitialDraftOutput, *ai.TokenUsage, error) {
					var usage *ai.TokenUsage
					if analysis == nil {
						result, u, err := b.analyze(ctx, in)
						if err != nil {
							return types.InitialDraftOutput{}, nil, err
						}
						analysis, usage = &result, u
					}
					draft, err := b.GenerateInitialDraft(ctx, types.InitialDraftInput{
						Resume:         in.Resume,
						JobDescription: in.JobDescription,
						Analysis:       *analysis,
						TemplateType:   template,
					})
					return types.InitialDraftOutput{ModifiedDraft: draft}, usage, err
				})
		},
	}
	cmd.Flags().StringVar(&analysisFile, "analysis", "", "Analysis JSON file to guide the draft")
	cmd.Flags().StringVar(&template, "template", "", "Template to write the draft for")
	addOutputFlags(cmd, &out)
	return cmd
}

func newRefineCmd() *cobra.Command {
	var (
		out      common.CommandConfig
		section  string
		strategy string
		apply    bool
	)
	cmd := &cobra.Command{
		Use:   "refine [draft-file] [job-description-file]",
		Short: "Suggest rewrites for one section of a draft",
		Long: `Extract one section (Summary, Experience, Skills or Education) from the
draft and ask for rewrites aimed at the job description. With --apply the
rewrites are patched into the draft and the patched draft is written instead.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, ok := document.ParseSectionName(section)
			if !ok {
				return fmt.Errorf("unknown section %q (choose from %s)", section, sectionChoices())
			}
			boundary, err := parseBoundaryStrategy(strategy)
			if err != nil {
				return err
			}

			b, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer b.Close()
			runner := newRunner(cmd, out)
			logger := getLoggerFromContext(cmd.Context())

			contents, err := runner.Files.ValidateAndReadFiles(args...)
			if err != nil {
				return err
			}
			draft, jd := contents[0], contents[1]
			text, err := document.ExtractSection(draft, name, boundary)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			refinement, err := b.RefineSection(cmd.Context(), text, jd)
			if err != nil {
				return err
			}
			if !apply {
				return runner.Output.HandleOutput(refinement, out)
			}

			applied := 0
			for _, s := range refinement.SuggestedRewrites {
				if patched, ok := document.Apply(draft, s.OriginalTextSnippet, s.SuggestedBullet); ok {
					draft = patched
					applied++
				}
			}
			logger.Info("Applied section rewrites", "section", string(name),
				"applied", applied, "suggested", len(refinement.SuggestedRewrites))
			return runner.Output.HandleOutput(types.InitialDraftOutput{ModifiedDraft: draft}, out)
		},
	}
	cmd.Flags().StringVar(&section, "section", string(document.SectionExperience), "Section to refine: "+sectionChoices())
	cmd.Flags().StringVar(&strategy, "boundary", document.DocumentOrder.String(), "Where a section ends: document-order or enumeration-order")
	cmd.Flags().BoolVar(&apply, "apply", false, "Patch the rewrites into the draft and output the draft")
	addOutputFlags(cmd, &out)
	return cmd
}

func newSkillsCmd() *cobra.Command {
	var (
		out  common.CommandConfig
		gaps []string
	)
	cmd := &cobra.Command{
		Use:   "skills [resume-file] [job-description-file]",
		Short: "Write bullets that cover missing keywords",
		Long: `Write one resume bullet per missing keyword. The keywords come from --gaps
or, when none are given, from the keyword gaps of a fresh analysis.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			return common.RunAICommand(cmd.Context(), newRunner(cmd, out), out, "suggest_skill_bullets", args, pairInput,
				func(ctx context.Context, in types.AnalyzeInput) (types.SkillGapOutput, *ai.TokenUsage, error) {
					var usage *ai.TokenUsage
					keywords := trimAll(gaps)
					if len(keywords) == 0 {
						result, u, err := b.analyze(ctx, in)
						if err != nil {
							return types.SkillGapOutput{}, nil, err
						}
						keywords, usage = result.Feedback.KeywordGaps, u
					}
					if len(keywords) == 0 {
						return types.SkillGapOutput{}, usage, workflow.ErrNoKeywordGaps
					}
					suggestions, err := b.SuggestSkillBullets(ctx, in.Resume, in.JobDescription, keywords)
					return types.SkillGapOutput{Suggestions: suggestions}, usage, err
				})
		},
	}
	cmd.Flags().StringSliceVar(&gaps, "gaps", nil, "Keywords to cover (comma separated)")
	addOutputFlags(cmd, &out)
	return cmd
}

func newBulletsCmd() *cobra.Command {
	var out common.CommandConfig
	cmd := &cobra.Command{
		Use:   "bullets [job-title] [task-description-file]",
		Short: "Turn a task description into resume bullets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobTitle := strings.TrimSpace(args[0])
			if jobTitle == "" {
				return fmt.Errorf("job title is required")
			}

			b, err := openBackend(cmd)
			if err != nil {
				return err
			}
			defer b.Close()

			return common.RunAICommand(cmd.Context(), newRunner(cmd, out), out, "generate_bullet_points", args[1:],
				func(contents []string) (types.BulletPointsInput, error) {
					if isBlank(contents[0]) {
						return types.BulletPointsInput{}, fmt.Errorf("task description is empty")
					}
					return types.BulletPointsInput{JobTitle: jobTitle, TaskDescription: contents[0]}, nil
				},
				func(ctx context.Context, in types.BulletPointsInput) (types.BulletPointsOutput, *ai.TokenUsage, error) {
					result, err := b.GenerateBullets(ctx, in.JobTitle, in.TaskDescription)
					return result, nil, err
				})
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func sectionChoices() string {
	names := make([]string, 0, len(document.SectionNames))
	for _, name := range document.SectionNames {
		names = append(names, string(name))
	}
	return strings.Join(names, ", ")
}

func parseBoundaryStrategy(s string) (document.BoundaryStrategy, error) {
	switch s {
	case "", document.DocumentOrder.String():
		return document.DocumentOrder, nil
	case document.EnumerationOrder.String():
		return document.EnumerationOrder, nil
	}
	return 0, fmt.Errorf("unknown boundary strategy %q", s)
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
