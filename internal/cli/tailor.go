package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"resumeforge/internal/common"
	"resumeforge/internal/document"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"

	"github.com/spf13/cobra"
)

// collaborators wires the AI backend and, when needed, the server for
// persistence into a workflow session
func collaborators(b *backend, persistence workflow.Persistence) workflow.Collaborators {
	return workflow.Collaborators{
		Analyzer:            b,
		TemplateRecommender: b,
		DraftGenerator:      b,
		SectionRefiner:      b,
		SkillGapSuggester:   b,
		Persistence:         persistence,
	}
}

type tailorOptions struct {
	template string
	sections []string
	skills   bool
	save     bool
	title    string
}

func newTailorCmd() *cobra.Command {
	var (
		out  common.CommandConfig
		opts tailorOptions
	)
	cmd := &cobra.Command{
		Use:   "tailor [resume-file] [job-description-file]",
		Short: "Run the full workflow: analyze, draft, refine and optionally save",
		Long: `Analyze the resume, pick a template (the recommended one unless --template
is given), generate the initial draft and refine each --section by applying
every suggested rewrite. The final draft is written to --output or standard
output and a summary goes to standard error.

With --save the analysis and final draft are stored on the server for the
signed-in account.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTailor(cmd, args, out, opts)
		},
	}
	cmd.Flags().StringVar(&opts.template, "template", "", "Template to use instead of the recommended one")
	cmd.Flags().StringSliceVar(&opts.sections, "section", []string{string(document.SectionSummary), string(document.SectionExperience)},
		"Sections to refine, in order: "+sectionChoices())
	cmd.Flags().BoolVar(&opts.skills, "skills", false, "Also suggest bullets for the keyword gaps")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save the analysis and final draft to the server")
	cmd.Flags().StringVar(&opts.title, "title", "", "Title for the saved analysis")
	addOutputFlags(cmd, &out)
	return cmd
}

func runTailor(cmd *cobra.Command, args []string, out common.CommandConfig, opts tailorOptions) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	sections := make([]document.SectionName, 0, len(opts.sections))
	for _, s := range trimAll(opts.sections) {
		name, ok := document.ParseSectionName(s)
		if !ok {
			return fmt.Errorf("unknown section %q (choose from %s)", s, sectionChoices())
		}
		sections = append(sections, name)
	}

	b, err := openBackend(cmd)
	if err != nil {
		return err
	}
	defer b.Close()

	var persistence workflow.Persistence
	var identity workflow.Identity
	if opts.save {
		if identity, err = loadIdentity(cfg); err != nil {
			return err
		}
		c, err := newClient(cmd)
		if err != nil {
			return err
		}
		persistence = c
	}

	runner := newRunner(cmd, out)
	contents, err := runner.Files.ValidateAndReadFiles(args...)
	if err != nil {
		return err
	}

	session := workflow.NewSession(collaborators(b, persistence), workflow.NewGuest(time.Now()), logger)
	if opts.save {
		// fail on a stale token before spending any AI calls
		if err := session.SetIdentity(ctx, identity); err != nil {
			return err
		}
	}
	engine := session.Engine
	summary := cmd.ErrOrStderr()

	analysis, err := engine.Analyze(ctx, contents[0], contents[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(summary, "ATS score: %d/100 (%d keyword gaps)\n", analysis.ATSScore, len(analysis.Feedback.KeywordGaps))

	rec, err := engine.BeginTemplateSelection(ctx)
	if err != nil {
		return err
	}
	template := opts.template
	if template == "" {
		template = rec.BestTemplateType
	}
	if template == "" {
		template = types.TemplateOptions[0]
	}
	if err := engine.SelectTemplate(template); err != nil {
		return err
	}
	view := engine.Snapshot()
	fmt.Fprintf(summary, "Template: %s\n", view.Template)
	if view.DraftDegraded {
		fmt.Fprintln(summary, "Initial draft unavailable; refining the original resume instead")
	}

	for _, name := range sections {
		refinement, err := engine.SelectSection(ctx, name)
		if errors.Is(err, workflow.ErrSectionNotFound) {
			fmt.Fprintf(summary, "%s: not found in draft, skipped\n", name)
			continue
		}
		if err != nil {
			return err
		}
		applied := 0
		for _, s := range refinement.SuggestedRewrites {
			if engine.ApplySuggestion(s) {
				applied++
			}
		}
		fmt.Fprintf(summary, "%s: applied %d of %d rewrites\n", name, applied, len(refinement.SuggestedRewrites))
	}

	if opts.skills {
		reportSkillSuggestions(ctx, summary, engine)
	}

	if opts.save {
		id, err := session.Save(ctx, opts.title)
		if err != nil {
			return err
		}
		fmt.Fprintf(summary, "Analysis saved successfully! (id %d)\n", id)
	}

	return runner.Output.HandleOutput(types.InitialDraftOutput{ModifiedDraft: engine.Snapshot().Draft}, out)
}

func reportSkillSuggestions(ctx context.Context, w io.Writer, engine *workflow.Engine) {
	suggestions, err := engine.SuggestSkillBullets(ctx)
	switch {
	case errors.Is(err, workflow.ErrNoKeywordGaps):
		fmt.Fprintln(w, "No keyword gaps to cover")
	case err != nil:
		fmt.Fprintf(w, "Skill suggestions unavailable: %v\n", err)
	default:
		fmt.Fprintln(w, "Skill suggestions:")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  - %s: %s\n", s.Skill, s.Bullet)
		}
	}
}
