package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"resumeforge/internal/common"
	"resumeforge/internal/history"
	"resumeforge/internal/types"
	"resumeforge/internal/workflow"

	"github.com/spf13/cobra"
)

// openAccountSession signs a session in with the stored token. The server
// client serves both AI calls and persistence.
func openAccountSession(cmd *cobra.Command) (*workflow.Session, error) {
	ctx := cmd.Context()
	identity, err := loadIdentity(getConfigFromContext(ctx))
	if err != nil {
		return nil, err
	}
	c, err := newClient(cmd)
	if err != nil {
		return nil, err
	}

	session := workflow.NewSession(collaborators(&backend{assistant: c}, c),
		workflow.NewGuest(time.Now()), getLoggerFromContext(ctx))
	if err := session.SetIdentity(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return session, nil
}

func newSaveCmd() *cobra.Command {
	var (
		analysisFile string
		title        string
		maxFileSize  int64
	)
	cmd := &cobra.Command{
		Use:   "save [resume-file] [job-description-file]",
		Short: "Save an analysis to your account",
		Long: `Store a resume, its job description and their analysis on the server.
The analysis is read from --analysis or produced on the fly by the server.
Without --title the first line of the job description is used when it looks
like a title.`,
		Args: cobra.ExactArgs(2),
		PreRun: func(cmd *cobra.Command, args []string) {
			maxFileSize = getConfigFromContext(cmd.Context()).App.MaxFileSize
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := openAccountSession(cmd)
			if err != nil {
				return err
			}
			runner := newRunner(cmd, common.CommandConfig{MaxFileSize: maxFileSize})
			contents, err := runner.Files.ValidateAndReadFiles(args...)
			if err != nil {
				return err
			}
			in, err := pairInput(contents)
			if err != nil {
				return err
			}

			if analysisFile == "" {
				if _, err := session.Engine.Analyze(ctx, in.Resume, in.JobDescription); err != nil {
					return err
				}
			} else {
				analysis, err := readAnalysisFile(runner, analysisFile)
				if err != nil {
					return err
				}
				if err := loadAnalysis(session.Engine, in, analysis); err != nil {
					return err
				}
			}

			id, err := session.Save(ctx, title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Analysis saved successfully! (id %d)\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&analysisFile, "analysis", "", "Analysis JSON file to save instead of analyzing again")
	cmd.Flags().StringVar(&title, "title", "", "Title for the saved analysis")
	return cmd
}

// loadAnalysis puts an existing analysis into the engine's Results state
func loadAnalysis(engine *workflow.Engine, in types.AnalyzeInput, analysis types.AnalysisResult) error {
	raw, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	return engine.LoadHistoryEntry(types.HistoryEntry{
		ResumeText:     in.Resume,
		JobDescription: in.JobDescription,
		ATSScore:       analysis.ATSScore,
		AnalysisJSON:   raw,
	})
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show and delete saved analyses",
	}
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd(), newHistoryDeleteCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var out common.CommandConfig
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved analyses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := openAccountSession(cmd)
			if err != nil {
				return err
			}
			entries := session.History.Entries()
			if entries == nil {
				entries = []types.HistoryEntry{}
			}
			return newRunner(cmd, out).Output.HandleOutput(types.HistoryResponse{History: entries}, out)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var out common.CommandConfig
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show the analysis of a saved entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			session, err := openAccountSession(cmd)
			if err != nil {
				return err
			}
			if err := session.Load(id); err != nil {
				return err
			}
			analysis := session.Engine.Snapshot().Analysis
			return newRunner(cmd, out).Output.HandleOutput(*analysis, out)
		},
	}
	addOutputFlags(cmd, &out)
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a saved analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseEntryID(args[0])
			if err != nil {
				return err
			}
			session, err := openAccountSession(cmd)
			if err != nil {
				return err
			}

			confirm := promptConfirm(cmd.InOrStdin(), cmd.ErrOrStderr())
			if yes {
				confirm = func(int64) bool { return true }
			}
			err = session.Delete(cmd.Context(), id, confirm)
			if errors.Is(err, history.ErrDeclined) {
				fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Draft deleted successfully!")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Delete without asking")
	return cmd
}

func parseEntryID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid analysis id %q", s)
	}
	return id, nil
}

// promptConfirm asks on w and reads a yes/no answer from r
func promptConfirm(r io.Reader, w io.Writer) history.Confirmer {
	return func(id int64) bool {
		fmt.Fprintf(w, "Delete saved analysis %d? [y/N] ", id)
		answer, _ := bufio.NewReader(r).ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}
