package cli

import (
	"context"

	"resumeforge/internal/common"
	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resumeforge",
		Short: "Analyze and tailor resumes against job descriptions using AI",
		Long: `Resumeforge scores a resume against a job description, recommends a
template, drafts an optimized version and refines it section by section.

AI commands run against the configured provider directly, or against a
resumeforge server with --remote. Saving and history always go through the
server and need an account (see signup and signin).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().Bool("remote", false, "Send AI requests to the resumeforge server (client.baseURL)")
	cmd.PersistentFlags().String("server-url", "", "Server base URL (overrides client.baseURL)")

	cmd.AddCommand(
		newAnalyzeCmd(),
		newTemplatesCmd(),
		newDraftCmd(),
		newRefineCmd(),
		newSkillsCmd(),
		newBulletsCmd(),
		newSectionsCmd(),
		newPatchCmd(),
		newTailorCmd(),
		newSignupCmd(),
		newSigninCmd(),
		newSignoutCmd(),
		newSaveCmd(),
		newHistoryCmd(),
		newServeCmd(),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command with cfg and logger attached to ctx
func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	return execute(ctx, rootCmd, cfg, logger)
}

func execute(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *errors.Logger) error {
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	cmd.SetContext(ctx)
	return cmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// addOutputFlags registers --output and --format and fills the defaults
// from config before the command runs
func addOutputFlags(cmd *cobra.Command, out *common.CommandConfig) {
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&out.OutputFormat, "format", "", "Output format: json, text, markdown or yaml")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return getConfigFromContext(cmd.Context()).App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if out.OutputFormat == "" {
			out.OutputFormat = cfg.App.DefaultFormat
		}
		out.MaxFileSize = cfg.App.MaxFileSize
		format, err := common.NormalizeOutputFormat(out.OutputFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		out.OutputFormat = format
		return nil
	}
}

func newRunner(cmd *cobra.Command, out common.CommandConfig) *common.Runner {
	runner := common.NewRunner(getLoggerFromContext(cmd.Context()), out, cmd.OutOrStdout())
	runner.Files.WithStdin(cmd.InOrStdin())
	return runner
}
