package common

import (
	"context"
	"fmt"
	"io"

	"resumeforge/internal/ai"
	"resumeforge/internal/errors"
)

// CreateInputFunc builds the operation input from the input file contents
type CreateInputFunc[Input any] func(contents []string) (Input, error)

// AIOperationFunc runs one AI operation. Usage is nil when the backend does
// not report it.
type AIOperationFunc[Input, Output any] func(context.Context, Input) (Output, *ai.TokenUsage, error)

// Runner bundles the file and output helpers a command needs
type Runner struct {
	Files  *FileProcessor
	Output *OutputHandler
	Logger *errors.Logger
}

// NewRunner creates a runner printing to stdout
func NewRunner(logger *errors.Logger, cfg CommandConfig, stdout io.Writer) *Runner {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &Runner{
		Files:  NewFileProcessor(logger, cfg.MaxFileSize),
		Output: NewOutputHandlerWithWriter(logger, stdout),
		Logger: logger,
	}
}

// RunAICommand reads the input files, runs the operation and writes its
// formatted result
func RunAICommand[Input, Output any](
	ctx context.Context,
	r *Runner,
	cmdConfig CommandConfig,
	operation string,
	files []string,
	createInput CreateInputFunc[Input],
	aiOperation AIOperationFunc[Input, Output],
) error {
	contents, err := r.Files.ValidateAndReadFiles(files...)
	if err != nil {
		return err
	}

	input, err := createInput(contents)
	if err != nil {
		return fmt.Errorf("failed to create input from file contents: %w", err)
	}

	r.Logger.Info("Running AI operation", "operation", operation, "inputs", len(files),
		"format", cmdConfig.OutputFormat)

	result, tokenUsage, err := aiOperation(ctx, input)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		r.Logger.Info("AI token usage", "operation", operation,
			"input_tokens", tokenUsage.InputTokens,
			"output_tokens", tokenUsage.OutputTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}

	return r.Output.HandleOutput(result, cmdConfig)
}
