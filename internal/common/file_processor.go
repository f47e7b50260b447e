package common

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumeforge/internal/errors"
	"resumeforge/internal/utils"
)

// FileProcessor reads command inputs and writes command outputs
type FileProcessor struct {
	logger  *errors.Logger
	maxSize int64
	stdin   io.Reader
}

// NewFileProcessor creates a file processor. Inputs larger than maxSize
// bytes are rejected; zero disables the limit.
func NewFileProcessor(logger *errors.Logger, maxSize int64) *FileProcessor {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &FileProcessor{logger: logger, maxSize: maxSize, stdin: os.Stdin}
}

// WithStdin replaces the reader used for the "-" input
func (fp *FileProcessor) WithStdin(r io.Reader) *FileProcessor {
	fp.stdin = r
	return fp
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) (string, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return fp.decode(filename, content)
}

// readStdin reads the "-" input under the same size limit as files
func (fp *FileProcessor) readStdin() (string, error) {
	reader := fp.stdin
	if fp.maxSize > 0 {
		reader = io.LimitReader(reader, fp.maxSize+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read standard input", err)
	}
	if fp.maxSize > 0 && int64(len(content)) > fp.maxSize {
		return "", errors.NewValidationError("INVALID_INPUT_FILE",
			fmt.Sprintf("Standard input is larger than the %s limit", utils.FormatFileSize(fp.maxSize)), nil)
	}
	return fp.decode(utils.StdinName, content)
}

// decode turns HTML inputs into plain text and leaves everything else alone
func (fp *FileProcessor) decode(filename string, content []byte) (string, error) {
	if !utils.IsHTMLFile(filename) {
		return string(content), nil
	}
	text, err := utils.HTMLToText(bytes.NewReader(content))
	if err != nil {
		return "", errors.NewIOError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Cannot extract text from %s", filename), err)
	}
	fp.logger.Debug("Converted HTML input to text", "filename", filename, "chars", len(text))
	return text, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, []byte(content), 0600); err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ValidateAndReadFiles validates and reads input files in order. "-" reads
// standard input and may appear once.
func (fp *FileProcessor) ValidateAndReadFiles(filenames ...string) ([]string, error) {
	contents := make([]string, len(filenames))
	stdinUsed := false

	for i, filename := range filenames {
		if filename == utils.StdinName {
			if stdinUsed {
				return nil, errors.NewValidationError("INVALID_INPUT_FILE",
					"Standard input can only be used for one input", nil)
			}
			stdinUsed = true
			content, err := fp.readStdin()
			if err != nil {
				return nil, err
			}
			contents[i] = content
			continue
		}

		if err := utils.ValidateInputFile(filename, fp.maxSize); err != nil {
			return nil, errors.NewValidationError("INVALID_INPUT_FILE",
				fmt.Sprintf("Invalid file %s", filename), err)
		}

		if !utils.IsTextFile(filename) {
			fp.logger.Warn("File may not be a text file", "filename", filename)
		}

		content, err := fp.ReadFile(filename)
		if err != nil {
			return nil, err
		}
		contents[i] = content
	}

	return contents, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
