package common

import (
	"fmt"
	"slices"
	"strings"

	"resumeforge/internal/errors"
)

// NormalizeOutputFormat lower-cases format and checks it against the
// configured formats. An empty allow list accepts anything.
func NormalizeOutputFormat(format string, supportedFormats []string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return format, nil
	}

	return "", errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format %q (supported: %s)", format, strings.Join(supportedFormats, ", ")), nil).
		WithContext("format", format)
}
