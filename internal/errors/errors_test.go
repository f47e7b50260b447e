package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without cause",
			err:  NewValidationError(ErrCodeInvalidRequest, "resume is required", nil),
			want: "INVALID_REQUEST: resume is required",
		},
		{
			name: "with cause",
			err:  NewAIError(ErrCodeAIServiceFailed, "analysis failed", fmt.Errorf("timeout")),
			want: "AI_SERVICE_FAILED: analysis failed (caused by: timeout)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	base := NewStorageError(ErrCodeNotFound, "draft not found", nil)
	wrapped := fmt.Errorf("delete: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeStorage, appErr.Type)
	assert.True(t, HasCode(wrapped, ErrCodeNotFound))
	assert.False(t, HasCode(wrapped, ErrCodeConflict))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeNotFound))
}

func TestLoggerLogErrorIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)

	err := NewAuthError(ErrCodeUnauthorized, "guest cannot save", nil).WithContext("user_id", "GUEST_1")
	logger.LogError(err, "Save rejected", "operation", "save")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Save rejected", entry["msg"])
	assert.Equal(t, "auth", entry["error_type"])
	assert.Equal(t, "UNAUTHORIZED", entry["error_code"])
	assert.Equal(t, "GUEST_1", entry["user_id"])
	assert.Equal(t, "save", entry["operation"])
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		logger, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}

	_, err := New("verbose")
	assert.EqualError(t, err, "invalid log level: verbose")
}
