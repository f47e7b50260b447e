package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strings"

	resumeforgeErrors "resumeforge/internal/errors"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse represents an error response. Error carries the message
// shown to users, Message the detail behind it.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names rather than Go field names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validationDetail flattens validator errors into "field:tag" pairs
func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()[strings.Index(fe.Namespace(), ".")+1:]+":"+fe.Tag())
	}
	return strings.Join(parts, ", ")
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	defer func() { _ = r.Body.Close() }()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// decodeAndValidate parses the body and runs struct validation. On failure
// it writes a 400 carrying userMessage and returns false.
func (s *Server) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any, userMessage string) bool {
	if err := parseJSONRequest(r, v); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeErrorResponse(w, userMessage, validationDetail(err), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	// headers are already sent, so an encode failure has nowhere to go
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Error: error, Message: message})
}

// writeAIError reports a failed AI call as a 500
func (s *Server) writeAIError(w http.ResponseWriter, operation string, err error) {
	s.Logger.LogError(err, "AI operation failed", "operation", operation)
	message := err.Error()
	if appErr, ok := resumeforgeErrors.AsAppError(err); ok {
		message = appErr.Message
	}
	writeErrorResponse(w, "AI Server Error: "+message, "", http.StatusInternalServerError)
}
