package workflow

import (
	"errors"
	"fmt"

	"resumeforge/internal/document"
	"resumeforge/internal/history"
)

var (
	// ErrMissingInput is returned when required text is blank
	ErrMissingInput = errors.New("resume and job description are required")
	// ErrNoAnalysis is returned when an operation needs an analysis result
	ErrNoAnalysis = errors.New("no analysis result available")
	// ErrInvalidTransition is returned when an operation is not allowed in the current state
	ErrInvalidTransition = errors.New("operation not allowed in current state")
	// ErrUnknownTemplate is returned when the selected template is not one of the options
	ErrUnknownTemplate = errors.New("unknown resume template")
	// ErrNoKeywordGaps is returned when skill suggestions are requested without gaps
	ErrNoKeywordGaps = errors.New("analysis has no keyword gaps")
	// ErrSectionNotFound is returned when the selected section is absent from the draft
	ErrSectionNotFound = document.ErrSectionNotFound
	// ErrUnauthorized is returned when an identity-bound operation has no usable identity
	ErrUnauthorized = errors.New("sign in required")
	// ErrDraftPending is returned while the initial draft is still being generated
	ErrDraftPending = errors.New("initial draft is still being generated")
	// ErrStaleResponse is returned when a response arrives after the workflow moved on
	ErrStaleResponse = errors.New("response discarded: workflow changed while the request was in flight")
)

// ExternalError wraps a collaborator failure
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

func external(op string, err error) error {
	return &ExternalError{Op: op, Err: err}
}

// ErrorKind classifies workflow errors
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindValidation
	KindExternal
	KindExtraction
	KindAuthorization
	KindState
	KindStale
	KindUnknown
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindExternal:
		return "external"
	case KindExtraction:
		return "extraction"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindStale:
		return "stale"
	}
	return "unknown"
}

// Kind classifies err. Patch no-ops are not errors; they surface as the
// applied flag of ApplySuggestion.
func Kind(err error) ErrorKind {
	var extErr *ExternalError
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &extErr):
		return KindExternal
	case errors.Is(err, ErrMissingInput), errors.Is(err, ErrUnknownTemplate), errors.Is(err, ErrNoKeywordGaps):
		return KindValidation
	case errors.Is(err, ErrSectionNotFound):
		return KindExtraction
	case errors.Is(err, ErrUnauthorized), errors.Is(err, history.ErrUnauthorized):
		return KindAuthorization
	case errors.Is(err, ErrNoAnalysis), errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrDraftPending),
		errors.Is(err, history.ErrDeleteInFlight), errors.Is(err, history.ErrDeclined):
		return KindState
	case errors.Is(err, ErrStaleResponse), errors.Is(err, history.ErrStaleFetch):
		return KindStale
	}
	return KindUnknown
}
