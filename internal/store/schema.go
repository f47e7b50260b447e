package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/xeipuuv/gojsonschema"
)

const analysisSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["ats_score", "feedback"],
  "properties": {
    "ats_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "feedback": {
      "type": "object",
      "required": ["keyword_gaps", "keyword_strengths", "content_improvements", "formatting_advice"],
      "properties": {
        "keyword_gaps": {"$ref": "#/definitions/strings"},
        "keyword_strengths": {"$ref": "#/definitions/strings"},
        "content_improvements": {"$ref": "#/definitions/adviceList"},
        "formatting_advice": {"$ref": "#/definitions/adviceList"}
      }
    }
  },
  "definitions": {
    "strings": {"type": "array", "items": {"type": "string"}},
    "adviceList": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "detail"],
        "properties": {
          "type": {"type": "string", "enum": ["improvement", "strength"]},
          "detail": {"type": "string"}
        }
      }
    }
  }
}`

var (
	analysisSchemaOnce sync.Once
	analysisSchema     *gojsonschema.Schema
	analysisSchemaErr  error
)

func loadAnalysisSchema() (*gojsonschema.Schema, error) {
	analysisSchemaOnce.Do(func() {
		analysisSchema, analysisSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(analysisSchemaJSON))
	})
	return analysisSchema, analysisSchemaErr
}

// ValidateAnalysisJSON checks raw against the stored analysis schema
func ValidateAnalysisJSON(raw []byte) error {
	schema, err := loadAnalysisSchema()
	if err != nil {
		return resumeforgeErrors.NewInternalError(resumeforgeErrors.ErrCodeSchemaValidation,
			"failed to load analysis schema", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return resumeforgeErrors.NewValidationError(resumeforgeErrors.ErrCodeInvalidFormat,
			"analysis is not valid JSON", err)
	}
	if result.Valid() {
		return nil
	}

	fields := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		fields = append(fields, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return resumeforgeErrors.NewValidationError(resumeforgeErrors.ErrCodeSchemaValidation,
		"analysis does not match schema", nil).WithContext("fields", strings.Join(fields, "; "))
}

// encodeAnalysis marshals result with empty lists instead of nulls and validates it
func encodeAnalysis(result types.AnalysisResult) ([]byte, error) {
	fb := &result.Feedback
	if fb.KeywordGaps == nil {
		fb.KeywordGaps = []string{}
	}
	if fb.KeywordStrengths == nil {
		fb.KeywordStrengths = []string{}
	}
	if fb.ContentImprovements == nil {
		fb.ContentImprovements = []types.Advice{}
	}
	if fb.FormattingAdvice == nil {
		fb.FormattingAdvice = []types.Advice{}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, resumeforgeErrors.NewInternalError(resumeforgeErrors.ErrCodeInvalidFormat,
			"failed to encode analysis", err)
	}
	if err := ValidateAnalysisJSON(raw); err != nil {
		return nil, err
	}
	return raw, nil
}
