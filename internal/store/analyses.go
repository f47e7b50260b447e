package store

import (
	"context"
	"encoding/json"
	"strings"

	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/types"

	"github.com/google/uuid"
)

// Analysis is a row of resume_analyses ready for insert
type Analysis struct {
	ResumeText     string
	JobDescription string
	ATSScore       int
	AnalysisJSON   []byte
	TargetJobTitle string
}

// NewAnalysis encodes and validates a save request
func NewAnalysis(req types.SaveAnalysisRequest) (Analysis, error) {
	if req.AnalysisResult == nil {
		return Analysis{}, resumeforgeErrors.NewValidationError(resumeforgeErrors.ErrCodeInvalidRequest,
			"analysis result is required", nil)
	}

	raw, err := encodeAnalysis(*req.AnalysisResult)
	if err != nil {
		return Analysis{}, err
	}

	title := strings.TrimSpace(req.TargetJobTitle)
	if title == "" {
		title = types.DefaultAnalysisTitle
	}

	return Analysis{
		ResumeText:     req.ResumeText,
		JobDescription: req.JobDescription,
		ATSScore:       req.AnalysisResult.ATSScore,
		AnalysisJSON:   raw,
		TargetJobTitle: title,
	}, nil
}

// SaveAnalysis stores a snapshot for userID and returns its id
func (db *Postgres) SaveAnalysis(ctx context.Context, userID uuid.UUID, req types.SaveAnalysisRequest) (int64, error) {
	analysis, err := NewAnalysis(req)
	if err != nil {
		return 0, err
	}

	query, args, err := insertAnalysisQuery(userID, analysis)
	if err != nil {
		return 0, storageError("failed to build analysis insert", err)
	}

	var id int64
	if err := db.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, storageError("failed to save analysis", err)
	}

	db.logger.Debug("Saved analysis", "user_id", userID.String(), "id", id)
	return id, nil
}

// ListAnalyses returns userID's snapshots, newest first
func (db *Postgres) ListAnalyses(ctx context.Context, userID uuid.UUID) ([]types.HistoryEntry, error) {
	query, args, err := listAnalysesQuery(userID)
	if err != nil {
		return nil, storageError("failed to build history query", err)
	}

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageError("failed to list analyses", err)
	}
	defer rows.Close()

	entries := []types.HistoryEntry{}
	for rows.Next() {
		var entry types.HistoryEntry
		var raw []byte
		if err := rows.Scan(&entry.ID, &entry.CreatedAt, &entry.TargetJobTitle, &entry.ATSScore,
			&entry.JobDescription, &entry.ResumeText, &raw); err != nil {
			return nil, storageError("failed to scan analysis", err)
		}
		entry.AnalysisJSON = json.RawMessage(raw)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError("failed to iterate analyses", err)
	}
	return entries, nil
}

// DeleteAnalysis removes snapshot id if userID owns it. A missing or foreign
// id is ErrCodeNotFound.
func (db *Postgres) DeleteAnalysis(ctx context.Context, userID uuid.UUID, id int64) error {
	query, args, err := deleteAnalysisQuery(userID, id)
	if err != nil {
		return storageError("failed to build analysis delete", err)
	}

	result, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		return storageError("failed to delete analysis", err)
	}
	if result.RowsAffected() == 0 {
		return resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeNotFound,
			"analysis not found", nil).WithContext("id", id)
	}
	return nil
}
