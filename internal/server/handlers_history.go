package server

import (
	"net/http"

	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/types"

	"github.com/google/uuid"
)

// currentUser resolves the user id from the verified claims. It writes a
// 401 and returns false when the subject is unusable.
func currentUser(w http.ResponseWriter, r *http.Request, unauthorized string) (uuid.UUID, bool) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeErrorResponse(w, unauthorized, "", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	id, err := claims.UserID()
	if err != nil {
		writeErrorResponse(w, unauthorized, "invalid token subject", http.StatusUnauthorized)
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) saveAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, "Authentication required to save data.")
	if !ok {
		return
	}

	var req types.SaveAnalysisRequest
	if !s.decodeAndValidate(w, r, &req, "Missing analysis results to save.") {
		return
	}

	id, err := s.deps.Store.SaveAnalysis(r.Context(), userID, req)
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricHistorySaved, err == nil, s.om)
	if err != nil {
		if appErr, isApp := resumeforgeErrors.AsAppError(err); isApp && appErr.Type == resumeforgeErrors.ErrorTypeValidation {
			writeErrorResponse(w, "Missing analysis results to save.", appErr.Message, http.StatusBadRequest)
			return
		}
		s.Logger.LogError(err, "Failed to save analysis", "user_id", userID.String())
		writeErrorResponse(w, "Database error during save.", "", http.StatusInternalServerError)
		return
	}

	s.Logger.Info("Analysis saved", "user_id", userID.String(), "id", id)
	writeJSON(w, http.StatusCreated, types.SaveAnalysisResponse{
		Message: "Analysis saved successfully!",
		ID:      id,
	})
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, "Authentication required to view history.")
	if !ok {
		return
	}

	entries, err := s.deps.Store.ListAnalyses(r.Context(), userID)
	if err != nil {
		s.Logger.LogError(err, "Failed to list analyses", "user_id", userID.String())
		writeErrorResponse(w, "Database error during history retrieval.", "", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, types.HistoryResponse{History: entries})
}

func (s *Server) deleteAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r, "Authentication required to delete drafts.")
	if !ok {
		return
	}

	var req types.DeleteAnalysisRequest
	if !s.decodeAndValidate(w, r, &req, "Draft ID is required.") {
		return
	}

	err := s.deps.Store.DeleteAnalysis(r.Context(), userID, req.DraftID)
	s.om.GetMetrics().RecordBusinessMetric(r.Context(), observability.MetricHistoryDeleted, err == nil, s.om)
	if err != nil {
		if resumeforgeErrors.HasCode(err, resumeforgeErrors.ErrCodeNotFound) {
			writeErrorResponse(w, "Draft not found or unauthorized.", "", http.StatusNotFound)
			return
		}
		s.Logger.LogError(err, "Failed to delete analysis", "user_id", userID.String(), "id", req.DraftID)
		writeErrorResponse(w, "Database error during deletion.", "", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, types.MessageResponse{Message: "Draft deleted successfully!"})
}
