package server

import (
	"net/http"

	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/observability"
	"resumeforge/internal/store"
	"resumeforge/internal/types"
)

func (s *Server) signupHandler(w http.ResponseWriter, r *http.Request) {
	var req types.SignupRequest
	if !s.decodeAndValidate(w, r, &req, "Missing username, email, or password.") {
		return
	}
	metrics := s.om.GetMetrics()

	hash, err := s.deps.Passwords.Hash(req.Password)
	if err != nil {
		metrics.RecordBusinessMetric(r.Context(), observability.MetricUserSignup, false, s.om)
		writeErrorResponse(w, "Missing username, email, or password.", err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.deps.Store.CreateUser(r.Context(), req.Username, store.NormalizeEmail(req.Email), hash)
	if err != nil {
		metrics.RecordBusinessMetric(r.Context(), observability.MetricUserSignup, false, s.om)
		if resumeforgeErrors.HasCode(err, resumeforgeErrors.ErrCodeConflict) {
			writeErrorResponse(w, "Username or Email already exists.", "", http.StatusConflict)
			return
		}
		s.Logger.LogError(err, "Signup failed", "request_id", requestID(r.Context()))
		writeErrorResponse(w, "Server error during signup.", "", http.StatusInternalServerError)
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.Logger.LogError(err, "Failed to issue token", "user_id", user.ID.String())
		writeErrorResponse(w, "Server error during signup.", "", http.StatusInternalServerError)
		return
	}

	metrics.RecordBusinessMetric(r.Context(), observability.MetricUserSignup, true, s.om)
	s.Logger.Info("User signed up", "user_id", user.ID.String(), "username", user.Username)
	writeJSON(w, http.StatusCreated, types.AuthResponse{
		Message:  "User created successfully.",
		UserID:   user.ID.String(),
		Username: user.Username,
		Token:    token,
	})
}

func (s *Server) signinHandler(w http.ResponseWriter, r *http.Request) {
	var req types.SigninRequest
	if !s.decodeAndValidate(w, r, &req, "Missing email or password.") {
		return
	}
	metrics := s.om.GetMetrics()

	user, err := s.deps.Store.UserByEmail(r.Context(), store.NormalizeEmail(req.Email))
	if err != nil && !resumeforgeErrors.HasCode(err, resumeforgeErrors.ErrCodeNotFound) {
		metrics.RecordBusinessMetric(r.Context(), observability.MetricUserSignin, false, s.om)
		s.Logger.LogError(err, "Signin lookup failed", "request_id", requestID(r.Context()))
		writeErrorResponse(w, "Server error during signin.", "", http.StatusInternalServerError)
		return
	}
	// unknown email and wrong password look the same to the caller
	if user == nil || !s.deps.Passwords.Verify(req.Password, user.PasswordHash) {
		metrics.RecordBusinessMetric(r.Context(), observability.MetricUserSignin, false, s.om)
		writeErrorResponse(w, "Invalid email or password.", resumeforgeErrors.ErrCodeInvalidLogin, http.StatusUnauthorized)
		return
	}

	token, err := s.deps.Tokens.Issue(user.ID, user.Username)
	if err != nil {
		s.Logger.LogError(err, "Failed to issue token", "user_id", user.ID.String())
		writeErrorResponse(w, "Server error during signin.", "", http.StatusInternalServerError)
		return
	}

	metrics.RecordBusinessMetric(r.Context(), observability.MetricUserSignin, true, s.om)
	writeJSON(w, http.StatusOK, types.AuthResponse{
		Message:  "Sign in successful.",
		UserID:   user.ID.String(),
		Username: user.Username,
		Token:    token,
	})
}
