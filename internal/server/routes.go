package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// AI endpoints: rate limit, then API key, then body size
	ai := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.apiKeyMiddleware(s.requestSizeLimitMiddleware(h)))
	}
	// account and history endpoints use bearer tokens instead of API keys
	open := func(h http.HandlerFunc) http.HandlerFunc {
		return s.rateLimitMiddleware(s.requestSizeLimitMiddleware(h))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("POST /analyze_resume", ai(s.analyzeHandler))
	mux.HandleFunc("POST /recommend_template", ai(s.recommendTemplateHandler))
	mux.HandleFunc("POST /generate_initial_draft", ai(s.initialDraftHandler))
	mux.HandleFunc("POST /refine_section", ai(s.refineSectionHandler))
	mux.HandleFunc("POST /suggest_skill_bullets", ai(s.skillBulletsHandler))
	mux.HandleFunc("POST /generate_bullet_points", ai(s.bulletPointsHandler))

	mux.HandleFunc("POST /signup", open(s.signupHandler))
	mux.HandleFunc("POST /signin", open(s.signinHandler))

	mux.HandleFunc("POST /save_analysis",
		open(s.requireUser("Authentication required to save data.", s.saveAnalysisHandler)))
	mux.HandleFunc("POST /get_history",
		open(s.requireUser("Authentication required to view history.", s.historyHandler)))
	mux.HandleFunc("POST /delete_analysis",
		open(s.requireUser("Authentication required to delete drafts.", s.deleteAnalysisHandler)))

	return mux
}
