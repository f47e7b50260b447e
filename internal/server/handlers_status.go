package server

import (
	"context"
	"net/http"
	"time"
)

const defaultHealthTimeout = 5 * time.Second

func (s *Server) healthTimeout() time.Duration {
	if t := s.AppConfig.Observability.HealthCheck.Timeout; t > 0 {
		return t
	}
	return defaultHealthTimeout
}

// healthHandler reports AI model, database and cache status. Any failing
// dependency marks the service degraded and answers 503.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.healthTimeout())
	defer cancel()

	healthy := true
	response := map[string]any{
		"status":  "healthy",
		"service": "resumeforge",
		"version": s.Version,
	}

	if s.deps.Assistant != nil {
		models := make(map[string]any)
		for op, info := range s.deps.Assistant.ModelHealth(ctx) {
			models[string(op)] = info
			if info == nil || !info.Available {
				healthy = false
			}
		}
		response["ai_models"] = models
		response["circuit_breakers"] = s.deps.Assistant.CircuitBreakerStats()
	}

	if s.deps.Store != nil {
		response["database"] = dependencyStatus(ctx, s.deps.Store, &healthy)
	}
	if s.deps.Cache != nil {
		response["cache"] = dependencyStatus(ctx, s.deps.Cache, &healthy)
	}

	status := http.StatusOK
	if !healthy {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}

func dependencyStatus(ctx context.Context, p Pinger, healthy *bool) map[string]any {
	if err := p.Ping(ctx); err != nil {
		*healthy = false
		return map[string]any{"available": false, "error": err.Error()}
	}
	return map[string]any{"available": true}
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "resumeforge",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
			"api_keys_configured":    len(s.APIKeys),
			"prompt_reload":          s.AppConfig.Server.WatchPrompts,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	if s.deps.Assistant != nil {
		response["circuit_breakers"] = s.deps.Assistant.CircuitBreakerStats()
	}

	writeJSON(w, http.StatusOK, response)
}
