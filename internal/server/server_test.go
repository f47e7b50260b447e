package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"resumeforge/internal/ai"
	"resumeforge/internal/auth"
	"resumeforge/internal/config"
	resumeforgeErrors "resumeforge/internal/errors"
	"resumeforge/internal/store"
	"resumeforge/internal/types"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeAssistant struct {
	err       error
	cached    bool
	available bool
	gotGaps   []string
}

func (f *fakeAssistant) AnalyzeWithUsage(_ context.Context, input types.AnalyzeInput) (types.AnalysisResult, *ai.TokenUsage, bool, error) {
	if f.err != nil {
		return types.AnalysisResult{}, nil, false, f.err
	}
	return types.AnalysisResult{
		ATSScore: 72,
		Feedback: types.Feedback{KeywordGaps: []string{"Kubernetes"}},
	}, &ai.TokenUsage{InputTokens: 10, OutputTokens: 4, TotalTokens: 14}, f.cached, nil
}

func (f *fakeAssistant) RecommendTemplate(context.Context, string, string) (types.TemplateRecommendation, error) {
	return types.TemplateRecommendation{BestTemplateType: "Hybrid/Combination"}, f.err
}

func (f *fakeAssistant) GenerateInitialDraft(_ context.Context, input types.InitialDraftInput) (string, error) {
	return "draft for " + input.JobDescription, f.err
}

func (f *fakeAssistant) RefineSection(context.Context, string, string) (types.SectionRefinement, error) {
	return types.SectionRefinement{SectionTitle: "Experience"}, f.err
}

func (f *fakeAssistant) SuggestSkillBullets(_ context.Context, _, _ string, gaps []string) ([]types.SkillSuggestion, error) {
	f.gotGaps = gaps
	if f.err != nil {
		return nil, f.err
	}
	return []types.SkillSuggestion{{Skill: gaps[0], Bullet: "Ran " + gaps[0] + " in production"}}, nil
}

func (f *fakeAssistant) GenerateBullets(_ context.Context, jobTitle, _ string) (types.BulletPointsOutput, error) {
	return types.BulletPointsOutput{JobTitle: jobTitle, GeneratedBullets: []string{"a", "b", "c"}}, f.err
}

func (f *fakeAssistant) ModelHealth(context.Context) map[config.Operation]*ai.ModelInfo {
	return map[config.Operation]*ai.ModelInfo{
		config.OperationAnalyze: {Name: "test-model", Provider: "fake", Available: f.available},
	}
}

func (f *fakeAssistant) CircuitBreakerStats() map[string]any {
	return map[string]any{"analyze": map[string]any{"state": "closed"}}
}

type fakeStore struct {
	mu       sync.Mutex
	users    map[string]*store.User
	entries  map[int64]fakeEntry
	nextID   int64
	pingErr  error
	saveErr  error
	lastSave types.SaveAnalysisRequest
}

type fakeEntry struct {
	owner uuid.UUID
	entry types.HistoryEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*store.User{}, entries: map[int64]fakeEntry{}}
}

func (f *fakeStore) CreateUser(_ context.Context, username, email, hash string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email || u.Username == username {
			return nil, resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeConflict, "duplicate", nil)
		}
	}
	u := &store.User{ID: uuid.New(), Username: username, Email: email, PasswordHash: hash, CreatedAt: time.Now()}
	f.users[email] = u
	return u, nil
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (*store.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[email]; ok {
		return u, nil
	}
	return nil, resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeNotFound, "user not found", nil)
}

func (f *fakeStore) SaveAnalysis(_ context.Context, userID uuid.UUID, req types.SaveAnalysisRequest) (int64, error) {
	if f.saveErr != nil {
		return 0, f.saveErr
	}
	a, err := store.NewAnalysis(req)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.lastSave = req
	f.entries[f.nextID] = fakeEntry{owner: userID, entry: types.HistoryEntry{
		ID:             f.nextID,
		CreatedAt:      time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		TargetJobTitle: a.TargetJobTitle,
		ATSScore:       a.ATSScore,
		ResumeText:     a.ResumeText,
		JobDescription: a.JobDescription,
		AnalysisJSON:   a.AnalysisJSON,
	}}
	return f.nextID, nil
}

func (f *fakeStore) ListAnalyses(_ context.Context, userID uuid.UUID) ([]types.HistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []types.HistoryEntry
	for id := f.nextID; id > 0; id-- {
		if e, ok := f.entries[id]; ok && e.owner == userID {
			out = append(out, e.entry)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteAnalysis(_ context.Context, userID uuid.UUID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[id]
	if !ok || e.owner != userID {
		return resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeNotFound, "analysis not found", nil)
	}
	delete(f.entries, id)
	return nil
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

type testEnv struct {
	server    *Server
	handler   http.Handler
	assistant *fakeAssistant
	store     *fakeStore
	tokens    *auth.TokenService
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.App.MaxFileSize = 64 * 1024
	cfg.Auth = config.AuthConfig{JWTSecret: "test-secret", Issuer: "resumeforge-test"}
	if mutate != nil {
		mutate(cfg)
	}

	tokens, err := auth.NewTokenService(cfg.Auth)
	require.NoError(t, err)

	assistant := &fakeAssistant{available: true}
	st := newFakeStore()
	srv := NewServer(cfg, "test", Deps{
		Assistant: assistant,
		Store:     st,
		Tokens:    tokens,
		Passwords: auth.NewPasswordHasher(bcrypt.MinCost),
	}, nil)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, handler: srv.Handler(), assistant: assistant, store: st, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAIEndpointValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name    string
		path    string
		body    any
		message string
	}{
		{"analyze missing jd", "/analyze_resume", map[string]string{"resume": "r"}, "Both resume and job description are required."},
		{"analyze blank resume", "/analyze_resume", map[string]string{"resume": "  ", "job_description": "jd"}, "Both resume and job description are required."},
		{"templates missing resume", "/recommend_template", map[string]string{"job_description": "jd"}, "Both resume and job description are required."},
		{"bullets missing task", "/generate_bullet_points", map[string]string{"job_title": "SRE"}, "Both job title and task description are required."},
		{"skills without gaps", "/suggest_skill_bullets", map[string]any{"resume": "r", "job_description": "jd", "keyword_gaps": []string{}}, "Resume, job description, and keyword gaps are required for targeted suggestions."},
		{"draft without analysis", "/generate_initial_draft", map[string]string{"resume": "r", "job_description": "jd"}, "Resume, JD, and Analysis are required."},
		{"refine missing section", "/refine_section", map[string]string{"job_description": "jd"}, "Section text and job description are required."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, decodeError(t, rec).Error)
		})
	}
}

func TestAIEndpointsSucceed(t *testing.T) {
	env := newTestEnv(t, nil)
	analysis := map[string]any{"ats_score": 72, "feedback": map[string]any{}}

	t.Run("analyze", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/analyze_resume", map[string]string{"resume": "r", "job_description": "jd"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var result types.AnalysisResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, 72, result.ATSScore)
		assert.Equal(t, []string{"Kubernetes"}, result.Feedback.KeywordGaps)
	})

	t.Run("draft", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/generate_initial_draft",
			map[string]any{"resume": "r", "job_description": "platform", "analysis_result": analysis}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"modified_draft":"draft for platform"}`, rec.Body.String())
	})

	t.Run("skills wraps suggestions", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/suggest_skill_bullets",
			map[string]any{"resume": "r", "job_description": "jd", "keyword_gaps": []string{"Go"}}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var out types.SkillGapOutput
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Suggestions, 1)
		assert.Equal(t, "Go", out.Suggestions[0].Skill)
		assert.Equal(t, []string{"Go"}, env.assistant.gotGaps)
	})

	t.Run("refine returns empty rewrites", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/refine_section",
			map[string]string{"section_text": "Did things", "job_description": "jd"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"section_title":"Experience","suggested_rewrites":[]}`, rec.Body.String())
	})

	t.Run("bullets", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/generate_bullet_points",
			map[string]string{"job_title": "SRE", "task_description": "on-call"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"generated_bullets":["a","b","c"]`)
	})
}

func TestAIErrorIsServerError(t *testing.T) {
	env := newTestEnv(t, nil)
	env.assistant.err = resumeforgeErrors.NewAIError(resumeforgeErrors.ErrCodeAIServiceFailed, "model unavailable", nil)

	rec := env.do(t, http.MethodPost, "/analyze_resume", map[string]string{"resume": "r", "job_description": "jd"}, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "AI Server Error: model unavailable", decodeError(t, rec).Error)
}

func TestRequestParsing(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.App.MaxFileSize = 32 })

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/analyze_resume", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "content-type")
	})

	t.Run("malformed json", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/analyze_resume", `{"resume":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request body", decodeError(t, rec).Error)
	})

	t.Run("body too large", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/analyze_resume",
			map[string]string{"resume": strings.Repeat("x", 64), "job_description": "jd"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec).Message, "too large")
	})

	t.Run("method not allowed", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/analyze_resume", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})

	t.Run("request id", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/stats", nil, map[string]string{RequestIDHeader: "req-1"})
		assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))

		rec = env.do(t, http.MethodGet, "/stats", nil, nil)
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	})
}

func TestAPIKeyMiddleware(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.Server.APIKeys = []string{"key-123456789"} })
	body := map[string]string{"resume": "r", "job_description": "jd"}

	rec := env.do(t, http.MethodPost, "/analyze_resume", body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Missing API key", decodeError(t, rec).Error)

	rec = env.do(t, http.MethodPost, "/analyze_resume", body, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid API key", decodeError(t, rec).Error)

	rec = env.do(t, http.MethodPost, "/analyze_resume", body, map[string]string{"X-API-Key": "key-123456789"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// account endpoints do not require the key
	rec = env.do(t, http.MethodPost, "/signin", map[string]string{"email": "a@b.co", "password": "x"}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password.", decodeError(t, rec).Error)
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true}
	})
	body := map[string]string{"resume": "r", "job_description": "jd"}

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/analyze_resume", body, nil).Code)
	rec := env.do(t, http.MethodPost, "/analyze_resume", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", decodeError(t, rec).Error)

	// a different client has its own bucket
	rec = env.do(t, http.MethodPost, "/analyze_resume", body, map[string]string{"X-Forwarded-For": "203.0.113.9"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRateLimitKey(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		byAPIKey bool
		byIP     bool
		want     string
	}{
		{"api key preferred", map[string]string{"X-API-Key": "k"}, true, true, "api:k"},
		{"falls back to ip", nil, true, true, "ip:192.0.2.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "bogus, 198.51.100.7"}, false, true, "ip:198.51.100.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.8"}, false, true, "ip:198.51.100.8"},
		{"disabled", map[string]string{"X-API-Key": "k"}, false, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getRateLimitKey(req, tt.byAPIKey, tt.byIP))
		})
	}
}

func signup(t *testing.T, env *testEnv, username, email string) types.AuthResponse {
	t.Helper()
	rec := env.do(t, http.MethodPost, "/signup",
		map[string]string{"username": username, "email": email, "password": "correct horse"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp types.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSignupAndSignin(t *testing.T) {
	env := newTestEnv(t, nil)

	created := signup(t, env, "ada", "Ada@Example.com")
	assert.Equal(t, "User created successfully.", created.Message)
	assert.Equal(t, "ada", created.Username)

	claims, err := env.tokens.Verify(created.Token)
	require.NoError(t, err)
	assert.Equal(t, created.UserID, claims.Subject)

	t.Run("duplicate", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/signup",
			map[string]string{"username": "ada2", "email": "ada@example.com", "password": "correct horse"}, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "Username or Email already exists.", decodeError(t, rec).Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/signup", map[string]string{"username": "bob"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing username, email, or password.", decodeError(t, rec).Error)
	})

	tests := []struct {
		name     string
		email    string
		password string
		status   int
		message  string
	}{
		{"valid", "ADA@example.com", "correct horse", http.StatusOK, "Sign in successful."},
		{"wrong password", "ada@example.com", "battery staple", http.StatusUnauthorized, "Invalid email or password."},
		{"unknown email", "nobody@example.com", "correct horse", http.StatusUnauthorized, "Invalid email or password."},
		{"missing password", "ada@example.com", "", http.StatusBadRequest, "Missing email or password."},
	}
	for _, tt := range tests {
		t.Run("signin "+tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/signin", map[string]string{"email": tt.email, "password": tt.password}, nil)
			require.Equal(t, tt.status, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.message, body["message"])
				assert.Equal(t, created.UserID, body["user_id"])
				assert.NotEmpty(t, body["token"])
			} else {
				assert.Equal(t, tt.message, body["error"])
			}
		})
	}
}

func TestHistoryEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := signup(t, env, "alice", "alice@example.com")
	bob := signup(t, env, "bob", "bob@example.com")

	analysis := map[string]any{
		"ats_score": 64,
		"feedback": map[string]any{
			"keyword_gaps":         []string{"Terraform"},
			"keyword_strengths":    []string{},
			"content_improvements": []any{},
			"formatting_advice":    []any{},
		},
	}

	t.Run("requires token", func(t *testing.T) {
		cases := map[string]string{
			"/save_analysis":   "Authentication required to save data.",
			"/get_history":     "Authentication required to view history.",
			"/delete_analysis": "Authentication required to delete drafts.",
		}
		for path, message := range cases {
			rec := env.do(t, http.MethodPost, path, map[string]any{}, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
			assert.Equal(t, message, decodeError(t, rec).Error, path)

			rec = env.do(t, http.MethodPost, path, map[string]any{}, bearer("not-a-token"))
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		}
	})

	t.Run("save requires analysis", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/save_analysis", map[string]any{"resume_text": "r"}, bearer(alice.Token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Missing analysis results to save.", decodeError(t, rec).Error)
	})

	var savedID int64
	t.Run("save", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/save_analysis", map[string]any{
			"resume_text":     "resume",
			"job_description": "Platform Engineer",
			"analysis_result": analysis,
		}, bearer(alice.Token))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp types.SaveAnalysisResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Analysis saved successfully!", resp.Message)
		assert.Positive(t, resp.ID)
		savedID = resp.ID
	})

	t.Run("history is per user", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/get_history", map[string]any{}, bearer(alice.Token))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp types.HistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.History, 1)
		assert.Equal(t, types.DefaultAnalysisTitle, resp.History[0].TargetJobTitle)
		assert.Equal(t, 64, resp.History[0].ATSScore)
		assert.Contains(t, rec.Body.String(), `"created_at":"2026-03-01 09:30:00"`)

		rec = env.do(t, http.MethodPost, "/get_history", map[string]any{}, bearer(bob.Token))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"history":[]}`, rec.Body.String())
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/delete_analysis", map[string]any{}, bearer(alice.Token))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Draft ID is required.", decodeError(t, rec).Error)

		rec = env.do(t, http.MethodPost, "/delete_analysis", map[string]any{"draft_id": savedID}, bearer(bob.Token))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Draft not found or unauthorized.", decodeError(t, rec).Error)

		rec = env.do(t, http.MethodPost, "/delete_analysis", map[string]any{"draft_id": savedID}, bearer(alice.Token))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message":"Draft deleted successfully!"}`, rec.Body.String())

		rec = env.do(t, http.MethodPost, "/delete_analysis", map[string]any{"draft_id": savedID}, bearer(alice.Token))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("storage failure", func(t *testing.T) {
		env.store.saveErr = resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeStorageFailed, "db down", nil)
		defer func() { env.store.saveErr = nil }()

		rec := env.do(t, http.MethodPost, "/save_analysis", map[string]any{"analysis_result": analysis}, bearer(alice.Token))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHealthAndStats(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Contains(t, health, "database")

	env.store.pingErr = resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeStorageFailed, "db down", nil)
	rec = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)

	env.store.pingErr = nil
	env.assistant.available = false
	rec = env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = env.do(t, http.MethodGet, "/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stats map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
	server := stats["server"].(map[string]any)
	assert.Equal(t, float64(64*1024), server["max_request_size_bytes"])
}

func TestLimiterManager(t *testing.T) {
	m := NewLimiterManager(60, 2, resumeforgeErrors.NewNopLogger())
	defer m.Close()

	assert.True(t, m.Allow("a"))
	assert.True(t, m.Allow("a"))
	assert.False(t, m.Allow("a"))
	assert.True(t, m.Allow("b"))

	assert.Equal(t, 2, m.GetStats()["active_limiters"])
	m.cleanup(0)
	assert.Equal(t, 0, m.GetStats()["active_limiters"])

	m.Close() // second close is a no-op
}
