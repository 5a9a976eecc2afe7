package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/config"
	"github.com/Harshitk-cp/jungclaude/internal/domain"
	"github.com/Harshitk-cp/jungclaude/internal/llm"
	"github.com/Harshitk-cp/jungclaude/internal/store"
)

const (
	testAdmin  = "admin-1"
	testAPIKey = "s3cret"
)

type testApp struct {
	*App
	llm *llm.MockClient
}

func newTestApp(t *testing.T, mutate ...func(*Options)) *testApp {
	t.Helper()

	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "jung.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.DefaultRumination()
	cfg.AdminUserID = testAdmin
	mock := llm.NewMockClient()

	opts := Options{
		Rumination:     cfg,
		LLM:            mock,
		AdminAPIKey:    testAPIKey,
		RateLimitRPS:   100,
		RateLimitBurst: 100,
	}
	for _, m := range mutate {
		m(&opts)
	}

	app, err := NewApp(db, opts, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(app.Stop)
	return &testApp{App: app, llm: mock}
}

func (a *testApp) do(t *testing.T, method, path string, body any, key string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetrics_CountsRequests(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodGet, "/health", nil, "")
	app.do(t, http.MethodPost, "/admin/triggers/rumination", nil, "")

	rec := app.do(t, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[map[string]any](t, rec)
	assert.EqualValues(t, 3, m["request_count"])
	assert.EqualValues(t, 1, m["error_count"])
}

func TestAdminAuth(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + testAPIKey, http.StatusUnauthorized},
		{"wrong key", "Bearer nope", http.StatusUnauthorized},
		{"valid key", "Bearer " + testAPIKey, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/v1/agent-identity/chapters", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdminAuth_NoKeyConfigured(t *testing.T) {
	app := newTestApp(t, func(o *Options) { o.AdminAPIKey = "" })

	rec := app.do(t, http.MethodPost, "/admin/triggers/identity-bridge", nil, "anything")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTriggers(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{
		"/admin/triggers/rumination",
		"/admin/triggers/identity-consolidation",
		"/admin/triggers/identity-bridge",
		"/admin/agent-identity/consolidate",
	} {
		t.Run(path, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, path, nil, testAPIKey)
			require.Equal(t, http.StatusAccepted, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.Equal(t, "success", body["status"])
			assert.NotEmpty(t, body["message"])
		})
	}
}

func TestCreateConversation_Ingests(t *testing.T) {
	app := newTestApp(t)
	app.llm.ExtractFragmentsResponse = domain.Extracted([]domain.FragmentCandidate{
		{Type: "medo", Content: "fear of being replaced", EmotionalWeight: 0.8},
		{Type: "valor", Content: "too faint", EmotionalWeight: 0.1},
	})

	rec := app.do(t, http.MethodPost, "/v1/conversations", map[string]any{
		"user_id":       testAdmin,
		"user_input":    "What if you find someone better?",
		"ai_response":   "Say more.",
		"tension_level": 1.4,
		"platform":      "telegram",
	}, testAPIKey)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Conversation domain.Conversation `json:"conversation"`
		Ingest       struct {
			FragmentIDs []int64 `json:"fragment_ids"`
		} `json:"ingest"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotZero(t, body.Conversation.ID)
	assert.Len(t, body.Ingest.FragmentIDs, 1)
	require.Len(t, app.llm.ExtractFragmentsCalls, 1)
	assert.Equal(t, body.Conversation.ID, app.llm.ExtractFragmentsCalls[0].ID)

	stats := app.do(t, http.MethodGet, "/v1/rumination/stats", nil, testAPIKey)
	require.Equal(t, http.StatusOK, stats.Code)
	s := decode[domain.RuminationStats](t, stats)
	assert.Equal(t, 1, s.FragmentsTotal)
	assert.Equal(t, 1, s.FragmentsUnprocessed)
}

func TestCreateConversation_Validation(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing user", map[string]any{"user_input": "hi"}},
		{"empty input", map[string]any{"user_id": testAdmin, "user_input": "  "}},
		{"negative tension", map[string]any{"user_id": testAdmin, "user_input": "hi", "tension_level": -1}},
		{"reserved platform", map[string]any{"user_id": testAdmin, "user_input": "hi", "platform": "dream"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/v1/conversations", tt.body, testAPIKey)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
	assert.Empty(t, app.llm.ExtractFragmentsCalls)
}

func TestStats_NonAdminForbidden(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/rumination/stats?user_id=someone-else", nil, testAPIKey)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestChapters_EmptyList(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/v1/agent-identity/chapters", nil, testAPIKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"agent_instance":"jung_v1","chapters":[]}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, func(o *Options) {
		o.RateLimitRPS = 0.001
		o.RateLimitBurst = 1
	})

	first := app.do(t, http.MethodGet, "/v1/agent-identity/chapters", nil, testAPIKey)
	second := app.do(t, http.MethodGet, "/v1/agent-identity/chapters", nil, testAPIKey)

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))

	// health is not rate limited
	assert.Equal(t, http.StatusOK, app.do(t, http.MethodGet, "/health", nil, "").Code)
}

func TestNewApp_RejectsBadSchedule(t *testing.T) {
	db, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "jung.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = NewApp(db, Options{Rumination: config.DefaultRumination(), RuminationSchedule: "whenever"}, zap.NewNop())
	assert.Error(t, err)
}
