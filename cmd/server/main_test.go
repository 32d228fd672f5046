package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yovohub/hub/internal/config"
	"github.com/yovohub/hub/internal/handlers"
	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/models"
	"github.com/yovohub/hub/internal/services"
	"github.com/yovohub/hub/internal/storage"
	"github.com/yovohub/hub/internal/testutil"
)

type tokenValidator map[string]*models.User

func (v tokenValidator) ValidateSession(ctx context.Context, token string) (*models.User, error) {
	if u, ok := v[token]; ok {
		return u, nil
	}
	return nil, errors.New("invalid session")
}

// newTestRouter wires the real handlers over services with no database. Only
// requests that stop before reaching a service are safe to send.
func newTestRouter(t *testing.T, client *redis.Client, aiLimit int64, sessions tokenValidator) http.Handler {
	t.Helper()
	store := storage.NewMemoryStore()
	suggestions := services.NewSuggestionService(nil, nil)
	badges := services.NewBadgeService(nil)

	cfg := &config.Config{Server: config.ServerConfig{
		Environment:    "test",
		AllowedOrigins: []string{"https://app.yovohub.tg"},
	}}
	var logs bytes.Buffer
	return newRouter(routerDeps{
		cfg:    cfg,
		logger: logging.New().SetOutput(&logs),
		health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"storage": handlers.HealthCheckFunc(store.Ping),
		}),
		auth:         handlers.NewAuthHandler(services.NewUserService(nil), services.NewAuthService(nil, nil), services.NewEmailService(&config.EmailConfig{Provider: "console"}), store, false),
		missions:     handlers.NewMissionHandler(services.NewMissionService(nil)),
		ai:           handlers.NewAIHandler(suggestions),
		miniProjects: handlers.NewMiniProjectHandler(services.NewMiniProjectService(nil, store, suggestions, badges)),
		badges:       handlers.NewBadgeHandler(badges),
		sessions:     sessions,
		redis:        client,
		aiRateLimit:  aiLimit,
	})
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router := newTestRouter(t, nil, 10, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "alive", rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "status", "healthy")
}

func TestRouter_ProtectedRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, nil, 10, tokenValidator{})

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/me"},
		{http.MethodGet, "/api/user"},
		{http.MethodPut, "/api/profile"},
		{http.MethodGet, "/api/ai/assistant"},
		{http.MethodGet, "/api/ai/suggestions"},
		{http.MethodPost, "/api/ai/suggestions"},
		{http.MethodPost, "/api/ai/suggestions/00000000-0000-0000-0000-000000000001/accept"},
		{http.MethodPost, "/api/ai/suggestions/00000000-0000-0000-0000-000000000001/reject"},
		{http.MethodPost, "/api/mini-projects/generate"},
		{http.MethodGet, "/api/badges"},
		{http.MethodPost, "/api/quiz/results"},
		{http.MethodGet, "/api/my-missions"},
		{http.MethodGet, "/api/missions"},
		{http.MethodGet, "/api/missions/00000000-0000-0000-0000-000000000001"},
	}
	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(route.method, route.path, nil)
			router.ServeHTTP(rr, testutil.WithBearer(req, "unknown-token"))

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":"Authentication required"}`, rr.Body.String())
		})
	}
}

func TestRouter_AssistantWithBearerToken(t *testing.T) {
	user := testutil.NewUser(models.RoleYoung)
	router := newTestRouter(t, nil, 10, tokenValidator{"good": user})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, testutil.WithBearer(httptest.NewRequest(http.MethodGet, "/api/ai/assistant", nil), "good"))

	testutil.AssertStatusCode(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "status", "online")
}

func TestRouter_GenerationIsRateLimitedPerUser(t *testing.T) {
	_, client := testutil.NewRedis(t)
	ama, kofi := testutil.NewUser(models.RoleYoung), testutil.NewUser(models.RoleYoung)
	router := newTestRouter(t, client, 1, tokenValidator{"ama": ama, "kofi": kofi})

	generate := func(token string) *httptest.ResponseRecorder {
		// An out of range count is rejected by the handler after the limiter has counted it.
		req := httptest.NewRequest(http.MethodPost, "/api/ai/suggestions", strings.NewReader(`{"count":9}`))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, testutil.WithBearer(req, token))
		return rr
	}

	assert.Equal(t, http.StatusBadRequest, generate("ama").Code)
	rr := generate("ama")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusBadRequest, generate("kofi").Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(t, nil, 10, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/ai/suggestions", nil)
	req.Header.Set("Origin", "https://app.yovohub.tg")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.yovohub.tg", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_MalformedIDIsNotFound(t *testing.T) {
	user := testutil.NewUser(models.RoleYoung)
	router := newTestRouter(t, nil, 10, tokenValidator{"good": user})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/missions/not-a-uuid", nil)
	router.ServeHTTP(rr, testutil.WithBearer(req, "good"))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestResolveAIRateLimit(t *testing.T) {
	tests := []struct {
		name string
		env  string
		set  int64
		want int64
	}{
		{"production default", "production", 0, 10},
		{"development default", "development", 0, 100},
		{"override", "production", 25, 25},
		{"override in development", "development", 3, 3},
		{"negative ignored", "production", -4, 10},
	}

	var logs bytes.Buffer
	logger := logging.New().SetOutput(&logs)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{
				Server: config.ServerConfig{Environment: tt.env},
				AI:     config.AIConfig{RateLimit: tt.set},
			}
			require.Equal(t, tt.want, resolveAIRateLimit(cfg, logger))
		})
	}
	assert.Contains(t, logs.String(), "Invalid AI_RATE_LIMIT")
}

func TestOpenStore_MemoryFallback(t *testing.T) {
	var logs bytes.Buffer
	store, err := openStore(context.Background(), config.StorageConfig{}, logging.New().SetOutput(&logs))
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, store)
	assert.Contains(t, logs.String(), "STORAGE_ENDPOINT is not set")
}
