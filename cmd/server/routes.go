package main

import (
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yovohub/hub/internal/config"
	"github.com/yovohub/hub/internal/handlers"
	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/middleware"
)

const authRateLimit = 20

type routerDeps struct {
	cfg    *config.Config
	logger *logging.Logger

	health       *handlers.HealthHandler
	auth         *handlers.AuthHandler
	missions     *handlers.MissionHandler
	ai           *handlers.AIHandler
	miniProjects *handlers.MiniProjectHandler
	badges       *handlers.BadgeHandler

	sessions    middleware.SessionValidator
	redis       *redis.Client
	aiRateLimit int64
}

func newRouter(d routerDeps) http.Handler {
	authMiddleware := middleware.NewAuthMiddleware(d.sessions)
	requireAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(h)
	}

	// Credential endpoints are limited per client IP and fail open; generation is
	// limited per user and refused when Redis cannot count.
	authLimiter := middleware.NewRateLimiter(d.redis, authRateLimit, time.Minute, "ratelimit:auth:", middleware.IPKey, false)
	aiLimiter := middleware.NewRateLimiter(d.redis, d.aiRateLimit, time.Hour, "ratelimit:ai:", middleware.UserKey, true)
	limitAuth := func(h http.HandlerFunc) http.Handler {
		return authLimiter.Middleware(h)
	}
	limitAI := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(aiLimiter.Middleware(h))
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", d.health.Health)
	mux.HandleFunc("GET /ready", d.health.Ready)
	mux.HandleFunc("GET /live", d.health.Live)

	mux.Handle("POST /api/register", limitAuth(d.auth.Register))
	mux.Handle("POST /api/login", limitAuth(d.auth.Login))
	mux.Handle("POST /api/forgot-password", limitAuth(d.auth.ForgotPassword))
	mux.Handle("POST /api/reset-password", limitAuth(d.auth.ResetPassword))

	mux.Handle("POST /api/logout", requireAuth(d.auth.Logout))
	mux.Handle("GET /api/me", requireAuth(d.auth.Me))
	mux.Handle("GET /api/user", requireAuth(d.auth.Me))
	mux.Handle("PUT /api/profile", requireAuth(d.auth.UpdateProfile))
	mux.Handle("POST /api/profile/photo/upload", requireAuth(d.auth.UploadPhoto))
	mux.Handle("POST /api/profile/photo/capture", requireAuth(d.auth.CapturePhoto))

	mux.Handle("GET /api/missions", requireAuth(d.missions.List))
	mux.Handle("GET /api/missions/{id}", requireAuth(d.missions.Get))
	mux.Handle("POST /api/missions", requireAuth(d.missions.Create))
	mux.Handle("POST /api/missions/{id}/apply", requireAuth(d.missions.Apply))
	mux.Handle("GET /api/my-missions", requireAuth(d.missions.ListMine))

	mux.Handle("GET /api/ai/assistant", requireAuth(d.ai.Assistant))
	mux.Handle("GET /api/ai/suggestions", requireAuth(d.ai.ListSuggestions))
	mux.Handle("POST /api/ai/suggestions", limitAI(d.ai.GenerateSuggestions))
	mux.Handle("POST /api/ai/suggestions/{id}/accept", requireAuth(d.ai.AcceptSuggestion))
	mux.Handle("POST /api/ai/suggestions/{id}/reject", requireAuth(d.ai.RejectSuggestion))

	mux.Handle("GET /api/mini-projects", requireAuth(d.miniProjects.List))
	mux.Handle("POST /api/mini-projects", requireAuth(d.miniProjects.Create))
	mux.Handle("POST /api/mini-projects/generate", limitAI(d.miniProjects.Generate))
	mux.Handle("GET /api/mini-projects/{id}", requireAuth(d.miniProjects.Get))
	mux.Handle("DELETE /api/mini-projects/{id}", requireAuth(d.miniProjects.Delete))
	mux.Handle("POST /api/mini-projects/{id}/accept", requireAuth(d.miniProjects.Accept))
	mux.Handle("POST /api/mini-projects/{id}/submit", requireAuth(d.miniProjects.Submit))
	mux.Handle("POST /api/mini-projects/{id}/review", requireAuth(d.miniProjects.Review))

	mux.Handle("GET /api/badges", requireAuth(d.badges.List))
	mux.Handle("POST /api/quiz/results", requireAuth(d.badges.RecordQuizResult))

	// Build middleware chain (order matters: outermost last)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = middleware.NewCompress().Apply(handler)
	handler = middleware.NewCORS(d.cfg.Server.AllowedOrigins).Apply(handler)
	handler = middleware.NewSecurityHeaders(d.cfg.Server.Environment == "production").Apply(handler)
	handler = middleware.Recover(handler)
	handler = middleware.NewRequestLogger(d.logger).Apply(handler)
	return handler
}
