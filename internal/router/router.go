package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"jobstatus-api/internal/config"
	"jobstatus-api/internal/handler"
	"jobstatus-api/internal/middleware"
)

// New wires the public routes. rdb may be nil, in which case rate limits are
// kept in process memory.
func New(
	cfg *config.Config,
	rdb *redis.Client,
	authMiddleware *middleware.AuthMiddleware,
	systemHandler *handler.SystemHandler,
	authHandler *handler.AuthHandler,
	jobsHandler *handler.JobsHandler,
) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, rdb)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/", systemHandler.Welcome)
	r.Get("/health", systemHandler.Health)
	r.Post("/login", authHandler.Login)

	r.Group(func(protected chi.Router) {
		protected.Use(authMiddleware.RequireToken)
		protected.Get("/jobs", jobsHandler.List)
		protected.Get("/job/{job_id}", jobsHandler.Get)
	})

	return r
}
