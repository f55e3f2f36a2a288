package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"jobstatus-api/internal/config"
	"jobstatus-api/internal/database"
	"jobstatus-api/internal/handler"
	"jobstatus-api/internal/middleware"
	"jobstatus-api/internal/repository"
	"jobstatus-api/internal/router"
	"jobstatus-api/internal/service"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ctx := context.Background()
	db, err := database.Open(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready", "dialect", db.Dialect())

	cleanups := []func(){db.Close}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// The limiter fails open, so an unreachable Redis is not fatal.
			slog.Warn("redis not reachable, rate limiter will allow requests until it is", "addr", cfg.RedisAddr, "error", err)
		} else {
			slog.Info("rate limiting through redis", "addr", cfg.RedisAddr)
		}
		cleanups = append(cleanups, func() { _ = rdb.Close() })
	}

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewHandler(cfg, db, rdb),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{server: server, cleanupFuncs: cleanups}, nil
}

// NewHandler builds the full HTTP stack on top of an open store.
func NewHandler(cfg *config.Config, db *database.DB, rdb *redis.Client) http.Handler {
	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewTokenRepository(db, nil)
	jobRepo := repository.NewJobRepository(db)

	tokenService := service.NewTokenService(tokenRepo, service.TokenConfig{
		LifetimeHours: cfg.TokenLifetimeHours,
		Bytes:         cfg.TokenBytes,
	})
	authService := service.NewAuthService(userRepo, tokenService, service.NewPasswordHasher(cfg.BcryptCost))
	jobService := service.NewJobService(jobRepo)

	return router.New(
		cfg,
		rdb,
		middleware.NewAuthMiddleware(tokenService),
		handler.NewSystemHandler(db),
		handler.NewAuthHandler(authService),
		handler.NewJobsHandler(jobService),
	)
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
