package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ChrisThompsonK/team2-job-app-backend/internal/application"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/auth"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/config"
	appctx "github.com/ChrisThompsonK/team2-job-app-backend/internal/context"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/health"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/idcodec"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/jobrole"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/logger"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/metrics"
	appmw "github.com/ChrisThompsonK/team2-job-app-backend/internal/middleware"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/repository"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/sanitizer"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/storage"
	"github.com/ChrisThompsonK/team2-job-app-backend/internal/validation"
)

// Version is set at build time
var Version = "dev"

func main() {
	cfg := config.Load()

	log := logger.New(logger.DefaultConfig())
	slog.SetDefault(log)

	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("failed to open database", "path", cfg.Database.Path, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := repository.Migrate(db); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	codec, err := idcodec.New()
	if err != nil {
		log.Error("failed to initialize id codec", "error", err)
		os.Exit(1)
	}

	// Repositories
	accountRepo := repository.NewAccountRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	roleRepo := repository.NewJobRoleRepository(db)
	appRepo := repository.NewApplicationRepository(db)

	// Shared services
	validator := validation.New()
	contentSanitizer := sanitizer.New()

	var storageService *storage.StorageService
	if cfg.Storage.Enabled {
		storageService, err = storage.NewStorageService(&cfg.Storage)
		if err != nil {
			log.Error("failed to initialize object storage", "error", err)
			os.Exit(1)
		}
	} else {
		log.Warn("object storage not configured, CV uploads disabled")
	}

	// Auth
	sessionService := auth.NewSessionService(sessionRepo, cfg.Session.TTL, log)
	passwordValidator := auth.NewPasswordValidator()
	authService := auth.NewAuthService(accountRepo, sessionService, passwordValidator, validator, codec, log)
	authHandler := auth.NewAuthHandler(authService, auth.CookieConfig{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.Secure,
	})

	// Features
	roleService := jobrole.NewService(roleRepo, validator, contentSanitizer, codec, log)
	roleHandler := jobrole.NewHandler(roleService)

	appService := application.NewService(appRepo, roleRepo, storageService, validator, contentSanitizer, codec, log)
	appHandler := application.NewHandler(appService)

	healthHandler := health.NewHandler(health.Config{
		DB:      db,
		Version: Version,
	})

	// Middleware
	sessionMiddleware := appmw.NewSessionMiddleware(sessionService, cfg.Session.CookieName)
	attemptStore := appmw.NewMemoryAttemptStore(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow)
	loginLimiter := appmw.NewLoginRateLimiter(attemptStore, cfg.RateLimit.LoginAttempts)

	// Background jobs
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	sessionService.StartSweeper(sweepCtx, cfg.Session.SweepInterval)

	dbStats := metrics.NewDBStatsCollector(db.DB, log)
	dbStats.Start(30 * time.Second)
	defer dbStats.Stop()

	// Router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(appmw.StructuredLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", healthHandler.Health)
	r.Get("/health/ready", healthHandler.Readiness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		auth.RegisterRoutes(r, authHandler, sessionMiddleware.RequireSession, loginLimiter.Limit)
		jobrole.RegisterRoutes(r, roleHandler, sessionMiddleware.RequireRole(appctx.RoleAdmin))
		application.RegisterRoutes(r, appHandler,
			sessionMiddleware.OptionalSession,
			sessionMiddleware.RequireSession,
			sessionMiddleware.RequireRole(appctx.RoleAdmin),
		)
	})

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("starting server", "addr", addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	healthHandler.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("server exited")
}
