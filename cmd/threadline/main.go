package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/threadline-io/threadline/internal/auth"
	"github.com/threadline-io/threadline/internal/compose"
	"github.com/threadline-io/threadline/internal/config"
	"github.com/threadline-io/threadline/internal/database"
	"github.com/threadline-io/threadline/internal/inject"
	"github.com/threadline-io/threadline/internal/ratelimit"
	"github.com/threadline-io/threadline/internal/store/postgres"
	"github.com/threadline-io/threadline/internal/sweep"
	"github.com/threadline-io/threadline/internal/thread"
	"github.com/threadline-io/threadline/internal/web"
	"github.com/threadline-io/threadline/internal/web/handlers"
	"github.com/threadline-io/threadline/internal/web/render"
	"github.com/threadline-io/threadline/migrations"
	"github.com/threadline-io/threadline/static"
	"github.com/threadline-io/threadline/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Migrations
	if err := database.RunMigrations(migrations.FS, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Stores
	userStore := postgres.NewUserStore(db)
	sessionStore := postgres.NewSessionStore(db)
	contactStore := postgres.NewContactStore(db)
	threadStore := postgres.NewThreadStore(db)
	messageStore := postgres.NewMessageStore(db)

	// Services
	authService := auth.NewService(userStore, sessionStore, cfg.SessionMaxAge)
	threadService := thread.NewService(contactStore, threadStore, messageStore)
	assembler := compose.NewAssembler(cfg.BaseURL)
	injector := inject.NewInjector(threadService, assembler, inject.Options{
		Enabled:                cfg.Enabled,
		AutoThread:             cfg.AutoThread,
		InjectPreviousMessages: cfg.InjectPreviousMessages,
		IncludeUnsubscribeLink: cfg.IncludeUnsubscribeLink,
	}, slog.Default())

	// Rate limiter
	limiter := ratelimit.NewLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Renderer
	renderer := render.NewRenderer(templates.FS)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService, renderer, cfg.SecureCookies)
	threadHandler := handlers.NewThreadHandler(threadService, renderer, cfg.ThreadLifetimeDays, cfg.SecureCookies)
	publicHandler := handlers.NewPublicHandler(threadService, renderer)
	apiHandler := handlers.NewAPIHandler(injector)

	// Router
	router := web.NewRouter(web.RouterDeps{
		AuthHandler:   authHandler,
		ThreadHandler: threadHandler,
		PublicHandler: publicHandler,
		APIHandler:    apiHandler,
		AuthService:   authService,
		Limiter:       limiter,
		StaticFS:      static.FS,
	})

	// Expiration sweep
	sweeper, err := sweep.New(threadService, cfg.ThreadLifetimeDays, cfg.SweepSchedule, slog.Default())
	if err != nil {
		slog.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	sweeper.Start()
	defer sweeper.Stop()

	// Session cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionStore.DeleteExpiredSessions(context.Background()); err != nil {
				slog.Error("failed to clean up expired sessions", "error", err)
			}
		}
	}()

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("Threadline starting", "addr", addr, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
