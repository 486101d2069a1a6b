// Package main is the entry point for the intercept content server.
// It loads configuration, connects to services, starts the scheduled
// publish sweeper, and runs the HTTP server with graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"intercept/internal/auth"
	"intercept/internal/cache"
	"intercept/internal/config"
	"intercept/internal/content"
	"intercept/internal/database"
	"intercept/internal/handlers"
	"intercept/internal/models"
	"intercept/internal/router"
	"intercept/internal/store"
	"intercept/internal/uploads"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed the default admin account (no-op if one already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// The upload directory must exist before the first request.
	files, err := uploads.New(cfg.UploadDir)
	if err != nil {
		slog.Error("failed to prepare upload directory", "error", err, "dir", cfg.UploadDir)
		os.Exit(1)
	}
	slog.Info("upload directory ready", "dir", files.Dir())

	// Valkey is optional — without it, list responses just skip the cache.
	var listCache *cache.ListCache
	if cfg.ValkeyHost != "" {
		var valkeyClient *redis.Client
		valkeyClient, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		listCache = cache.NewListCache(valkeyClient, cache.DefaultListTTL)
		slog.Info("valkey list cache connected", "host", cfg.ValkeyHost)
	} else {
		slog.Warn("valkey not configured, list caching disabled")
	}

	userStore := store.NewUserStore(db)
	contentStore := store.NewContentStore(db)
	activityStore := store.NewActivityStore(db)
	newsletterStore := store.NewNewsletterStore(db)
	reportStore := store.NewReportStore(db)
	resourceStore := store.NewResourceStore(db)
	commentStore := store.NewCommentStore(db)

	tokens := auth.New(cfg.JWTSecret, cfg.JWTTTL)
	contentService := content.NewService(contentStore, files, activityStore, userStore, listCache)

	sweeper := content.NewSweeper(contentStore, activityStore, listCache, cfg.SweepInterval)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	h := router.Handlers{
		Auth:       handlers.NewAuth(userStore, tokens, activityStore),
		Blogs:      handlers.NewContent(contentService, contentStore, listCache, models.ContentTypeBlog),
		Podcasts:   handlers.NewContent(contentService, contentStore, listCache, models.ContentTypePodcast),
		Comments:   handlers.NewComments(commentStore, contentStore, activityStore),
		Newsletter: handlers.NewNewsletter(newsletterStore, activityStore),
		Reports:    handlers.NewReports(reportStore, activityStore),
		Resources:  handlers.NewResources(resourceStore, activityStore),
		Users:      handlers.NewUsers(userStore, activityStore),
		Activities: handlers.NewActivities(activityStore),
		Health:     handlers.NewHealth(db, sweeper),
	}

	r := router.New(tokens, h, files.Dir())

	// WriteTimeout accommodates large audio uploads on slow links.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
