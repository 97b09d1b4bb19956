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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"

	"github.com/fieldsight/video-ingest/pkg/videoingest/api"
	"github.com/fieldsight/video-ingest/pkg/videoingest/config"
)

func main() {
	cfg, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, repo, err := cfg.BuildService(ctx)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		if cfg.Environment == "production" {
			slog.Error("JWT_SECRET is required in production")
			os.Exit(1)
		}
		// Development fallback: tokens do not survive restarts.
		jwtSecret = fmt.Sprintf("dev-only-%d", time.Now().UnixNano())
	}
	tokenAuth := jwtauth.New("HS256", []byte(jwtSecret), nil)

	ingestHandler := api.NewIngestHandler(svc)
	recordsHandler := api.NewRecordsHandler(repo, tokenAuth)
	authHandler := api.NewAuthHandler(repo, tokenAuth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Mount("/api/v1", ingestHandler.Routes())
	r.Mount("/api/v1/records", recordsHandler.Routes())
	r.Mount("/api/v1/auth", authHandler.Routes())

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	go func() {
		slog.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment,
			"database", cfg.DatabaseType, "storage", cfg.StorageType)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}
