package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/clarus/internal/advisor"
	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/backup"
	"github.com/dukerupert/clarus/internal/config"
	"github.com/dukerupert/clarus/internal/database"
	"github.com/dukerupert/clarus/internal/gemini"
	"github.com/dukerupert/clarus/internal/logging"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/server"
	"github.com/dukerupert/clarus/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	medium := store.NewSQLiteMedium(db)
	st := store.New(medium, logger.With("component", "store"))

	client := gemini.New(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	})
	if !client.Configured() {
		logger.Warn("GEMINI_API_KEY not set, model features will return fallback text")
	}
	adv := advisor.New(client, advisor.Config{
		ChatModel:   cfg.Gemini.ChatModel,
		FastModel:   cfg.Gemini.FastModel,
		SpeechModel: cfg.Gemini.SpeechModel,
		MissingRisk: model.Risk(cfg.MissingRisk),
	}, logger.With("component", "advisor"))

	sessions := auth.NewSessions(medium, model.User{
		ID:    cfg.MockUser.ID,
		Name:  cfg.MockUser.Name,
		Email: cfg.MockUser.Email,
	}, auth.DefaultSessionTTL)

	backupCfg := backup.Config{
		S3: backup.S3Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
		},
		Keep: cfg.BackupKeep,
	}
	if !cfg.BackupEnabled() {
		logger.Info("backups disabled, S3 credentials not configured")
	}

	srv := server.New(st, sessions, adv, backupCfg, cfg.AllowedOrigins, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Gemini.Timeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := sessions.DeleteExpired(); err != nil {
					slog.Error("cleanup expired sessions", "error", err)
				} else if n > 0 {
					slog.Info("cleaned up expired sessions", "count", n)
				}
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		slog.Info("clarus starting", "addr", ":"+cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
