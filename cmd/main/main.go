package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Houeta/buywise/internal/analysis"
	"github.com/Houeta/buywise/internal/bot"
	"github.com/Houeta/buywise/internal/catalog"
	"github.com/Houeta/buywise/internal/config"
	"github.com/Houeta/buywise/internal/httpapi"
	"github.com/Houeta/buywise/internal/identity"
	"github.com/Houeta/buywise/internal/repository/sqlite"
	"github.com/Houeta/buywise/internal/services/pipeline"
	"github.com/Houeta/buywise/internal/services/sweeper"
	"github.com/gin-gonic/gin"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const shutdownTimeout = 10 * time.Second

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	if err := os.MkdirAll(filepath.Dir(cfg.StoragePath), 0o750); err != nil {
		log.Fatalf("Failed to create storage directory: %v", err)
	}

	repo, err := sqlite.NewRepository(ctx, logger, cfg.StoragePath)
	if err != nil {
		log.Fatalf("Failed to init storage: %v", err)
	}
	defer repo.Close()

	// Price alerts are optional.
	var (
		notifier pipeline.Notifier
		alertBot *bot.Bot
	)
	if cfg.Tg.Token != "" {
		alertBot, err = bot.NewBot(logger, cfg.Tg.Token, cfg.Tg.Timeout, repo)
		if err != nil {
			log.Fatalf("Failed to init bot: %v", err)
		}
		notifier = alertBot
	} else {
		logger.WarnContext(ctx, "BW_TELEGRAM_TOKEN is empty, price alerts are disabled")
	}

	pipe := pipeline.New(
		logger,
		repo,
		catalog.NewFetcher(logger, cfg.Catalog),
		analysis.NewAdapter(logger, cfg.Scorer),
		notifier,
		cfg.Cache.TTL,
	)

	tokens := identity.TokenService{Secret: []byte(cfg.JWT.Secret), Issuer: cfg.JWT.Issuer}
	resolver := identity.NewResolver(logger, repo, identity.Chain(tokens)...)

	if cfg.Env != envLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httpapi.NewHandler(logger, pipe, repo, resolver, cfg.Cache.DirectTTL)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(logger, handler, tokens),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.", "addr", cfg.HTTPAddr)

	go sweeper.NewSweeper(logger, repo, cfg.Cache.SweepInterval).Run(ctx)

	if alertBot != nil {
		// Start the bot in a goroutine to allow main to listen for signals.
		go alertBot.Start()
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			stop()
		}
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.Info("Shutdown signal received. Stopping application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err = srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	// Stop the bot gracefully.
	if alertBot != nil {
		alertBot.Stop()
	}

	// Log graceful shutdown completion.
	logger.Info("Application stopped gracefully.")
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
