package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/reshetovitsme/x-telegram-relay/internal/di"
	submissionService "github.com/reshetovitsme/x-telegram-relay/internal/modules/submission/service"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/config"
	httpServer "github.com/reshetovitsme/x-telegram-relay/internal/transport/http"
	telegramTransport "github.com/reshetovitsme/x-telegram-relay/internal/transport/telegram"
	"github.com/samber/do/v2"
	slogmulti "github.com/samber/slog-multi"
)

func main() {
	// Info level until the configured level is known
	slog.SetDefault(newLogger(slog.LevelInfo))

	// Setup dependency injection
	injector, err := di.Setup()
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		os.Exit(1)
	}

	cfg, err := do.Invoke[*config.Config](injector)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(newLogger(cfg.SlogLevel()))

	// Resolves the monitored account and registers bot commands
	if _, err := do.Invoke[*telegramTransport.Handler](injector); err != nil {
		slog.Error("Failed to initialize bot", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	b := do.MustInvoke[*bot.Bot](injector)
	submissions := do.MustInvoke[*submissionService.Service](injector)
	server := do.MustInvoke[*httpServer.Server](injector)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the submission consumer and bot polling
	submissions.Start()
	go b.Start(ctx)

	// Start HTTP server
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("Failed to start HTTP server", "error", err)
			cancel()
		}
	}()

	slog.Info("Application started", "account", cfg.TwitterUsername, "port", cfg.HTTPPort, "env", cfg.AppEnv)
	slog.Info("Press Ctrl+C to stop")

	<-ctx.Done()
	slog.Info("Shutting down...")
}

// newLogger fans out to a text handler on stdout and a JSON error handler on stderr
func newLogger(level slog.Level) *slog.Logger {
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	jsonHandler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})
	return slog.New(slogmulti.Fanout(textHandler, jsonHandler))
}
