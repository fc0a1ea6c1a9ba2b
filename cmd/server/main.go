package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/thauanfonseca/HDA/internal/config"
	"github.com/thauanfonseca/HDA/internal/core"
	"github.com/thauanfonseca/HDA/internal/logging"
	"github.com/thauanfonseca/HDA/internal/metrics"
	"github.com/thauanfonseca/HDA/internal/sheet"
	"github.com/thauanfonseca/HDA/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"max_file_size", cfg.Upload.MaxFileSize,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"metrics_enabled", cfg.Metrics.Enabled,
	)

	rules := core.DefaultRules()
	if cfg.Rules.PresetPath != "" {
		rules, err = core.LoadRules(cfg.Rules.PresetPath)
		if err != nil {
			slog.Error("failed to load rules preset", "path", cfg.Rules.PresetPath, "error", err)
			os.Exit(1)
		}
		slog.Info("rules preset loaded", "path", cfg.Rules.PresetPath)
	}

	decoder, err := core.NewConfigDecoder(rules)
	if err != nil {
		slog.Error("failed to build config decoder", "error", err)
		os.Exit(1)
	}

	var m *metrics.Metrics
	opts := core.ServiceOptions{
		Engine:      core.NewEngine(core.WithLogger(slog.Default())),
		Limiter:     core.NewJobLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		PreviewRows: cfg.Upload.PreviewRows,
		JobTimeout:  cfg.Upload.Timeout,
	}
	if cfg.Metrics.Enabled {
		m = metrics.New()
		opts.Recorder = m
	}

	service := core.NewService(sheet.Codec{}, decoder, opts)
	server := web.NewServer(service, cfg, m)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
