package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"study-booster/api/internal/app"
	"study-booster/api/internal/config"
	"study-booster/api/internal/handle"
	"study-booster/api/internal/httpserver"
	"study-booster/api/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logger.New(cfg.LogLevel, cfg.LogJSON || cfg.IsProduction())

	if strings.TrimSpace(cfg.Port) == "" {
		cfg.Port = "8000"
	}

	a, err := app.Build(cfg)
	if err != nil {
		slog.Error("startup", "err", err)
		os.Exit(1)
	}

	h := handle.New(a.Pipeline, a.Analyzer, a.Engines).WithPromptFile(cfg.PromptFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return httpserver.Serve(gctx, ":"+cfg.Port, httpserver.NewHandler(h, a.Limiter))
	})

	if err := g.Wait(); err != nil {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
