package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	intentsweeper "github.com/cinexnema-cyber/teste-0101-sub001/internal/app/intent-sweeper"
	"github.com/cinexnema-cyber/teste-0101-sub001/internal/config"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting intent-sweeper", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := intentsweeper.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize intent-sweeper", slog.Any("err", err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("intent-sweeper stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("intent-sweeper stopped gracefully")
}
