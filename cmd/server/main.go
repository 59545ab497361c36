// Command server runs the tasks API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/app"
	"github.com/cjuarezoax-byte/hello-api-mas/internal/config"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		slog.Error("tasks api exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(app.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)
	log.Info("starting tasks api",
		slog.String("environment", cfg.Environment),
		slog.Int("http_port", cfg.HTTPPort),
		slog.String("store", cfg.StoreDriver),
		slog.Bool("strict_secrets", cfg.Secrets.Strict),
	)

	a, err := app.NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	if err := a.Run(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	log.Info("tasks api stopped")
	return nil
}
