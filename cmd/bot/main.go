package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/app"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/config"
	"github.com/Freeeeeet/whatsapp_scheduler/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment)
	defer logger.Sync()

	logger.Info("Starting whatsapp scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("channel", cfg.Channel),
		zap.String("provider", cfg.Business.ProviderName),
		zap.Int("services", cfg.Business.Catalog().Len()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, service.ErrStartupConnection) {
			logger.Fatal("Storage unreachable at startup", zap.Error(err))
		}
		logger.Fatal("Failed to initialize app", zap.Error(err))
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		logger.Error("App exited with error", zap.Error(err))
	}
}
