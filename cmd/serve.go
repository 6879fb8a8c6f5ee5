package cmd

import (
	"context"

	"github.com/illarion/dehook/internal/config"
	"github.com/illarion/dehook/internal/daemon"
	"github.com/illarion/dehook/internal/logger"
	"go.uber.org/zap"
)

// Serve runs the settings daemon until ctx is cancelled
func Serve(ctx context.Context, configPath, addr, logLevel string) {
	cfg, err := config.Load(configPath)
	if err != nil {
		HandleError(err)
	}
	if addr != "" {
		cfg.Listen = addr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logger.New()
	if err := log.Init(cfg.LogLevel); err != nil {
		HandleError(err)
	}
	defer func() { _ = log.Log.Sync() }()

	d, err := daemon.New(ctx, cfg, log.Log)
	if err != nil {
		HandleError(err)
	}

	log.Log.Info("dehook daemon starting",
		zap.String("listen", cfg.Listen),
		zap.String("driver", cfg.Storage.Driver))

	runErr := d.Run(ctx)
	if err := d.Close(); err != nil {
		log.Log.Error("shutdown failed", zap.Error(err))
	}
	if runErr != nil {
		HandleError(runErr)
	}
	log.Log.Info("dehook daemon stopped")
}
