package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"croprec/internal/config"
	"croprec/internal/predict"
	"croprec/internal/server"
	"croprec/internal/training"
	"croprec/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Logger().Fatal("Invalid configuration", zap.Error(err))
	}
	logger := utils.NewLogger(cfg.LogFile)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := training.DefaultOptions()
	opts.Algo = cfg.Algo
	opts.Seed = cfg.Seed
	opts.Estimators = cfg.Estimators
	opts.MaxDepth = cfg.MaxDepth
	opts.Workers = cfg.Workers

	bundle, trained, err := training.LoadOrTrain(ctx, cfg.ModelPath, cfg.DatasetPath, opts, logger)
	if err != nil {
		logger.Fatal("Failed to initialize model", zap.Error(err))
	}
	svc, err := predict.New(bundle)
	if err != nil {
		logger.Fatal("Failed to initialize prediction service", zap.Error(err))
	}
	logger.Info("Model ready",
		zap.String("model", svc.ModelName()),
		zap.Bool("trained", trained),
		zap.Int("classes", len(svc.Classes())),
		zap.Float64("holdout_accuracy", svc.Metadata().Evaluation.Accuracy),
	)

	srvOpts := server.DefaultOptions()
	srvOpts.Addr = cfg.Addr()
	if err := server.New(svc, logger, srvOpts).Run(ctx); err != nil {
		logger.Fatal("Server error", zap.Error(err))
	}
	logger.Info("Server stopped")
}
