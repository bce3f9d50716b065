package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"croprec/internal/config"
	"croprec/internal/data"
	"croprec/internal/report"
	"croprec/internal/store"
	"croprec/internal/training"
	"croprec/pkg/utils"
)

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	def := config.Default()
	cmd := &cli.Command{
		Name:  "trainer",
		Usage: "train and persist the crop recommendation model",
		Commands: []*cli.Command{
			{
				Name:  "train",
				Usage: "fit a classifier on a labeled CSV and write the artifact",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Value: def.DatasetPath, Usage: "labeled crop CSV"},
					&cli.StringFlag{Name: "out", Value: def.ModelPath, Usage: "artifact path"},
					&cli.Int64Flag{Name: "seed", Value: def.Seed, Usage: "split and forest seed"},
					&cli.IntFlag{Name: "estimators", Value: def.Estimators, Usage: "trees in the ensemble"},
					&cli.IntFlag{Name: "max-depth", Value: 0, Usage: "maximum tree depth, 0 for unlimited"},
					&cli.StringFlag{Name: "algo", Value: def.Algo, Usage: "rf|bagging|dt"},
					&cli.IntFlag{Name: "synthetic", Usage: "generate this many synthetic rows into --data first"},
					&cli.StringFlag{Name: "importance-png", Usage: "write a feature importance chart"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return train(ctx, cmd, logger)
				},
			},
			{
				Name:  "generate",
				Usage: "write a synthetic crop CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "data/synthetic_crops.csv", Usage: "output CSV"},
					&cli.IntFlag{Name: "n", Value: 2200, Usage: "number of rows"},
					&cli.Int64Flag{Name: "seed", Value: def.Seed, Usage: "generator seed"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					out := cmd.String("out")
					n := cmd.Int("n")
					logger.Info("Generating synthetic dataset", zap.Int("n", n), zap.String("out", out))
					return data.GenerateSyntheticCrops(n, cmd.Int64("seed"), out)
				},
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("Trainer failed", zap.Error(err))
	}
}

func train(ctx context.Context, cmd *cli.Command, logger *zap.Logger) error {
	dataPath := cmd.String("data")
	if n := cmd.Int("synthetic"); n > 0 {
		logger.Info("Generating synthetic dataset", zap.Int("n", n), zap.String("out", dataPath))
		if err := data.GenerateSyntheticCrops(n, cmd.Int64("seed"), dataPath); err != nil {
			return err
		}
	}
	ds, err := data.LoadCSV(dataPath)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Algo = cmd.String("algo")
	cfg.Estimators = cmd.Int("estimators")
	if err := cfg.Validate(); err != nil {
		return err
	}
	opts := training.DefaultOptions()
	opts.Algo = cfg.Algo
	opts.Estimators = cfg.Estimators
	opts.MaxDepth = cmd.Int("max-depth")
	opts.Seed = cmd.Int64("seed")

	b, err := training.Train(ctx, ds, opts, logger)
	if err != nil {
		return err
	}
	out := cmd.String("out")
	if err := store.Save(b, out); err != nil {
		return err
	}
	logger.Info("Model saved",
		zap.String("path", out),
		zap.Duration("training_time", b.Metadata.TrainingTime),
	)
	fmt.Printf("Model: %s  accuracy: %.4f  macro F1: %.4f\n",
		b.Metadata.ModelName, b.Metadata.Evaluation.Accuracy, b.Metadata.Evaluation.MacroF1)

	if png := cmd.String("importance-png"); png != "" {
		if err := report.PlotImportances(png, b.Metadata.Features, b.Metadata.FeatureImportances); err != nil {
			logger.Warn("Failed to write importance chart", zap.Error(err))
		} else {
			logger.Info("Importance chart written", zap.String("png", png))
		}
	}
	return nil
}
