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
	"croprec/internal/training"
	"croprec/pkg/utils"
)

func main() {
	logger := utils.Logger()
	defer logger.Sync()

	def := config.Default()
	cmd := &cli.Command{
		Name:  "analyzer",
		Usage: "plot a learning curve for the crop classifier",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data", Value: def.DatasetPath, Usage: "labeled crop CSV"},
			&cli.StringFlag{Name: "algo", Value: def.Algo, Usage: "rf|bagging|dt"},
			&cli.IntFlag{Name: "estimators", Value: 30, Usage: "trees per fit"},
			&cli.IntFlag{Name: "max-depth", Value: 0, Usage: "maximum tree depth, 0 for unlimited"},
			&cli.Int64Flag{Name: "seed", Value: def.Seed, Usage: "split and forest seed"},
			&cli.IntFlag{Name: "points", Value: 8, Usage: "points on the curve"},
			&cli.BoolFlag{Name: "log", Usage: "space sizes on a log scale"},
			&cli.StringFlag{Name: "out-csv", Value: "data/learning_curve.csv", Usage: "curve CSV"},
			&cli.StringFlag{Name: "out-img", Value: "data/learning_curve.png", Usage: "curve PNG"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ds, err := data.LoadCSV(cmd.String("data"))
			if err != nil {
				return err
			}
			opts := training.DefaultOptions()
			opts.Algo = cmd.String("algo")
			opts.Estimators = cmd.Int("estimators")
			opts.MaxDepth = cmd.Int("max-depth")
			opts.Seed = cmd.Int64("seed")

			pts, err := training.LearningCurve(ctx, ds, opts, cmd.Int("points"), cmd.Bool("log"), logger)
			if err != nil {
				return err
			}
			for _, p := range pts {
				fmt.Printf("size=%d | train=%.3f | test=%.3f | test F1=%.3f\n", p.Size, p.TrainAcc, p.TestAcc, p.TestF1)
			}
			if err := report.WriteCurveCSV(cmd.String("out-csv"), pts); err != nil {
				return err
			}
			if err := report.PlotCurve(cmd.String("out-img"), pts); err != nil {
				return err
			}
			logger.Info("Learning curve written",
				zap.String("csv", cmd.String("out-csv")),
				zap.String("png", cmd.String("out-img")),
			)
			return nil
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("Analyzer failed", zap.Error(err))
	}
}
