package training

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"croprec/internal/data"
	"croprec/internal/features"
	"croprec/internal/models"
)

type CurvePoint struct {
	Size     int
	TrainAcc float64
	TestAcc  float64
	TrainF1  float64
	TestF1   float64
}

// CurveSizes spreads points training sizes between min and total, either
// evenly or on a log scale. Sizes are strictly increasing and end at total.
func CurveSizes(total, points, min int, logScale bool) []int {
	if total <= 0 {
		return nil
	}
	if points <= 1 {
		points = 2
	}
	if min < 10 {
		min = 10
	}
	if min > total {
		min = int(math.Max(1, float64(total)/2))
	}
	sizes := make([]int, 0, points)
	if logScale {
		ratio := math.Pow(float64(total)/float64(min), 1.0/float64(points-1))
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)*math.Pow(ratio, float64(i)))))
		}
	} else {
		step := float64(total-min) / float64(points-1)
		for i := 0; i < points; i++ {
			sizes = append(sizes, int(math.Round(float64(min)+float64(i)*step)))
		}
	}
	out := make([]int, 0, len(sizes))
	last := 0
	for _, s := range sizes {
		if s <= last {
			s = last + 1
		}
		if s > total {
			s = total
		}
		if s != last {
			out = append(out, s)
			last = s
		}
	}
	out[len(out)-1] = total
	return out
}

// LearningCurve refits the configured classifier on growing prefixes of the
// shuffled training partition and scores each fit on that prefix and on the
// fixed test partition.
func LearningCurve(ctx context.Context, ds *data.Dataset, opts Options, points int, logScale bool, logger *zap.Logger) ([]CurvePoint, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = 0.2
	}
	enc, sp, err := Prepare(ds, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "prepare")
	}
	scaler := features.NewStandardScaler()
	XTrain, err := scaler.FitTransform(sp.XTrain)
	if err != nil {
		return nil, errors.Wrap(err, "scale")
	}
	XTest, err := scaler.Transform(sp.XTest)
	if err != nil {
		return nil, errors.Wrap(err, "scale test partition")
	}

	sizes := CurveSizes(len(XTrain), points, 2*enc.NumClasses(), logScale)
	out := make([]CurvePoint, 0, len(sizes))
	for _, s := range sizes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mdl, err := models.New(models.Params{
			Algo:       opts.Algo,
			Estimators: opts.Estimators,
			MaxDepth:   opts.MaxDepth,
			MinSamples: opts.MinSamples,
			Seed:       opts.Seed,
			Workers:    opts.Workers,
			NClasses:   enc.NumClasses(),
		})
		if err != nil {
			return nil, err
		}
		subX, subY := XTrain[:s], sp.YTrain[:s]
		if err := mdl.Fit(subX, subY); err != nil {
			return nil, errors.Wrapf(err, "fit at size %d", s)
		}
		tr := models.EvaluatePredictions(subY, mdl.Predict(subX), enc.NumClasses())
		te := models.EvaluatePredictions(sp.YTest, mdl.Predict(XTest), enc.NumClasses())
		pt := CurvePoint{Size: s, TrainAcc: tr.Accuracy, TestAcc: te.Accuracy, TrainF1: tr.MacroF1, TestF1: te.MacroF1}
		logger.Info("Learning curve point",
			zap.String("model", mdl.Name()),
			zap.Int("size", s),
			zap.Float64("train_acc", pt.TrainAcc),
			zap.Float64("test_acc", pt.TestAcc),
		)
		out = append(out, pt)
	}
	return out, nil
}
