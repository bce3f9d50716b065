package training

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"croprec/internal/data"
	"croprec/internal/features"
	"croprec/internal/models"
	"croprec/internal/store"
)

type Options struct {
	Algo       string
	Estimators int
	MaxDepth   int
	MinSamples int
	Seed       int64
	TestSize   float64
	Workers    int
}

func DefaultOptions() Options {
	return Options{Algo: "rf", Estimators: 100, MinSamples: 2, Seed: 42, TestSize: 0.2}
}

type Split struct {
	XTrain, XTest [][]float64
	YTrain, YTest []int
}

// Prepare encodes labels over the whole table, then splits rows. The encoder
// must see every label so train and test share one index space.
func Prepare(ds *data.Dataset, testSize float64, seed int64) (*features.LabelEncoder, Split, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, Split{}, errors.New("empty dataset")
	}
	X := features.Matrix(ds.Samples)
	enc := features.NewLabelEncoder()
	y, err := enc.FitTransform(ds.Labels())
	if err != nil {
		return nil, Split{}, err
	}
	trainIdx, testIdx := data.TrainTestSplit(len(X), testSize, seed)
	var sp Split
	for _, i := range trainIdx {
		sp.XTrain = append(sp.XTrain, X[i])
		sp.YTrain = append(sp.YTrain, y[i])
	}
	for _, i := range testIdx {
		sp.XTest = append(sp.XTest, X[i])
		sp.YTest = append(sp.YTest, y[i])
	}
	return enc, sp, nil
}

// Train runs encode, split, scale and fit in that fixed order and returns
// the fitted artifact. The held out rows are scored but never gate the result.
func Train(ctx context.Context, ds *data.Dataset, opts Options, logger *zap.Logger) (*store.Bundle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.TestSize <= 0 || opts.TestSize >= 1 {
		opts.TestSize = 0.2
	}
	start := time.Now()

	enc, sp, err := Prepare(ds, opts.TestSize, opts.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "prepare")
	}
	scaler := features.NewStandardScaler()
	XTrain, err := scaler.FitTransform(sp.XTrain)
	if err != nil {
		return nil, errors.Wrap(err, "scale")
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Info("Fitting classifier",
		zap.String("model", mdl.Name()),
		zap.Int("train", len(XTrain)),
		zap.Int("test", len(sp.XTest)),
		zap.Int("classes", enc.NumClasses()),
	)
	if err := mdl.Fit(XTrain, sp.YTrain); err != nil {
		return nil, errors.Wrapf(err, "fit %s", mdl.Name())
	}

	var report models.Report
	if len(sp.XTest) > 0 {
		XTest, err := scaler.Transform(sp.XTest)
		if err != nil {
			return nil, errors.Wrap(err, "scale test partition")
		}
		report = models.Evaluate(mdl, XTest, sp.YTest)
		logger.Info("Holdout metrics",
			zap.String("model", mdl.Name()),
			zap.Float64("accuracy", report.Accuracy),
			zap.Float64("macro_f1", report.MacroF1),
			zap.Float64("macro_precision", report.MacroPrecision),
			zap.Float64("macro_recall", report.MacroRecall),
		)
	}

	var importances []float64
	if fi, ok := mdl.(interface{ FeatureImportances() []float64 }); ok {
		importances = fi.FeatureImportances()
	}
	b := &store.Bundle{
		Model:   mdl,
		Scaler:  scaler,
		Encoder: enc,
		Metadata: store.Metadata{
			ModelName:          mdl.Name(),
			Algo:               opts.Algo,
			Dataset:            ds.Path,
			Seed:               opts.Seed,
			TrainSize:          len(sp.XTrain),
			TestSize:           len(sp.XTest),
			Classes:            append([]string(nil), enc.Classes...),
			Features:           append([]string(nil), features.Columns...),
			FeatureImportances: importances,
			Evaluation:         report,
			CreatedAt:          time.Now().UTC(),
			TrainingTime:       time.Since(start),
		},
	}
	if err := b.Validate(); err != nil {
		return nil, errors.Wrap(err, "trained artifact")
	}
	return b, nil
}

// LoadOrTrain returns the artifact at modelPath, training and saving a new
// one from datasetPath only when no artifact exists. A corrupt artifact is
// an error, never a reason to retrain.
func LoadOrTrain(ctx context.Context, modelPath, datasetPath string, opts Options, logger *zap.Logger) (*store.Bundle, bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b, err := store.Load(modelPath)
	if err == nil {
		logger.Info("Model loaded from file", zap.String("path", modelPath), zap.String("model", b.Metadata.ModelName))
		return b, false, nil
	}
	if !errors.Is(err, store.ErrArtifactNotFound) {
		return nil, false, err
	}

	logger.Info("Training new model", zap.String("dataset", datasetPath))
	ds, err := data.LoadCSV(datasetPath)
	if err != nil {
		return nil, false, err
	}
	b, err = Train(ctx, ds, opts, logger)
	if err != nil {
		return nil, false, err
	}
	if err := store.Save(b, modelPath); err != nil {
		return nil, false, err
	}
	logger.Info("Model trained and saved", zap.String("path", modelPath))
	return b, true, nil
}
