package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"croprec/internal/data"
	"croprec/internal/features"
	"croprec/internal/store"
)

func smallOptions() Options {
	o := DefaultOptions()
	o.Estimators = 10
	return o
}

func synthetic(n int) *data.Dataset {
	return &data.Dataset{Path: "synthetic", Samples: data.SyntheticSamples(n, 11)}
}

func TestPrepareEncodesBeforeSplit(t *testing.T) {
	enc, sp, err := Prepare(synthetic(440), 0.2, 42)
	require.NoError(t, err)

	assert.Equal(t, len(data.CropNames()), enc.NumClasses())
	assert.Len(t, sp.XTest, 88)
	assert.Len(t, sp.XTrain, 352)
	assert.Len(t, sp.YTrain, 352)
	assert.Len(t, sp.YTest, 88)

	_, _, err = Prepare(&data.Dataset{}, 0.2, 42)
	assert.Error(t, err)
}

func TestTrainProducesConsistentBundle(t *testing.T) {
	b, err := Train(context.Background(), synthetic(440), smallOptions(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, b.Validate())

	md := b.Metadata
	assert.Equal(t, "RandomForest", md.ModelName)
	assert.Equal(t, 352, md.TrainSize)
	assert.Equal(t, 88, md.TestSize)
	assert.Equal(t, features.Columns, md.Features)
	assert.Equal(t, b.Encoder.Classes, md.Classes)
	assert.Equal(t, 88, md.Evaluation.Samples)
	assert.Greater(t, md.Evaluation.Accuracy, 0.8)
	assert.Len(t, md.FeatureImportances, features.NumFeatures)
}

func TestTrainScalerFitOnTrainOnly(t *testing.T) {
	ds := synthetic(220)
	b, err := Train(context.Background(), ds, smallOptions(), nil)
	require.NoError(t, err)

	_, sp, err := Prepare(ds, 0.2, 42)
	require.NoError(t, err)
	ref := features.NewStandardScaler()
	require.NoError(t, ref.Fit(sp.XTrain))
	assert.Equal(t, ref.Mean, b.Scaler.Mean)
	assert.Equal(t, ref.Scale, b.Scaler.Scale)
}

func TestTrainDeterministic(t *testing.T) {
	ds := synthetic(330)
	a, err := Train(context.Background(), ds, smallOptions(), nil)
	require.NoError(t, err)
	b, err := Train(context.Background(), ds, smallOptions(), nil)
	require.NoError(t, err)

	X := features.Matrix(data.SyntheticSamples(44, 5))
	Xa, err := a.Scaler.Transform(X)
	require.NoError(t, err)
	Xb, err := b.Scaler.Transform(X)
	require.NoError(t, err)
	assert.Equal(t, a.Model.PredictProba(Xa), b.Model.PredictProba(Xb))
}

func TestTrainUnknownAlgo(t *testing.T) {
	o := smallOptions()
	o.Algo = "svm"
	_, err := Train(context.Background(), synthetic(44), o, nil)
	assert.ErrorContains(t, err, "unknown algo")
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Train(ctx, synthetic(44), smallOptions(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadOrTrain(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "crops.csv")
	modelPath := filepath.Join(dir, "models", "crop.gob")
	require.NoError(t, data.GenerateSyntheticCrops(220, 3, csvPath))

	b, trained, err := LoadOrTrain(context.Background(), modelPath, csvPath, smallOptions(), zap.NewNop())
	require.NoError(t, err)
	assert.True(t, trained)
	assert.Equal(t, csvPath, b.Metadata.Dataset)
	_, err = os.Stat(modelPath)
	require.NoError(t, err)

	// The dataset is no longer needed once the artifact exists.
	require.NoError(t, os.Remove(csvPath))
	again, trained, err := LoadOrTrain(context.Background(), modelPath, csvPath, smallOptions(), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, trained)
	assert.Equal(t, b.Encoder.Classes, again.Encoder.Classes)
	assert.Equal(t, b.Scaler.Mean, again.Scaler.Mean)
}

func TestLoadOrTrainMissingDataset(t *testing.T) {
	dir := t.TempDir()
	_, _, err := LoadOrTrain(context.Background(), filepath.Join(dir, "m.gob"), filepath.Join(dir, "none.csv"), smallOptions(), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadOrTrainCorruptArtifact(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "m.gob")
	csvPath := filepath.Join(dir, "crops.csv")
	require.NoError(t, os.WriteFile(modelPath, []byte("garbage"), 0o644))
	require.NoError(t, data.GenerateSyntheticCrops(44, 1, csvPath))

	_, _, err := LoadOrTrain(context.Background(), modelPath, csvPath, smallOptions(), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrArtifactCorrupt))
}

func TestCurveSizes(t *testing.T) {
	assert.Equal(t, []int{100, 325, 550, 775, 1000}, CurveSizes(1000, 5, 100, false))
	assert.Equal(t, []int{10, 46, 215, 1000}, CurveSizes(1000, 4, 10, true))
	assert.Equal(t, []int{10, 11, 12}, CurveSizes(12, 5, 10, false))
	assert.Equal(t, []int{1}, CurveSizes(1, 3, 10, true))
	assert.Nil(t, CurveSizes(0, 3, 10, true))
}

func TestLearningCurve(t *testing.T) {
	o := smallOptions()
	o.Estimators = 4
	pts, err := LearningCurve(context.Background(), synthetic(440), o, 3, false, nil)
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.Equal(t, 352, pts[len(pts)-1].Size)
	for i, p := range pts {
		if i > 0 {
			assert.Greater(t, p.Size, pts[i-1].Size)
		}
		assert.GreaterOrEqual(t, p.TrainAcc, 0.0)
		assert.LessOrEqual(t, p.TestAcc, 1.0)
	}
	assert.Greater(t, pts[len(pts)-1].TestAcc, 0.7)
}
