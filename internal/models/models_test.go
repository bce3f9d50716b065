package models

import (
	"bytes"
	"encoding/gob"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs returns k well separated clusters in d dimensions.
func blobs(n, k, d int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		c := i % k
		row := make([]float64, d)
		for j := range row {
			row[j] = float64(c*10*(j+1)) + rng.NormFloat64()
		}
		X[i] = row
		y[i] = c
	}
	return X, y
}

func TestDecisionTreeSeparable(t *testing.T) {
	X, y := blobs(120, 3, 2, 1)
	dt := NewDecisionTree()
	require.NoError(t, dt.Fit(X, y))

	assert.Equal(t, 3, dt.NumClasses())
	assert.Equal(t, 2, dt.NumFeatures())
	assert.Equal(t, 1.0, Accuracy(y, dt.Predict(X)))

	for _, p := range dt.PredictProba(X) {
		assert.Len(t, p, 3)
		assert.InDelta(t, 1.0, sum(p), 1e-12)
	}
	assert.InDelta(t, 1.0, sum(dt.Importances), 1e-9)
}

func TestDecisionTreeMaxDepth(t *testing.T) {
	X, y := blobs(90, 3, 1, 2)
	dt := NewDecisionTree()
	dt.MaxDepth = 1
	require.NoError(t, dt.Fit(X, y))

	require.NotNil(t, dt.Root)
	require.False(t, dt.Root.IsLeaf)
	assert.True(t, dt.Root.Left.IsLeaf)
	assert.True(t, dt.Root.Right.IsLeaf)
}

func TestDecisionTreeConstantFeatures(t *testing.T) {
	X := [][]float64{{1, 1}, {1, 1}, {1, 1}, {1, 1}}
	y := []int{0, 1, 0, 1}
	dt := NewDecisionTree()
	require.NoError(t, dt.Fit(X, y))

	assert.True(t, dt.Root.IsLeaf)
	assert.Equal(t, []float64{0.5, 0.5}, dt.PredictProba([][]float64{{1, 1}})[0])
	assert.Equal(t, []int{0}, dt.Predict([][]float64{{1, 1}}))
}

func TestFitValidation(t *testing.T) {
	tests := []struct {
		name string
		X    [][]float64
		y    []int
	}{
		{"empty", nil, nil},
		{"length mismatch", [][]float64{{1}}, []int{0, 1}},
		{"ragged", [][]float64{{1, 2}, {1}}, []int{0, 1}},
		{"negative label", [][]float64{{1}, {2}}, []int{0, -1}},
		{"no features", [][]float64{{}}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, NewDecisionTree().Fit(tt.X, tt.y))
			assert.Error(t, NewRandomForest().Fit(tt.X, tt.y))
		})
	}
}

func TestRandomForestProbabilities(t *testing.T) {
	X, y := blobs(200, 4, 3, 3)
	rf := NewRandomForest()
	rf.NEstimators = 25
	require.NoError(t, rf.Fit(X, y))

	assert.Len(t, rf.Trees, 25)
	assert.Equal(t, 1, rf.MaxFeatures)
	assert.Equal(t, 4, rf.NumClasses())
	assert.GreaterOrEqual(t, Accuracy(y, rf.Predict(X)), 0.99)

	probas := rf.PredictProba(X)
	preds := rf.Predict(X)
	for i, p := range probas {
		require.Len(t, p, 4)
		assert.InDelta(t, 1.0, sum(p), 1e-9)
		for _, v := range p {
			assert.True(t, v >= 0 && v <= 1)
		}
		assert.Equal(t, argmax(p), preds[i])
	}
	assert.InDelta(t, 1.0, sum(rf.FeatureImportances()), 1e-9)
}

func TestRandomForestDeterministicAcrossWorkers(t *testing.T) {
	X, y := blobs(150, 3, 4, 4)
	fit := func(workers int) [][]float64 {
		rf := NewRandomForest()
		rf.NEstimators = 15
		rf.Workers = workers
		require.NoError(t, rf.Fit(X, y))
		return rf.PredictProba(X)
	}
	assert.Equal(t, fit(1), fit(8))
}

func TestRandomForestSeedMatters(t *testing.T) {
	X, y := blobs(150, 3, 4, 5)
	a, b := NewRandomForest(), NewRandomForest()
	a.NEstimators, b.NEstimators = 5, 5
	b.Seed = 7
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.NotEqual(t, a.Trees[0].Root, b.Trees[0].Root)
}

func TestUnfittedForestIsUniform(t *testing.T) {
	rf := NewRandomForest()
	rf.NClasses = 4
	assert.Equal(t, []float64{0.25, 0.25, 0.25, 0.25}, rf.PredictProba([][]float64{{1}})[0])
}

func TestBaggingUsesAllFeatures(t *testing.T) {
	X, y := blobs(90, 3, 5, 6)
	bg := NewBagging()
	bg.NEstimators = 5
	require.NoError(t, bg.Fit(X, y))
	assert.Equal(t, 5, bg.MaxFeatures)
	assert.Equal(t, "Bagging", bg.Name())
	assert.GreaterOrEqual(t, Accuracy(y, bg.Predict(X)), 0.99)
}

func TestNew(t *testing.T) {
	m, err := New(Params{Algo: "rf", Estimators: 7, Seed: 9, Workers: 2})
	require.NoError(t, err)
	rf := m.(*RandomForest)
	assert.Equal(t, 7, rf.NEstimators)
	assert.Equal(t, int64(9), rf.Seed)
	assert.Equal(t, 2, rf.Workers)

	m, err = New(Params{Algo: "bagging"})
	require.NoError(t, err)
	assert.Equal(t, "Bagging", m.Name())

	m, err = New(Params{Algo: "DT", MaxDepth: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, m.(*DecisionTree).MaxDepth)

	_, err = New(Params{Algo: "gb"})
	assert.ErrorContains(t, err, "unknown algo")
}

func TestGobThroughInterface(t *testing.T) {
	X, y := blobs(60, 3, 2, 8)
	var m Model = NewRandomForest()
	m.(*RandomForest).NEstimators = 5
	require.NoError(t, m.Fit(X, y))

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(&m))
	var back Model
	require.NoError(t, gob.NewDecoder(&buf).Decode(&back))

	assert.Equal(t, "RandomForest", back.Name())
	assert.Equal(t, m.PredictProba(X), back.PredictProba(X))
}

func TestEvaluatePredictions(t *testing.T) {
	y := []int{0, 0, 1, 1, 2, 2}
	p := []int{0, 1, 1, 1, 2, 0}
	r := EvaluatePredictions(y, p, 3)

	assert.Equal(t, 6, r.Samples)
	assert.InDelta(t, 4.0/6.0, r.Accuracy, 1e-12)
	assert.Equal(t, [][]int{{1, 1, 0}, {0, 2, 0}, {1, 0, 1}}, r.Confusion)
	// class 0: p=.5 r=.5, class 1: p=2/3 r=1, class 2: p=1 r=.5
	assert.InDelta(t, (0.5+2.0/3.0+1)/3, r.MacroPrecision, 1e-12)
	assert.InDelta(t, (0.5+1+0.5)/3, r.MacroRecall, 1e-12)
	assert.InDelta(t, (0.5+0.8+2.0/3.0)/3, r.MacroF1, 1e-12)
}

func sum(p []float64) float64 {
	s := 0.0
	for _, v := range p {
		s += v
	}
	return s
}

func TestPresetClassCountWidensProba(t *testing.T) {
	X, y := blobs(30, 2, 2, 9)
	m, err := New(Params{Algo: "rf", Estimators: 3, NClasses: 5})
	require.NoError(t, err)
	require.NoError(t, m.Fit(X, y))

	assert.Equal(t, 5, m.NumClasses())
	p := m.PredictProba(X[:1])[0]
	require.Len(t, p, 5)
	assert.Equal(t, []float64{0, 0, 0}, p[2:])
}
