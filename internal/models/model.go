package models

import (
	"encoding/gob"
	"strings"

	"github.com/cockroachdb/errors"
)

type Model interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	PredictProba(X [][]float64) [][]float64
	Name() string
	NumClasses() int
	NumFeatures() int
}

// Concrete models travel inside the artifact behind the Model interface.
func init() {
	gob.Register(&DecisionTree{})
	gob.Register(&RandomForest{})
	gob.Register(&Bagging{})
}

type Params struct {
	Algo        string
	Estimators  int
	MaxDepth    int
	MinSamples  int
	MaxFeatures int
	Seed        int64
	Workers     int
	NClasses    int
}

func New(p Params) (Model, error) {
	switch strings.ToLower(p.Algo) {
	case "", "rf":
		rf := NewRandomForest()
		applyEnsemble(&rf.NEstimators, &rf.MaxDepth, &rf.MinSamples, &rf.Seed, &rf.Workers, p)
		if p.MaxFeatures > 0 {
			rf.MaxFeatures = p.MaxFeatures
		}
		rf.NClasses = p.NClasses
		return rf, nil
	case "bagging":
		bg := NewBagging()
		applyEnsemble(&bg.NEstimators, &bg.MaxDepth, &bg.MinSamples, &bg.Seed, &bg.Workers, p)
		bg.NClasses = p.NClasses
		return bg, nil
	case "dt":
		dt := NewDecisionTree()
		dt.MaxDepth = p.MaxDepth
		if p.MinSamples > 0 {
			dt.MinSamplesSplit = p.MinSamples
		}
		dt.MaxFeatures = p.MaxFeatures
		dt.Seed = p.Seed
		dt.NClasses = p.NClasses
		return dt, nil
	default:
		return nil, errors.Newf("unknown algo %q (want rf|bagging|dt)", p.Algo)
	}
}

func applyEnsemble(estimators, maxDepth, minSamples *int, seed *int64, workers *int, p Params) {
	if p.Estimators > 0 {
		*estimators = p.Estimators
	}
	*maxDepth = p.MaxDepth
	if p.MinSamples > 0 {
		*minSamples = p.MinSamples
	}
	*seed = p.Seed
	if p.Workers > 0 {
		*workers = p.Workers
	}
}

func argmax(p []float64) int {
	best := 0
	for k := 1; k < len(p); k++ {
		if p[k] > p[best] {
			best = k
		}
	}
	return best
}

func validateXY(X [][]float64, y []int) (nFeats, nClasses int, err error) {
	if len(X) == 0 {
		return 0, 0, errors.New("fit: no samples")
	}
	if len(X) != len(y) {
		return 0, 0, errors.Newf("fit: %d rows but %d labels", len(X), len(y))
	}
	nFeats = len(X[0])
	if nFeats == 0 {
		return 0, 0, errors.New("fit: no features")
	}
	for i := range X {
		if len(X[i]) != nFeats {
			return 0, 0, errors.Newf("fit: row %d has %d features, want %d", i, len(X[i]), nFeats)
		}
		if y[i] < 0 {
			return 0, 0, errors.Newf("fit: negative label at row %d", i)
		}
		if y[i]+1 > nClasses {
			nClasses = y[i] + 1
		}
	}
	return nFeats, nClasses, nil
}
