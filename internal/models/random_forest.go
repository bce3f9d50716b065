package models

import (
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RandomForest averages the class distributions of bootstrapped trees that
// each consider MaxFeatures candidate features per split. Every tree's
// bootstrap sample and seed are drawn up front from Seed, so the fitted
// forest does not depend on how many workers grew it.
type RandomForest struct {
	NEstimators int
	MaxDepth    int
	MinSamples  int
	MaxFeatures int
	Bootstrap   bool
	Seed        int64
	Workers     int
	NClasses    int
	NFeatures   int
	Trees       []*DecisionTree
}

func NewRandomForest() *RandomForest {
	return &RandomForest{NEstimators: 100, MinSamples: 2, Bootstrap: true, Seed: 42, Trees: []*DecisionTree{}}
}

func (rf *RandomForest) Name() string { return "RandomForest" }

func (rf *RandomForest) NumClasses() int { return rf.NClasses }

func (rf *RandomForest) NumFeatures() int { return rf.NFeatures }

func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	nFeats, nClasses, err := validateXY(X, y)
	if err != nil {
		return err
	}
	// A preset class count covers labels absent from this training sample.
	if rf.NClasses > nClasses {
		nClasses = rf.NClasses
	}
	if rf.NEstimators <= 0 {
		rf.NEstimators = 100
	}
	if rf.MaxFeatures <= 0 {
		rf.MaxFeatures = int(math.Max(1, math.Min(float64(nFeats), math.Floor(math.Sqrt(float64(nFeats))))))
	}
	rf.NFeatures = nFeats
	rf.NClasses = nClasses

	n := len(X)
	rng := rand.New(rand.NewSource(rf.Seed))
	samples := make([][]int, rf.NEstimators)
	seeds := make([]int64, rf.NEstimators)
	for k := 0; k < rf.NEstimators; k++ {
		idx := make([]int, n)
		for i := 0; i < n; i++ {
			if rf.Bootstrap {
				idx[i] = rng.Intn(n)
			} else {
				idx[i] = i
			}
		}
		samples[k] = idx
		seeds[k] = rng.Int63()
	}

	workers := rf.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	trees := make([]*DecisionTree, rf.NEstimators)
	var g errgroup.Group
	g.SetLimit(workers)
	for k := 0; k < rf.NEstimators; k++ {
		g.Go(func() error {
			dt := NewDecisionTree()
			dt.MaxDepth = rf.MaxDepth
			dt.MinSamplesSplit = rf.MinSamples
			dt.MaxFeatures = rf.MaxFeatures
			dt.Seed = seeds[k]
			dt.NClasses = nClasses
			if err := dt.fitIdx(X, y, samples[k], nFeats, nClasses); err != nil {
				return err
			}
			trees[k] = dt
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

func (rf *RandomForest) Predict(X [][]float64) []int {
	ps := rf.PredictProba(X)
	out := make([]int, len(ps))
	for i := range ps {
		out[i] = argmax(ps[i])
	}
	return out
}

func (rf *RandomForest) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	if len(rf.Trees) == 0 {
		for i := range out {
			out[i] = uniform(rf.NClasses)
		}
		return out
	}
	m := float64(len(rf.Trees))
	for i := range X {
		acc := make([]float64, rf.NClasses)
		for _, dt := range rf.Trees {
			p := dt.predictProbaOne(X[i])
			for k := range p {
				acc[k] += p[k]
			}
		}
		for k := range acc {
			acc[k] /= m
		}
		out[i] = acc
	}
	return out
}

// FeatureImportances is the mean impurity decrease per feature across trees,
// normalized to sum to 1.
func (rf *RandomForest) FeatureImportances() []float64 {
	out := make([]float64, rf.NFeatures)
	for _, dt := range rf.Trees {
		for j, v := range dt.Importances {
			out[j] += v
		}
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total > 0 {
		for j := range out {
			out[j] /= total
		}
	}
	return out
}
