package models

import (
	"math"
	"math/rand"
	"sort"
)

type DTNode struct {
	Feature   int
	Threshold float64
	Left      *DTNode
	Right     *DTNode
	IsLeaf    bool
	Proba     []float64
}

// DecisionTree is a multiclass CART tree split on Gini impurity. Leaves hold
// the class distribution of their training samples.
type DecisionTree struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	Seed            int64
	NClasses        int
	NFeatures       int
	Root            *DTNode
	Importances     []float64
}

func NewDecisionTree() *DecisionTree {
	return &DecisionTree{MinSamplesSplit: 2, MinSamplesLeaf: 1}
}

func (dt *DecisionTree) Name() string { return "DecisionTree" }

func (dt *DecisionTree) NumClasses() int { return dt.NClasses }

func (dt *DecisionTree) NumFeatures() int { return dt.NFeatures }

func (dt *DecisionTree) Fit(X [][]float64, y []int) error {
	nFeats, nClasses, err := validateXY(X, y)
	if err != nil {
		return err
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	return dt.fitIdx(X, y, idx, nFeats, nClasses)
}

// fitIdx grows the tree on the rows listed in idx, which may repeat rows.
// A preset NClasses wider than the observed labels is kept.
func (dt *DecisionTree) fitIdx(X [][]float64, y []int, idx []int, nFeats, nClasses int) error {
	if dt.NClasses < nClasses {
		dt.NClasses = nClasses
	}
	if dt.MinSamplesSplit < 2 {
		dt.MinSamplesSplit = 2
	}
	if dt.MinSamplesLeaf < 1 {
		dt.MinSamplesLeaf = 1
	}
	dt.NFeatures = nFeats
	dt.Importances = make([]float64, nFeats)
	rng := rand.New(rand.NewSource(dt.Seed))
	dt.Root = dt.build(X, y, idx, 0, rng)
	total := 0.0
	for _, v := range dt.Importances {
		total += v
	}
	if total > 0 {
		for j := range dt.Importances {
			dt.Importances[j] /= total
		}
	}
	return nil
}

func (dt *DecisionTree) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		out[i] = argmax(dt.predictProbaOne(X[i]))
	}
	return out
}

func (dt *DecisionTree) PredictProba(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		p := dt.predictProbaOne(X[i])
		out[i] = append([]float64(nil), p...)
	}
	return out
}

func (dt *DecisionTree) predictProbaOne(x []float64) []float64 {
	n := dt.Root
	for n != nil && !n.IsLeaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	if n == nil {
		return uniform(dt.NClasses)
	}
	return n.Proba
}

func (dt *DecisionTree) build(X [][]float64, y []int, idx []int, depth int, rng *rand.Rand) *DTNode {
	counts := classCounts(y, idx, dt.NClasses)
	node := &DTNode{Proba: normalize(counts, len(idx))}
	if len(idx) < dt.MinSamplesSplit || (dt.MaxDepth > 0 && depth >= dt.MaxDepth) || isPure(counts) {
		node.IsLeaf = true
		return node
	}

	sp := dt.bestSplit(X, y, idx, counts, rng)
	if sp.feature == -1 {
		node.IsLeaf = true
		return node
	}
	n := float64(len(idx))
	dt.Importances[sp.feature] += n*gini(counts, len(idx)) - sp.impurity

	lIdx, rIdx := splitIdx(X, idx, sp.feature, sp.threshold)
	node.Feature = sp.feature
	node.Threshold = sp.threshold
	node.Left = dt.build(X, y, lIdx, depth+1, rng)
	node.Right = dt.build(X, y, rIdx, depth+1, rng)
	return node
}

type split struct {
	feature   int
	threshold float64
	impurity  float64 // weighted by sample count
}

// bestSplit visits features in random order. It inspects MaxFeatures of them
// and keeps going past that only while no valid split has been found.
func (dt *DecisionTree) bestSplit(X [][]float64, y []int, idx []int, parent []int, rng *rand.Rand) split {
	best := split{feature: -1, impurity: math.MaxFloat64}
	nFeats := dt.NFeatures
	maxFeats := dt.MaxFeatures
	if maxFeats <= 0 || maxFeats > nFeats {
		maxFeats = nFeats
	}
	order := rng.Perm(nFeats)
	sorted := make([]int, len(idx))
	left := make([]int, dt.NClasses)
	right := make([]int, dt.NClasses)
	for visited, f := range order {
		if visited >= maxFeats && best.feature != -1 {
			break
		}
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })
		for k := range left {
			left[k] = 0
		}
		copy(right, parent)
		n := len(sorted)
		for pos := 0; pos < n-1; pos++ {
			c := y[sorted[pos]]
			left[c]++
			right[c]--
			nl := pos + 1
			nr := n - nl
			v, next := X[sorted[pos]][f], X[sorted[pos+1]][f]
			if next <= v {
				continue
			}
			if nl < dt.MinSamplesLeaf || nr < dt.MinSamplesLeaf {
				continue
			}
			imp := float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)
			if imp < best.impurity {
				thr := v + (next-v)/2
				if thr >= next {
					thr = v
				}
				best = split{feature: f, threshold: thr, impurity: imp}
			}
		}
	}
	return best
}

func classCounts(y []int, idx []int, nClasses int) []int {
	counts := make([]int, nClasses)
	for _, i := range idx {
		counts[y[i]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	sum := 0.0
	fn := float64(n)
	for _, c := range counts {
		p := float64(c) / fn
		sum += p * p
	}
	return 1 - sum
}

func isPure(counts []int) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []int, n int) []float64 {
	p := make([]float64, len(counts))
	if n == 0 {
		return uniform(len(counts))
	}
	for k, c := range counts {
		p[k] = float64(c) / float64(n)
	}
	return p
}

func uniform(k int) []float64 {
	p := make([]float64, k)
	for i := range p {
		p[i] = 1 / float64(k)
	}
	return p
}

func splitIdx(X [][]float64, idx []int, f int, thr float64) ([]int, []int) {
	l := make([]int, 0, len(idx))
	r := make([]int, 0, len(idx))
	for _, i := range idx {
		if X[i][f] <= thr {
			l = append(l, i)
		} else {
			r = append(r, i)
		}
	}
	return l, r
}
