package models

// Report summarizes a holdout evaluation. Per-class scores with no support
// in either truth or prediction count as zero in the macro averages.
type Report struct {
	Samples        int       `json:"samples"`
	Accuracy       float64   `json:"accuracy"`
	MacroPrecision float64   `json:"macroPrecision"`
	MacroRecall    float64   `json:"macroRecall"`
	MacroF1        float64   `json:"macroF1"`
	PerClassF1     []float64 `json:"perClassF1"`
	Confusion      [][]int   `json:"confusion"`
}

func accuracy(y, p []int) float64 {
	if len(y) == 0 {
		return 0
	}
	c := 0
	for i := range y {
		if y[i] == p[i] {
			c++
		}
	}
	return float64(c) / float64(len(y))
}

func Accuracy(y, p []int) float64 { return accuracy(y, p) }

func Evaluate(m Model, X [][]float64, y []int) Report {
	return EvaluatePredictions(y, m.Predict(X), m.NumClasses())
}

func EvaluatePredictions(y, p []int, nClasses int) Report {
	cm := make([][]int, nClasses)
	for k := range cm {
		cm[k] = make([]int, nClasses)
	}
	for i := range y {
		if y[i] < nClasses && p[i] < nClasses {
			cm[y[i]][p[i]]++
		}
	}
	r := Report{Samples: len(y), Accuracy: accuracy(y, p), Confusion: cm, PerClassF1: make([]float64, nClasses)}
	if nClasses == 0 {
		return r
	}
	var sumP, sumR, sumF float64
	for k := 0; k < nClasses; k++ {
		tp := cm[k][k]
		fp, fn := 0, 0
		for j := 0; j < nClasses; j++ {
			if j == k {
				continue
			}
			fp += cm[j][k]
			fn += cm[k][j]
		}
		var prec, rec, f1 float64
		if tp+fp > 0 {
			prec = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			rec = float64(tp) / float64(tp+fn)
		}
		if prec+rec > 0 {
			f1 = 2 * prec * rec / (prec + rec)
		}
		r.PerClassF1[k] = f1
		sumP += prec
		sumR += rec
		sumF += f1
	}
	n := float64(nClasses)
	r.MacroPrecision = sumP / n
	r.MacroRecall = sumR / n
	r.MacroF1 = sumF / n
	return r
}
