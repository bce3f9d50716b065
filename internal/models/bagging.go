package models

// Bagging is a forest whose trees consider every feature at each split.
type Bagging struct {
	RandomForest
}

func NewBagging() *Bagging {
	return &Bagging{RandomForest: *NewRandomForest()}
}

func (bg *Bagging) Name() string { return "Bagging" }

func (bg *Bagging) Fit(X [][]float64, y []int) error {
	if len(X) > 0 {
		bg.MaxFeatures = len(X[0])
	}
	return bg.RandomForest.Fit(X, y)
}
