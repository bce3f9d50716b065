package features

import (
	"math"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes each feature to zero mean and unit variance
// using the population standard deviation. Constant features get a scale of 1.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

func NewStandardScaler() *StandardScaler { return &StandardScaler{} }

func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 || len(X[0]) == 0 {
		return errors.New("standard scaler: empty data")
	}
	nf := len(X[0])
	s.Mean = make([]float64, nf)
	s.Scale = make([]float64, nf)
	col := make([]float64, len(X))
	for j := 0; j < nf; j++ {
		for i := range X {
			if len(X[i]) != nf {
				return errors.Newf("standard scaler: row %d has %d features, want %d", i, len(X[i]), nf)
			}
			col[i] = X[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if math.Abs(std) < 1e-12 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Scale[j] = std
	}
	return nil
}

func (s *StandardScaler) NumFeatures() int { return len(s.Mean) }

func (s *StandardScaler) TransformRow(x []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, errors.New("standard scaler: not fitted")
	}
	if len(x) != len(s.Mean) {
		return nil, errors.Newf("standard scaler: got %d features, want %d", len(x), len(s.Mean))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

func (s *StandardScaler) Transform(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i := range X {
		row, err := s.TransformRow(X[i])
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out[i] = row
	}
	return out, nil
}

func (s *StandardScaler) FitTransform(X [][]float64) ([][]float64, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}
