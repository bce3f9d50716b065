package features

import (
	"croprec/internal/data"
)

var Columns = data.FeatureColumns

const NumFeatures = 7

func Vectorize(m data.Measurements) ([]float64, []string) {
	return []float64{m.N, m.P, m.K, m.Temperature, m.Humidity, m.PH, m.Rainfall}, Columns
}

func Matrix(samples []data.Sample) [][]float64 {
	X := make([][]float64, len(samples))
	for i, s := range samples {
		X[i], _ = Vectorize(s.Measurements)
	}
	return X
}

// SameColumns reports whether cols matches the pinned feature order.
func SameColumns(cols []string) bool {
	if len(cols) != len(Columns) {
		return false
	}
	for i := range cols {
		if cols[i] != Columns[i] {
			return false
		}
	}
	return true
}
