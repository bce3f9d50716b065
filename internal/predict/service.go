// Package predict turns seven raw measurements into a crop recommendation
// using one fitted artifact. A Service never changes after New, so callers
// may share it across goroutines.
package predict

import (
	"math"

	"github.com/cockroachdb/errors"

	"croprec/internal/data"
	"croprec/internal/features"
	"croprec/internal/store"
)

const TopK = 5

type Prediction struct {
	RecommendedCrop string  `json:"recommendedCrop"`
	Probabilities   Ranking `json:"probabilities"`
}

type Service struct {
	bundle *store.Bundle
}

func New(b *store.Bundle) (*Service, error) {
	if err := b.Validate(); err != nil {
		return nil, errors.Wrap(err, "predict service")
	}
	return &Service{bundle: b}, nil
}

func (s *Service) Metadata() store.Metadata { return s.bundle.Metadata }

func (s *Service) Classes() []string {
	return append([]string(nil), s.bundle.Encoder.Classes...)
}

func (s *Service) ModelName() string { return s.bundle.Model.Name() }

// Distribution returns every class ranked by probability, highest first.
// Equal probabilities keep class index order.
func (s *Service) Distribution(m data.Measurements) (Ranking, error) {
	proba, err := s.score(m)
	if err != nil {
		return nil, err
	}
	return rank(s.bundle.Encoder.Classes, proba), nil
}

func (s *Service) Predict(m data.Measurements) (*Prediction, error) {
	proba, err := s.score(m)
	if err != nil {
		return nil, err
	}
	class := 0
	for k := range proba {
		if proba[k] > proba[class] {
			class = k
		}
	}
	crop, err := s.bundle.Encoder.InverseTransform(class)
	if err != nil {
		return nil, Inference(err)
	}
	return &Prediction{
		RecommendedCrop: crop,
		Probabilities:   rank(s.bundle.Encoder.Classes, proba).Top(TopK),
	}, nil
}

func (s *Service) score(m data.Measurements) ([]float64, error) {
	x, _ := features.Vectorize(m)
	for j, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Validationf("%s must be a finite number", features.Columns[j])
		}
	}
	xs, err := s.bundle.Scaler.TransformRow(x)
	if err != nil {
		return nil, Inference(errors.Wrap(err, "scale"))
	}
	probs := s.bundle.Model.PredictProba([][]float64{xs})
	if len(probs) != 1 {
		return nil, Inference(errors.Newf("classifier returned %d rows for 1 input", len(probs)))
	}
	if n := len(s.bundle.Encoder.Classes); len(probs[0]) != n || n == 0 {
		return nil, Inference(errors.Newf("classifier returned %d probabilities for %d classes", len(probs[0]), n))
	}
	return probs[0], nil
}
