package predict

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"croprec/internal/data"
	"croprec/internal/store"
	"croprec/internal/training"
)

var (
	bundleOnce sync.Once
	bundle     *store.Bundle
	bundleErr  error
)

func testService(t *testing.T) *Service {
	t.Helper()
	bundleOnce.Do(func() {
		opts := training.DefaultOptions()
		opts.Estimators = 12
		ds := &data.Dataset{Path: "synthetic", Samples: data.SyntheticSamples(440, 8)}
		bundle, bundleErr = training.Train(context.Background(), ds, opts, nil)
	})
	require.NoError(t, bundleErr)
	svc, err := New(bundle)
	require.NoError(t, err)
	return svc
}

var sampleRequest = data.Measurements{
	N: 90, P: 42, K: 43, Temperature: 20.8, Humidity: 82, PH: 6.5, Rainfall: 202.9,
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", base, KindUnknown},
		{"validation", Validation(base), KindValidation},
		{"validationf", Validationf("bad %s", "ph"), KindValidation},
		{"inference", Inference(base), KindInference},
		{"wrapped inference", errors.Wrap(Inference(base), "outer"), KindInference},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "inference", KindInference.String())
	assert.Equal(t, "unknown", KindUnknown.String())
	assert.Equal(t, "bad ph", Validationf("bad %s", "ph").Error())
}

func TestRankingStableAndTop(t *testing.T) {
	r := rank([]string{"apple", "banana", "coffee", "rice"}, []float64{0.2, 0.4, 0.2, 0.2})
	require.Len(t, r, 4)
	assert.Equal(t, "banana", r[0].Crop)
	assert.Equal(t, []string{"apple", "coffee", "rice"}, []string{r[1].Crop, r[2].Crop, r[3].Crop})

	assert.Len(t, r.Top(2), 2)
	assert.Len(t, r.Top(10), 4)
	assert.Len(t, r.Top(-1), 4)
	assert.Equal(t, 0.4, r.Map()["banana"])
}

func TestRankingJSONKeepsOrder(t *testing.T) {
	r := Ranking{{"rice", 0.5}, {"jute", 0.3}, {"apple", 0.2}}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Equal(t, `{"rice":0.5,"jute":0.3,"apple":0.2}`, string(b))

	var back Ranking
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, r, back)

	empty, err := json.Marshal(Ranking{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))

	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &back))
	assert.Error(t, json.Unmarshal([]byte(`{"rice":"x"}`), &back))
}

func TestPredictSampleRequest(t *testing.T) {
	svc := testService(t)
	p, err := svc.Predict(sampleRequest)
	require.NoError(t, err)

	assert.Contains(t, svc.Classes(), p.RecommendedCrop)
	assert.Len(t, p.Probabilities, TopK)
	sum := 0.0
	for _, cp := range p.Probabilities {
		assert.GreaterOrEqual(t, cp.Probability, 0.0)
		assert.LessOrEqual(t, cp.Probability, 1.0)
		sum += cp.Probability
	}
	assert.LessOrEqual(t, sum, 1.0+1e-9)
}

func TestPredictProperties(t *testing.T) {
	svc := testService(t)
	for _, s := range data.SyntheticSamples(44, 77) {
		p, err := svc.Predict(s.Measurements)
		require.NoError(t, err)

		full, err := svc.Distribution(s.Measurements)
		require.NoError(t, err)
		require.Len(t, full, len(svc.Classes()))

		sum := 0.0
		for i, cp := range full {
			sum += cp.Probability
			if i > 0 {
				assert.GreaterOrEqual(t, full[i-1].Probability, cp.Probability)
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9)

		assert.Equal(t, full[0].Crop, p.RecommendedCrop)
		assert.Equal(t, full.Top(TopK), p.Probabilities)
		for i := 1; i < len(p.Probabilities); i++ {
			assert.GreaterOrEqual(t, p.Probabilities[i-1].Probability, p.Probabilities[i].Probability)
		}
	}
}

func TestPredictDeterministic(t *testing.T) {
	svc := testService(t)
	first, err := svc.Predict(sampleRequest)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Prediction, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.Predict(sampleRequest)
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, first, r)
	}
}

func TestPredictRejectsNonFinite(t *testing.T) {
	svc := testService(t)
	m := sampleRequest
	m.PH = math.NaN()
	_, err := svc.Predict(m)
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "ph")

	m = sampleRequest
	m.Rainfall = math.Inf(1)
	_, err = svc.Distribution(m)
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestPredictFewClassesReturnsAll(t *testing.T) {
	var samples []data.Sample
	for _, s := range data.SyntheticSamples(220, 4) {
		if s.Label == "rice" || s.Label == "maize" || s.Label == "coffee" {
			samples = append(samples, s)
		}
	}
	opts := training.DefaultOptions()
	opts.Estimators = 5
	b, err := training.Train(context.Background(), &data.Dataset{Samples: samples}, opts, nil)
	require.NoError(t, err)
	svc, err := New(b)
	require.NoError(t, err)

	p, err := svc.Predict(sampleRequest)
	require.NoError(t, err)
	assert.Len(t, p.Probabilities, 3)
}

func TestNewRejectsInconsistentBundle(t *testing.T) {
	_, err := New(&store.Bundle{})
	assert.Error(t, err)

	svc := testService(t)
	broken := *bundle
	enc := *bundle.Encoder
	enc.Classes = enc.Classes[:3]
	broken.Encoder = &enc
	_, err = New(&broken)
	assert.Error(t, err)
	assert.NotNil(t, svc)
}

func TestPredictionJSONShape(t *testing.T) {
	svc := testService(t)
	p, err := svc.Predict(sampleRequest)
	require.NoError(t, err)
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Contains(t, raw, "recommendedCrop")
	assert.Contains(t, raw, "probabilities")

	var back Prediction
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, p.RecommendedCrop, back.RecommendedCrop)
	assert.Equal(t, p.Probabilities, back.Probabilities)
}
