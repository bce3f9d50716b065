package data

import (
	"math"
	"math/rand"
	"os"
	"path/filepath"
)

type cropProfile struct {
	Name string
	Mean Measurements
}

// Per-crop centroids of the public crop recommendation table.
var cropProfiles = []cropProfile{
	{"rice", Measurements{80, 48, 40, 23.7, 82.3, 6.4, 236.2}},
	{"maize", Measurements{78, 48, 20, 22.4, 65.1, 6.2, 84.8}},
	{"chickpea", Measurements{40, 68, 80, 18.9, 16.9, 7.3, 80.1}},
	{"kidneybeans", Measurements{21, 67, 20, 20.1, 21.6, 5.7, 105.9}},
	{"pigeonpeas", Measurements{21, 68, 20, 27.7, 48.1, 5.8, 149.5}},
	{"mothbeans", Measurements{21, 48, 20, 28.2, 53.2, 6.8, 51.2}},
	{"mungbean", Measurements{21, 47, 20, 28.5, 85.5, 6.7, 48.4}},
	{"blackgram", Measurements{40, 67, 19, 30, 65.1, 7.1, 67.9}},
	{"lentil", Measurements{19, 68, 19, 24.5, 64.8, 6.9, 45.7}},
	{"pomegranate", Measurements{19, 19, 40, 21.8, 90.1, 6.4, 107.5}},
	{"banana", Measurements{100, 82, 50, 27.4, 80.4, 6.0, 104.6}},
	{"mango", Measurements{20, 27, 30, 31.2, 50.2, 5.8, 94.7}},
	{"grapes", Measurements{23, 132, 200, 23.8, 81.9, 6.0, 69.6}},
	{"watermelon", Measurements{99, 17, 50, 25.6, 85.2, 6.5, 50.8}},
	{"muskmelon", Measurements{100, 18, 50, 28.7, 92.3, 6.4, 24.7}},
	{"apple", Measurements{21, 134, 200, 22.6, 92.3, 5.9, 112.7}},
	{"orange", Measurements{20, 17, 10, 22.8, 92.2, 7.0, 110.5}},
	{"papaya", Measurements{50, 59, 50, 33.7, 92.4, 6.7, 142.6}},
	{"coconut", Measurements{22, 17, 31, 27.4, 94.8, 6.0, 175.7}},
	{"cotton", Measurements{118, 46, 20, 24.0, 80.0, 6.9, 80.4}},
	{"jute", Measurements{78, 47, 40, 25.0, 79.6, 6.7, 174.8}},
	{"coffee", Measurements{101, 29, 30, 25.5, 58.9, 6.8, 158.1}},
}

var spread = Measurements{N: 10, P: 7, K: 3, Temperature: 2, Humidity: 2.5, PH: 0.4, Rainfall: 15}

func CropNames() []string {
	out := make([]string, len(cropProfiles))
	for i, p := range cropProfiles {
		out[i] = p.Name
	}
	return out
}

// SyntheticSamples draws n samples round-robin over the known crops. The same
// seed always yields the same rows.
func SyntheticSamples(n int, seed int64) []Sample {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		p := cropProfiles[i%len(cropProfiles)]
		m := Measurements{
			N:           nonNeg(p.Mean.N + spread.N*rng.NormFloat64()),
			P:           nonNeg(p.Mean.P + spread.P*rng.NormFloat64()),
			K:           nonNeg(p.Mean.K + spread.K*rng.NormFloat64()),
			Temperature: p.Mean.Temperature + spread.Temperature*rng.NormFloat64(),
			Humidity:    clamp(p.Mean.Humidity+spread.Humidity*rng.NormFloat64(), 0, 100),
			PH:          clamp(p.Mean.PH+spread.PH*rng.NormFloat64(), 0, 14),
			Rainfall:    nonNeg(p.Mean.Rainfall + spread.Rainfall*rng.NormFloat64()),
		}
		out = append(out, Sample{Measurements: roundAll(m), Label: p.Name})
	}
	return out
}

func GenerateSyntheticCrops(n int, seed int64, outPath string) error {
	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteCSV(f, SyntheticSamples(n, seed)); err != nil {
		return err
	}
	return f.Close()
}

func nonNeg(v float64) float64 { return math.Max(0, v) }

func clamp(v, lo, hi float64) float64 { return math.Min(hi, math.Max(lo, v)) }

func roundAll(m Measurements) Measurements {
	r := func(v float64) float64 { return math.Round(v*1e4) / 1e4 }
	return Measurements{
		N: math.Round(m.N), P: math.Round(m.P), K: math.Round(m.K),
		Temperature: r(m.Temperature), Humidity: r(m.Humidity), PH: r(m.PH), Rainfall: r(m.Rainfall),
	}
}
