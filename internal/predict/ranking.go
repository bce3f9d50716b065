package predict

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/cockroachdb/errors"
)

type CropProbability struct {
	Crop        string
	Probability float64
}

// Ranking is ordered by descending probability. It encodes as a JSON object
// whose keys keep that order.
type Ranking []CropProbability

func rank(classes []string, proba []float64) Ranking {
	out := make(Ranking, len(proba))
	for k, p := range proba {
		out[k] = CropProbability{Crop: classes[k], Probability: p}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Probability > out[j].Probability })
	return out
}

func (r Ranking) Top(k int) Ranking {
	if k < 0 || k >= len(r) {
		return r
	}
	return r[:k]
}

func (r Ranking) Map() map[string]float64 {
	m := make(map[string]float64, len(r))
	for _, cp := range r {
		m[cp.Crop] = cp.Probability
	}
	return m
}

func (r Ranking) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cp := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(cp.Crop)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(cp.Probability)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Ranking) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("ranking: expected object")
	}
	out := Ranking{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("ranking: expected key")
		}
		var p float64
		if err := dec.Decode(&p); err != nil {
			return errors.Wrapf(err, "ranking: value for %q", key)
		}
		out = append(out, CropProbability{Crop: key, Probability: p})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = out
	return nil
}
