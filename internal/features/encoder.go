package features

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// LabelEncoder maps crop names to dense class indices in sorted name order.
// It holds no derived state, so a decoded encoder is usable as is.
type LabelEncoder struct {
	Classes []string
}

func NewLabelEncoder() *LabelEncoder { return &LabelEncoder{} }

func (le *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.New("label encoder: no labels")
	}
	seen := map[string]struct{}{}
	classes := make([]string, 0)
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		classes = append(classes, l)
	}
	sort.Strings(classes)
	le.Classes = classes
	return nil
}

func (le *LabelEncoder) Transform(labels []string) ([]int, error) {
	idx := make(map[string]int, len(le.Classes))
	for i, c := range le.Classes {
		idx[c] = i
	}
	out := make([]int, len(labels))
	for i, l := range labels {
		k, ok := idx[l]
		if !ok {
			return nil, errors.Newf("label encoder: unseen label %q", l)
		}
		out[i] = k
	}
	return out, nil
}

func (le *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := le.Fit(labels); err != nil {
		return nil, err
	}
	return le.Transform(labels)
}

func (le *LabelEncoder) InverseTransform(class int) (string, error) {
	if class < 0 || class >= len(le.Classes) {
		return "", errors.Newf("label encoder: class index %d out of range [0,%d)", class, len(le.Classes))
	}
	return le.Classes[class], nil
}

func (le *LabelEncoder) NumClasses() int { return len(le.Classes) }
