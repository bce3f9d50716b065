// Package store persists the fitted classifier, scaler and label encoder as
// one gob artifact. The three are only ever saved and loaded together.
package store

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"

	"croprec/internal/features"
	"croprec/internal/models"
)

var (
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrArtifactCorrupt  = errors.New("artifact corrupt")
)

type Metadata struct {
	ModelName          string
	Algo               string
	Dataset            string
	Seed               int64
	TrainSize          int
	TestSize           int
	Classes            []string
	Features           []string
	FeatureImportances []float64
	Evaluation         models.Report
	CreatedAt          time.Time
	TrainingTime       time.Duration
}

type Bundle struct {
	Model    models.Model
	Scaler   *features.StandardScaler
	Encoder  *features.LabelEncoder
	Metadata Metadata
}

// Validate checks that the parts come from the same training run shape:
// same feature width, same class set, same column order.
func (b *Bundle) Validate() error {
	switch {
	case b == nil:
		return errors.New("nil bundle")
	case b.Model == nil:
		return errors.New("bundle has no model")
	case b.Scaler == nil:
		return errors.New("bundle has no scaler")
	case b.Encoder == nil:
		return errors.New("bundle has no label encoder")
	}
	if b.Scaler.NumFeatures() != features.NumFeatures {
		return errors.Newf("scaler has %d features, want %d", b.Scaler.NumFeatures(), features.NumFeatures)
	}
	if b.Model.NumFeatures() != b.Scaler.NumFeatures() {
		return errors.Newf("model has %d features, scaler %d", b.Model.NumFeatures(), b.Scaler.NumFeatures())
	}
	if b.Encoder.NumClasses() == 0 {
		return errors.New("label encoder has no classes")
	}
	if b.Model.NumClasses() != b.Encoder.NumClasses() {
		return errors.Newf("model has %d classes, label encoder %d", b.Model.NumClasses(), b.Encoder.NumClasses())
	}
	if len(b.Metadata.Features) > 0 && !features.SameColumns(b.Metadata.Features) {
		return errors.Newf("artifact feature order %v does not match %v", b.Metadata.Features, features.Columns)
	}
	return nil
}

// Save writes the bundle next to path and renames it into place, so a reader
// never observes a partial artifact.
func Save(b *Bundle, path string) error {
	if err := b.Validate(); err != nil {
		return errors.Wrap(err, "save artifact")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp artifact")
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := Encode(tmp, b); err != nil {
		tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return errors.Wrap(err, "sync artifact")
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.Wrap(err, "close artifact")
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.Wrapf(err, "rename artifact to %s", path)
	}
	return nil
}

func Load(path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "load artifact %s", path), ErrArtifactNotFound)
		}
		return nil, errors.Mark(errors.Wrapf(err, "load artifact %s", path), ErrArtifactCorrupt)
	}
	defer f.Close()
	b, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load artifact %s", path)
	}
	return b, nil
}

func Encode(w io.Writer, b *Bundle) error {
	if err := gob.NewEncoder(w).Encode(b); err != nil {
		return errors.Wrap(err, "encode artifact")
	}
	return nil
}

func Decode(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := gob.NewDecoder(r).Decode(&b); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode artifact"), ErrArtifactCorrupt)
	}
	if err := b.Validate(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "inconsistent artifact"), ErrArtifactCorrupt)
	}
	return &b, nil
}
