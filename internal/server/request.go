package server

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"croprec/internal/data"
	"croprec/internal/predict"
)

// Number accepts a JSON number or a string holding one. NaN and infinities
// are refused in either form.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	s := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
	} else if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return errors.Newf("invalid number %s", raw)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.Newf("invalid number %q", s)
	}
	*n = Number(f)
	return nil
}

// PredictRequest is the body of POST /predict. A JSON null counts as missing.
type PredictRequest struct {
	N           *Number `json:"N" binding:"required"`
	P           *Number `json:"P" binding:"required"`
	K           *Number `json:"K" binding:"required"`
	Temperature *Number `json:"temperature" binding:"required"`
	Humidity    *Number `json:"humidity" binding:"required"`
	PH          *Number `json:"ph" binding:"required"`
	Rainfall    *Number `json:"rainfall" binding:"required"`
}

func (r *PredictRequest) Measurements() data.Measurements {
	return data.Measurements{
		N:           float64(*r.N),
		P:           float64(*r.P),
		K:           float64(*r.K),
		Temperature: float64(*r.Temperature),
		Humidity:    float64(*r.Humidity),
		PH:          float64(*r.PH),
		Rainfall:    float64(*r.Rainfall),
	}
}

var requestFieldNames = func() map[string]string {
	t := reflect.TypeOf(PredictRequest{})
	out := make(map[string]string, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		out[f.Name] = strings.Split(f.Tag.Get("json"), ",")[0]
	}
	return out
}()

// DecodePredictRequest reads exactly one JSON object with all seven
// measurements and nothing else. Every failure is a validation error.
func DecodePredictRequest(r io.Reader) (*PredictRequest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var req PredictRequest
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, predict.Validationf("request body is empty")
		}
		return nil, predict.Validation(errors.Wrap(err, "invalid request body"))
	}
	if dec.More() {
		return nil, predict.Validationf("invalid request body: unexpected data after JSON object")
	}
	if err := binding.Validator.ValidateStruct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, strconv.Quote(requestFieldNames[fe.StructField()]))
			}
			if len(missing) == 1 {
				return nil, predict.Validationf("missing required field %s", missing[0])
			}
			return nil, predict.Validationf("missing required fields %s", strings.Join(missing, ", "))
		}
		return nil, predict.Validation(err)
	}
	return &req, nil
}
