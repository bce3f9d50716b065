package predict

import (
	"github.com/cockroachdb/errors"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindInference
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInference:
		return "inference"
	default:
		return "unknown"
	}
}

var (
	ErrValidation = errors.New("validation error")
	ErrInference  = errors.New("inference error")
)

// Validation marks err as caused by the caller's input.
func Validation(err error) error { return errors.Mark(err, ErrValidation) }

func Validationf(format string, args ...interface{}) error {
	return Validation(errors.Newf(format, args...))
}

// Inference marks err as raised while scoring a well-formed input.
func Inference(err error) error { return errors.Mark(err, ErrInference) }

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInference):
		return KindInference
	default:
		return KindUnknown
	}
}
