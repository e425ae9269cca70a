// Package uwerr defines the error kinds raised by the underwriting engine.
//
// Every kind is a sentinel that can be matched with errors.Is. Errors raised
// at the point of detection are wrapped in *Error so callers can tell which
// input was rejected.
package uwerr

import (
	"errors"
	"fmt"
)

// Error kinds.
var (
	ErrInvalidFinancingTerms     = errors.New("invalid financing terms")
	ErrInvalidExitParameter      = errors.New("invalid exit parameter")
	ErrIRRNotConvergent          = errors.New("irr not convergent")
	ErrInvalidEquityBasis        = errors.New("invalid equity basis")
	ErrInvalidDistributionConfig = errors.New("invalid distribution config")
	ErrInvalidAssumptions        = errors.New("invalid assumptions")
)

var kindNames = map[error]string{
	ErrInvalidFinancingTerms:     "InvalidFinancingTerms",
	ErrInvalidExitParameter:      "InvalidExitParameter",
	ErrIRRNotConvergent:          "IRRNotConvergent",
	ErrInvalidEquityBasis:        "InvalidEquityBasis",
	ErrInvalidDistributionConfig: "InvalidDistributionConfig",
	ErrInvalidAssumptions:        "InvalidAssumptions",
}

// Error ties an error kind to the input that triggered it.
type Error struct {
	Kind   error
	Field  string
	Value  float64
	Detail string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%v: %s=%g: %s", e.Kind, e.Field, e.Value, e.Detail)
}

func (e *Error) Unwrap() error { return e.Kind }

// New builds an *Error for kind.
func New(kind error, field string, value float64, format string, args ...interface{}) *Error {
	return &Error{
		Kind:   kind,
		Field:  field,
		Value:  value,
		Detail: fmt.Sprintf(format, args...),
	}
}

// KindName returns the stable name of the first error kind found in err's
// chain, or "Unknown".
func KindName(err error) string {
	for kind, name := range kindNames {
		if errors.Is(err, kind) {
			return name
		}
	}
	return "Unknown"
}
