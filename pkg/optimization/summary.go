// Package optimization provides shared data structures for break-even solver results.
package optimization

import "github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"

// Summary captures the result of a single solver directive: the value of
// Field at which the deal's levered IRR meets Hurdle.
type Summary struct {
	Field           string         `json:"field"`
	Original        float64        `json:"original"`
	Value           float64        `json:"value"`
	Lower           float64        `json:"lower"`
	Upper           float64        `json:"upper"`
	Hurdle          float64        `json:"hurdle"`
	OriginalIRR     mathutil.Ratio `json:"originalIrr"`
	IRR             mathutil.Ratio `json:"irr"`
	Headroom        mathutil.Ratio `json:"headroom"`
	Iterations      int            `json:"iterations"`
	Converged       bool           `json:"converged"`
	Notes           []string       `json:"notes,omitempty"`
	OriginalDisplay string         `json:"originalDisplay,omitempty"`
	ValueDisplay    string         `json:"valueDisplay,omitempty"`
}
