package recorder

import (
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRun(_ *underwriting.Result) (string, error)         { return "", nil }
func (n *NoopRecorder) RecordScenarios(_ string, _ *scenario.Result) error       { return nil }
func (n *NoopRecorder) RecordSimulation(_ string, _ *montecarlo.Result) error    { return nil }
func (n *NoopRecorder) RecordSolutions(_ string, _ []optimization.Summary) error { return nil }
func (n *NoopRecorder) Close() error                                             { return nil }
