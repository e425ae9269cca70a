// Package recorder persists underwriting runs for later comparison.
package recorder

import (
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
	"go.uber.org/zap"
)

// Recorder persists run results. RecordRun returns the id the scenario and
// simulation records are attached to.
type Recorder interface {
	RecordRun(res *underwriting.Result) (string, error)
	RecordScenarios(runID string, res *scenario.Result) error
	RecordSimulation(runID string, res *montecarlo.Result) error
	RecordSolutions(runID string, solutions []optimization.Summary) error
	Close() error
}

// Drivers accepted by New.
const (
	DriverNone   = "none"
	DriverSQLite = "sqlite"
)

// New opens the recorder for driver. An unknown driver, or a SQLite database
// that cannot be opened, falls back to a NoopRecorder so a run never fails
// because history could not be kept.
func New(driver, path string, logger *zap.Logger) Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch driver {
	case DriverSQLite:
		r, err := NewSQLiteRecorder(path, logger)
		if err != nil {
			logger.Warn("sqlite recorder unavailable, runs will not be recorded",
				zap.String("op", "recorder.New"),
				zap.String("path", path),
				zap.Error(err),
			)
			return NewNoopRecorder()
		}
		return r
	case "", DriverNone:
		return NewNoopRecorder()
	default:
		logger.Warn("unknown recorder driver",
			zap.String("op", "recorder.New"),
			zap.String("driver", driver),
		)
		return NewNoopRecorder()
	}
}
