package recorder

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/montecarlo"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/scenario"
	"github.com/javaxhaskell/Real-Estate-Modelling/internal/underwriting"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/mathutil"
	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/optimization"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists runs to a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	logger *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger *zap.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, logger: logger}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.Info("sqlite recorder opened", zap.String("op", "recorder.Open"), zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id              TEXT PRIMARY KEY,
			timestamp       INTEGER NOT NULL,
			deal_name       TEXT,
			purchase_price  REAL,
			hold_months     INTEGER,
			equity          REAL,
			irr             REAL,
			npv             REAL,
			equity_multiple REAL,
			avg_coc         REAL,
			min_dscr        REAL,
			ltv_exit        REAL,
			deal_json       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS scenario_outcomes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES runs(id),
			name       TEXT NOT NULL,
			irr        REAL,
			npv        REAL,
			irr_delta  REAL,
			npv_delta  REAL,
			error_kind TEXT,
			error      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_scenario_run ON scenario_outcomes(run_id)`,

		`CREATE TABLE IF NOT EXISTS simulations (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES runs(id),
			seed       TEXT,
			requested  INTEGER,
			completed  INTEGER,
			excluded   INTEGER,
			cancelled  INTEGER,
			irr_mean   REAL,
			irr_p5     REAL,
			irr_p50    REAL,
			irr_p95    REAL,
			npv_mean   REAL,
			npv_p5     REAL,
			npv_p50    REAL,
			npv_p95    REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_simulation_run ON simulations(run_id)`,

		`CREATE TABLE IF NOT EXISTS downside_probabilities (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			simulation_id INTEGER NOT NULL REFERENCES simulations(id),
			metric        TEXT,
			threshold     REAL,
			count         INTEGER,
			probability   REAL
		)`,

		`CREATE TABLE IF NOT EXISTS break_even (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES runs(id),
			field      TEXT NOT NULL,
			original   REAL,
			value      REAL,
			hurdle     REAL,
			irr        REAL,
			iterations INTEGER,
			converged  INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_break_even_run ON break_even(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the headline metrics of a base run and returns its id.
func (r *SQLiteRecorder) RecordRun(res *underwriting.Result) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dealJSON, err := json.Marshal(res.Deal)
	if err != nil {
		return "", fmt.Errorf("encode deal: %w", err)
	}

	id := uuid.NewString()
	m := res.Metrics
	_, err = r.db.Exec(`INSERT INTO runs
		(id, timestamp, deal_name, purchase_price, hold_months, equity,
		 irr, npv, equity_multiple, avg_coc, min_dscr, ltv_exit, deal_json)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, time.Now().Unix(), res.Deal.Name, res.Deal.PurchasePrice, res.Deal.HoldMonths,
		m.EquityInvested, finite(m.IRR), finite(m.NPV), finite(m.EquityMultiple),
		ratio(m.AverageCashOnCash), ratio(m.MinDSCR), ratio(m.LTVExit),
		string(dealJSON),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordScenarios stores one row per scenario outcome, base included.
func (r *SQLiteRecorder) RecordScenarios(runID string, res *scenario.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(`INSERT INTO scenario_outcomes
		(run_id, name, irr, npv, irr_delta, npv_delta, error_kind, error)
		VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, o := range res.Outcomes {
		var irr, npv, irrDelta, npvDelta any
		if o.Metrics != nil {
			irr, npv = finite(o.Metrics.IRR), finite(o.Metrics.NPV)
			irrDelta, npvDelta = finite(o.IRRDelta), finite(o.NPVDelta)
		}
		if _, err := stmt.Exec(runID, o.Name, irr, npv, irrDelta, npvDelta, o.ErrorKind, o.Error); err != nil {
			return fmt.Errorf("scenario %q: %w", o.Name, err)
		}
	}
	return tx.Commit()
}

// RecordSimulation stores the simulation summary and downside probabilities.
// Individual draws are not kept.
func (r *SQLiteRecorder) RecordSimulation(runID string, res *montecarlo.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	// The seed is a uint64 and may not fit SQLite's signed integers.
	out, err := tx.Exec(`INSERT INTO simulations
		(run_id, seed, requested, completed, excluded, cancelled,
		 irr_mean, irr_p5, irr_p50, irr_p95, npv_mean, npv_p5, npv_p50, npv_p95)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		runID, fmt.Sprintf("%d", res.Seed), res.Requested, res.Completed, res.Excluded, res.Cancelled,
		summaryMean(res.IRR), percentile(res.IRR, 5), percentile(res.IRR, 50), percentile(res.IRR, 95),
		summaryMean(res.NPV), percentile(res.NPV, 5), percentile(res.NPV, 50), percentile(res.NPV, 95),
	)
	if err != nil {
		return err
	}
	simID, err := out.LastInsertId()
	if err != nil {
		return err
	}

	for _, p := range res.Downside {
		if _, err := tx.Exec(`INSERT INTO downside_probabilities
			(simulation_id, metric, threshold, count, probability)
			VALUES (?,?,?,?,?)`,
			simID, p.Metric, p.Threshold, p.Count, finite(p.Probability),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordSolutions stores one row per break-even solve.
func (r *SQLiteRecorder) RecordSolutions(runID string, solutions []optimization.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for _, s := range solutions {
		if _, err := tx.Exec(`INSERT INTO break_even
			(run_id, field, original, value, hurdle, irr, iterations, converged)
			VALUES (?,?,?,?,?,?,?,?)`,
			runID, s.Field, finite(s.Original), finite(s.Value), finite(s.Hurdle),
			ratio(s.IRR), s.Iterations, s.Converged,
		); err != nil {
			return fmt.Errorf("solve %q: %w", s.Field, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) Close() error {
	r.logger.Info("closing sqlite recorder", zap.String("op", "recorder.Close"))
	return r.db.Close()
}

// finite maps non-finite values to NULL.
func finite(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func ratio(v mathutil.Ratio) any {
	return finite(float64(v))
}

func summaryMean(s montecarlo.Summary) any {
	if s.Count == 0 {
		return nil
	}
	return finite(s.Mean)
}

func percentile(s montecarlo.Summary, p float64) any {
	v, ok := s.Value(p)
	if !ok || s.Count == 0 {
		return nil
	}
	return finite(v)
}
