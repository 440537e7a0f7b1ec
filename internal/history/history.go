// Package history keeps a local SQLite log of dashboard runs so past
// simulations and optimizations can be listed without the backend.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"

	"bodash/internal/model"
)

// Run kinds.
const (
	KindSimulate = "simulate"
	KindCompare  = "compare"
	KindOptimize = "optimize"
)

// Run is one recorded dashboard run.
type Run struct {
	ID                 string
	Kind               string
	BuildOrder         string
	StartedAt          time.Time
	Elapsed            time.Duration
	TimeToFirstFactory *int
	PeakMetalIncome    float64
	PeakEnergyIncome   float64
	StallSeconds       int
	ArmyValue          float64
	// Fitness is only set for optimize runs.
	Fitness *float64
}

// FromResult fills the result-derived fields of a Run.
func FromResult(id, kind string, started time.Time, elapsed time.Duration, r *model.SimulationResult) Run {
	return Run{
		ID:                 id,
		Kind:               kind,
		BuildOrder:         r.BuildOrderName,
		StartedAt:          started,
		Elapsed:            elapsed,
		TimeToFirstFactory: r.TimeToFirstFactory,
		PeakMetalIncome:    r.PeakMetalIncome,
		PeakEnergyIncome:   r.PeakEnergyIncome,
		StallSeconds:       r.TotalMetalStallSeconds + r.TotalEnergyStallSeconds,
		ArmyValue:          r.TotalArmyMetalValue,
	}
}

// Summary renders the run as one human readable line relative to now.
func (r Run) Summary(now time.Time) string {
	s := fmt.Sprintf("%-8s %-24s factory %s  peak %s M/s  stall %ds  army %s  (%s, took %s)",
		r.Kind, r.BuildOrder,
		model.FormatOptionalTick(r.TimeToFirstFactory),
		model.FormatRate(r.PeakMetalIncome),
		r.StallSeconds,
		humanize.Comma(int64(r.ArmyValue)),
		humanize.RelTime(r.StartedAt, now, "ago", "from now"),
		r.Elapsed.Round(time.Millisecond),
	)
	if r.Fitness != nil {
		s += fmt.Sprintf("  fitness %s", humanize.FormatFloat("#,###.##", *r.Fitness))
	}
	return s
}

// Store persists runs in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: empty database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history: ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: schema: %w", err)
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    build_order TEXT,
    started_at INTEGER NOT NULL,
    elapsed_ms INTEGER,
    time_to_first_factory INTEGER,
    peak_metal_income REAL,
    peak_energy_income REAL,
    stall_seconds INTEGER,
    army_value REAL,
    fitness REAL
);
CREATE INDEX IF NOT EXISTS runs_started_at ON runs(started_at);`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts or replaces a run.
func (s *Store) Record(ctx context.Context, r Run) error {
	if s == nil || s.db == nil {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs (
    id, kind, build_order, started_at, elapsed_ms, time_to_first_factory,
    peak_metal_income, peak_energy_income, stall_seconds, army_value, fitness
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Kind,
		r.BuildOrder,
		r.StartedAt.UTC().UnixMilli(),
		r.Elapsed.Milliseconds(),
		nullInt(r.TimeToFirstFactory),
		r.PeakMetalIncome,
		r.PeakEnergyIncome,
		r.StallSeconds,
		r.ArmyValue,
		nullFloat(r.Fitness),
	)
	if err != nil {
		return fmt.Errorf("history: record %s: %w", r.ID, err)
	}
	return nil
}

// List returns the most recent runs, newest first. kind filters when non-empty.
func (s *Store) List(ctx context.Context, kind string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	q := `SELECT id, kind, build_order, started_at, elapsed_ms, time_to_first_factory,
    peak_metal_income, peak_energy_income, stall_seconds, army_value, fitness
FROM runs`
	args := []any{}
	if kind != "" {
		q += " WHERE kind = ?"
		args = append(args, kind)
	}
	q += " ORDER BY started_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r         Run
			started   int64
			elapsedMs int64
			factory   sql.NullInt64
			fitness   sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Kind, &r.BuildOrder, &started, &elapsedMs, &factory,
			&r.PeakMetalIncome, &r.PeakEnergyIncome, &r.StallSeconds, &r.ArmyValue, &fitness); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		if factory.Valid {
			v := int(factory.Int64)
			r.TimeToFirstFactory = &v
		}
		if fitness.Valid {
			v := fitness.Float64
			r.Fitness = &v
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
