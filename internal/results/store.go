// Package results persists analysis rows: a SQLite store for querying across
// runs, and CSV writers matching the layout the reporting scripts consume.
package results

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migsqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/eoverify/rtcqa/internal/analysis"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a SQLite-backed archive of analysis rows keyed by run.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the results database at path and applies
// any pending schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	driver, err := migsqlite.WithInstance(db, &migsqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate results schema: %w", err)
	}
	return nil
}

// BeginRun records a new analysis run and returns its id.
func (s *Store) BeginRun(mode, configJSON string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO runs (id, mode, started, config) VALUES (?, ?, ?, ?)`,
		id, mode, time.Now().UTC(), configJSON,
	)
	if err != nil {
		return "", fmt.Errorf("record run: %w", err)
	}
	return id, nil
}

// InsertStats stores stats rows for a run in one transaction.
func (s *Store) InsertStats(runID string, rows []analysis.StatsRow) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO stats_rows
			(run_id, date, aoi, pol, method, method_name, mean, std, cv, n)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(runID, r.Date, r.AOI, r.Pol, r.Method, r.MethodName,
				nullable(r.Mean), nullable(r.Std), nullable(r.CV), r.N); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertComparisons stores comparison rows for a run in one transaction.
func (s *Store) InsertComparisons(runID string, rows []analysis.ComparisonRow) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO comparison_rows
			(run_id, date, aoi, pol, method, method_name, ref, rmse, bias, r, p)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(runID, r.Date, r.AOI, r.Pol, r.Method, r.MethodName, r.Ref,
				nullable(r.RMSE), nullable(r.Bias), nullable(r.R), nullable(r.P)); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertLIA stores incidence-angle regression rows for a run in one
// transaction.
func (s *Store) InsertLIA(runID string, rows []analysis.LIARow) error {
	return s.inTx(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO lia_rows
			(run_id, date, aoi, pol, method, slope, intercept, r2, n, quality)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range rows {
			if _, err := stmt.Exec(runID, r.Date, r.AOI, r.Pol, r.Method,
				nullable(r.Slope), nullable(r.Intercept), nullable(r.R2), r.N, r.Quality); err != nil {
				return err
			}
		}
		return nil
	})
}

// StatsByRun loads the stats rows recorded for a run, in insertion order.
func (s *Store) StatsByRun(runID string) ([]analysis.StatsRow, error) {
	rows, err := s.db.Query(`SELECT date, aoi, pol, method, method_name, mean, std, cv, n
		FROM stats_rows WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []analysis.StatsRow
	for rows.Next() {
		var r analysis.StatsRow
		var mean, std, cv sql.NullFloat64
		if err := rows.Scan(&r.Date, &r.AOI, &r.Pol, &r.Method, &r.MethodName, &mean, &std, &cv, &r.N); err != nil {
			return nil, err
		}
		r.Mean = fromNullable(mean)
		r.Std = fromNullable(std)
		r.CV = fromNullable(cv)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ComparisonsByRun loads the comparison rows recorded for a run.
func (s *Store) ComparisonsByRun(runID string) ([]analysis.ComparisonRow, error) {
	rows, err := s.db.Query(`SELECT date, aoi, pol, method, method_name, ref, rmse, bias, r, p
		FROM comparison_rows WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []analysis.ComparisonRow
	for rows.Next() {
		var r analysis.ComparisonRow
		var rmse, bias, rr, p sql.NullFloat64
		if err := rows.Scan(&r.Date, &r.AOI, &r.Pol, &r.Method, &r.MethodName, &r.Ref, &rmse, &bias, &rr, &p); err != nil {
			return nil, err
		}
		r.RMSE = fromNullable(rmse)
		r.Bias = fromNullable(bias)
		r.R = fromNullable(rr)
		r.P = fromNullable(p)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LIAByRun loads the regression rows recorded for a run.
func (s *Store) LIAByRun(runID string) ([]analysis.LIARow, error) {
	rows, err := s.db.Query(`SELECT date, aoi, pol, method, slope, intercept, r2, n, quality
		FROM lia_rows WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []analysis.LIARow
	for rows.Next() {
		var r analysis.LIARow
		var slope, intercept, r2 sql.NullFloat64
		if err := rows.Scan(&r.Date, &r.AOI, &r.Pol, &r.Method, &slope, &intercept, &r2, &r.N, &r.Quality); err != nil {
			return nil, err
		}
		r.Slope = fromNullable(slope)
		r.Intercept = fromNullable(intercept)
		r.R2 = fromNullable(r2)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// nullable maps NaN to SQL NULL so undefined metrics round-trip as NULL
// rather than a driver error.
func nullable(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
