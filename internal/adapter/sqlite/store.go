// Package sqlite persists cleaned datasets to a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// SinkName labels this exporter in logs and metrics.
const SinkName = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id        TEXT PRIMARY KEY,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	processed_at  TEXT NOT NULL,
	files_loaded  INTEGER NOT NULL,
	rows          INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS observations (
	date         TEXT NOT NULL,
	country      TEXT NOT NULL,
	region       TEXT NOT NULL DEFAULT '',
	last_update  TEXT,
	confirmed    INTEGER NOT NULL,
	deaths       INTEGER NOT NULL,
	recovered    INTEGER NOT NULL,
	active_cases INTEGER NOT NULL,
	continent    TEXT NOT NULL DEFAULT '',
	run_id       TEXT NOT NULL REFERENCES runs(run_id),
	PRIMARY KEY (date, country, region)
);
CREATE INDEX IF NOT EXISTS idx_observations_country ON observations(country);
`

const upsertObservation = `
INSERT INTO observations (date, country, region, last_update, confirmed, deaths, recovered, active_cases, continent, run_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (date, country, region) DO UPDATE SET
	last_update  = excluded.last_update,
	confirmed    = excluded.confirmed,
	deaths       = excluded.deaths,
	recovered    = excluded.recovered,
	active_cases = excluded.active_cases,
	continent    = excluded.continent,
	run_id       = excluded.run_id`

// Store writes datasets into an observations table keyed by date, country
// and region. Re-exporting an overlapping range updates rows in place.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Name() string { return SinkName }

// Export records the run and upserts every observation in one transaction.
func (s *Store) Export(ctx context.Context, ds *domain.Dataset) (err error) {
	if ds.Empty() {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin export: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	r := ds.Report
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (run_id, start_date, end_date, processed_at, files_loaded, rows) VALUES (?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout),
		ds.ProcessedAt.UTC().Format(time.RFC3339), r.FilesLoaded, len(ds.Observations),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, upsertObservation)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for i := range ds.Observations {
		o := &ds.Observations[i]
		var lastUpdate sql.NullString
		if o.LastUpdate != nil {
			lastUpdate = sql.NullString{String: o.LastUpdate.UTC().Format(time.RFC3339), Valid: true}
		}
		if _, err = stmt.ExecContext(ctx,
			o.Date.Format(domain.DateLayout), o.Country, o.Region, lastUpdate,
			o.Confirmed, o.Deaths, o.Recovered, o.Active, o.Continent, r.RunID,
		); err != nil {
			return fmt.Errorf("upsert %s: %w", o.Key(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit export: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
