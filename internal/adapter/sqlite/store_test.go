package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	day1 = time.Date(2020, 3, 21, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2020, 3, 22, 0, 0, 0, 0, time.UTC)
)

func dataset(runID string, obs ...domain.Observation) *domain.Dataset {
	return &domain.Dataset{
		Observations: obs,
		Report:       domain.LoadReport{RunID: runID, Start: day1, End: day2, FilesLoaded: 2},
		ProcessedAt:  time.Date(2020, 4, 1, 6, 0, 0, 0, time.UTC),
	}
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "covid.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func count(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestStore_Export(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	ts := time.Date(2020, 3, 22, 18, 13, 20, 0, time.UTC)

	ds := dataset("run-1",
		domain.Observation{Date: day1, Country: "Italy", Confirmed: 53578, Deaths: 4825, Recovered: 6072, Active: 42681, Continent: "Europe"},
		domain.Observation{Date: day2, Country: "Italy", LastUpdate: &ts, Confirmed: 59138, Deaths: 5476, Recovered: 7024, Active: 46638, Continent: "Europe"},
		domain.Observation{Date: day2, Country: "China", Region: "Hubei", Confirmed: 67800},
	)
	require.NoError(t, s.Export(ctx, ds))

	assert.Equal(t, 3, count(t, s.db, `SELECT COUNT(*) FROM observations`))
	assert.Equal(t, 1, count(t, s.db, `SELECT COUNT(*) FROM runs WHERE run_id = ? AND rows = 3`, "run-1"))

	var confirmed int64
	var lastUpdate sql.NullString
	require.NoError(t, s.db.QueryRow(
		`SELECT confirmed, last_update FROM observations WHERE date = ? AND country = ? AND region = ''`,
		"2020-03-22", "Italy",
	).Scan(&confirmed, &lastUpdate))
	assert.Equal(t, int64(59138), confirmed)
	assert.Equal(t, "2020-03-22T18:13:20Z", lastUpdate.String)
}

func TestStore_ExportUpserts(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	require.NoError(t, s.Export(ctx, dataset("run-1",
		domain.Observation{Date: day1, Country: "Italy", Confirmed: 1},
	)))
	require.NoError(t, s.Export(ctx, dataset("run-2",
		domain.Observation{Date: day1, Country: "Italy", Confirmed: 2},
	)))

	assert.Equal(t, 1, count(t, s.db, `SELECT COUNT(*) FROM observations`))
	assert.Equal(t, 1, count(t, s.db, `SELECT COUNT(*) FROM observations WHERE confirmed = 2 AND run_id = 'run-2'`))
	assert.Equal(t, 2, count(t, s.db, `SELECT COUNT(*) FROM runs`))
}

func TestStore_ExportEmpty(t *testing.T) {
	s := openStore(t)

	require.NoError(t, s.Export(context.Background(), dataset("run-1")))
	assert.Equal(t, 0, count(t, s.db, `SELECT COUNT(*) FROM runs`))
	assert.Equal(t, SinkName, s.Name())
}

func TestStore_ExportCancelled(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Export(ctx, dataset("run-1", domain.Observation{Date: day1, Country: "Italy"}))
	require.Error(t, err)
	assert.Equal(t, 0, count(t, s.db, `SELECT COUNT(*) FROM observations`))
}
