package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

const snapshotPrefix = "covid_clean_"

// SnapshotName is the file name of the processed table for a range cleaned
// with the given active-cases mode.
func SnapshotName(start, end time.Time, mode domain.ActiveMode) string {
	return fmt.Sprintf("%s%s_%s_%s.csv", snapshotPrefix, start.Format(domain.DateLayout), end.Format(domain.DateLayout), mode)
}

// ReportPath is the load report file stored beside a snapshot.
func ReportPath(snapshot string) string {
	return strings.TrimSuffix(snapshot, ".csv") + ".report.json"
}

var snapshotLoadOptions = []dataframe.LoadOption{
	dataframe.DetectTypes(false),
	dataframe.DefaultType(series.String),
	dataframe.NaNValues(nil),
}

// WriteSnapshot stores observations as a plain CSV table with the canonical
// columns. Missing cells are written empty. The file is replaced atomically.
func WriteSnapshot(path string, obs []domain.Observation) error {
	t := domain.ObservationTable(obs)
	records := make([][]string, 0, t.Len()+1)
	records = append(records, t.Columns)
	for _, row := range t.Rows {
		rec := make([]string, len(row))
		for i, c := range row {
			rec[i] = c.Value
		}
		records = append(records, rec)
	}

	df := dataframe.LoadRecords(records, snapshotLoadOptions...)
	if df.Err != nil {
		return fmt.Errorf("build snapshot: %w", df.Err)
	}

	return writeFileAtomic(path, func(w io.Writer) error { return df.WriteCSV(w) })
}

// WriteReport stores the load report of a snapshot as JSON.
func WriteReport(path string, r domain.LoadReport) error {
	return writeFileAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	})
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (domain.LoadReport, error) {
	var r domain.LoadReport
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("read report: %w", err)
	}
	return r, nil
}

// RemoveSnapshots deletes every snapshot and report file in dir and returns
// the number of files removed.
func RemoveSnapshots(dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, snapshotPrefix+"*"))
	if err != nil {
		return 0, err
	}
	var errs []error
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadSnapshot loads observations written by WriteSnapshot.
func ReadSnapshot(path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	opts := append([]dataframe.LoadOption{dataframe.HasHeader(true)}, snapshotLoadOptions...)
	df := dataframe.ReadCSV(f, opts...)
	if df.Err != nil {
		return nil, fmt.Errorf("read snapshot: %w", df.Err)
	}

	records := df.Records()
	t := domain.Table{Columns: records[0], Rows: make([][]domain.Cell, 0, len(records)-1)}
	for _, rec := range records[1:] {
		row := make([]domain.Cell, len(rec))
		for i, v := range rec {
			if v != "" {
				row[i] = domain.Str(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}

	obs, err := domain.Observations(t)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return obs, nil
}
