// Package loader reads one JHU-style daily report file per calendar day and
// concatenates them into a single raw table.
package loader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// DefaultDateFormat is the file-name layout of the JHU daily reports, e.g. 03-22-2020.csv.
const DefaultDateFormat = "01-02-2006"

// Options configures a Loader.
type Options struct {
	Dir           string
	DateFormat    string
	Extension     string
	HeaderAliases []domain.HeaderAlias
	// ProgressInterval is the number of days between progress log lines.
	ProgressInterval int
}

// DefaultOptions returns options for the JHU layout under dir.
func DefaultOptions(dir string) Options {
	return Options{
		Dir:              dir,
		DateFormat:       DefaultDateFormat,
		Extension:        ".csv",
		HeaderAliases:    domain.DefaultHeaderAliases(),
		ProgressInterval: 50,
	}
}

// Result is a raw concatenated table and the report of how it was built.
type Result struct {
	Table  domain.Table
	Report domain.LoadReport
}

// Loader reads daily report files from a directory.
type Loader struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Loader. Empty option fields take their defaults.
func New(opts Options, logger *slog.Logger) *Loader {
	def := DefaultOptions(opts.Dir)
	if opts.DateFormat == "" {
		opts.DateFormat = def.DateFormat
	}
	if opts.Extension == "" {
		opts.Extension = def.Extension
	}
	if opts.HeaderAliases == nil {
		opts.HeaderAliases = def.HeaderAliases
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = def.ProgressInterval
	}
	return &Loader{opts: opts, logger: logger}
}

// Path returns the expected file path of the report for date.
func (l *Loader) Path(date time.Time) string {
	return filepath.Join(l.opts.Dir, date.Format(l.opts.DateFormat)+l.opts.Extension)
}

// CheckReadiness reports whether the source directory can be listed.
func (l *Loader) CheckReadiness(_ context.Context) error {
	info, err := os.Stat(l.opts.Dir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source directory: %s is not a directory", l.opts.Dir)
	}
	f, err := os.Open(l.opts.Dir)
	if err != nil {
		return fmt.Errorf("source directory: %w", err)
	}
	return f.Close()
}

// Load reads every day in [start, end]. Absent files are recorded as missing
// dates and unreadable files as failures; neither stops the load. A range
// without any file yields an empty table and no error. Load only fails on an
// invalid range or a cancelled context.
func (l *Loader) Load(ctx context.Context, start, end time.Time) (Result, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return Result{}, err
	}

	report := domain.LoadReport{Start: start, End: end}
	var tables []domain.Table
	days := 0

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return Result{}, fmt.Errorf("load cancelled at %s: %w", d.Format(domain.DateLayout), err)
		}
		days++
		if days%l.opts.ProgressInterval == 0 {
			l.logger.Info("loading daily reports", "date", d.Format(domain.DateLayout), "days", days, "files_loaded", report.FilesLoaded)
		}

		path := l.Path(d)
		t, err := l.readFile(path, d)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			report.MissingDates = append(report.MissingDates, d)
			l.logger.Warn("daily report missing", "date", d.Format(domain.DateLayout), "file", path)
		case err != nil:
			report.FailedFiles = append(report.FailedFiles, domain.FileFailure{Path: path, Reason: err.Error()})
			l.logger.Warn("daily report unreadable", "date", d.Format(domain.DateLayout), "file", path, "error", err)
		default:
			report.FilesLoaded++
			tables = append(tables, t)
		}
	}

	table := domain.Concat(tables...)
	report.Rows = table.Len()
	l.logger.Debug("daily reports loaded",
		"files_loaded", report.FilesLoaded,
		"missing", report.Skipped(),
		"failed", len(report.FailedFiles),
		"rows", report.Rows,
	)
	return Result{Table: table, Report: report}, nil
}

func (l *Loader) readFile(path string, date time.Time) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	t, err := ReadReport(f)
	if err != nil {
		return domain.Table{}, err
	}
	t = domain.ReconcileHeaders(t, l.opts.HeaderAliases)

	dates := make([]domain.Cell, t.Len())
	for i := range dates {
		dates[i] = domain.Str(date.Format(domain.DateLayout))
	}
	return t.WithColumn(domain.RawDate, dates), nil
}

// ErrEmptyReport is returned for a file without a header line.
var ErrEmptyReport = errors.New("empty report")

// ReadReport parses one daily report. Empty cells become missing values.
// Short rows are padded with missing values and long rows are truncated to
// the header width. A CSV syntax error fails the whole file.
func ReadReport(r io.Reader) (domain.Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return domain.Table{}, ErrEmptyReport
	}
	if err != nil {
		return domain.Table{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := domain.Table{Columns: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Table{}, fmt.Errorf("read row %d: %w", t.Len()+1, err)
		}
		row := make([]domain.Cell, len(header))
		for i := range row {
			if i < len(rec) && rec[i] != "" {
				row[i] = domain.Str(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}
