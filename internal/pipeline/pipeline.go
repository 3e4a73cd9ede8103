package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/loader"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/reference"
)

// RangeLoader reads the raw daily reports of a date range.
type RangeLoader interface {
	Load(ctx context.Context, start, end time.Time) (loader.Result, error)
	CheckReadiness(ctx context.Context) error
}

// ContinentSource provides the country to continent reference table.
type ContinentSource interface {
	Continents() (domain.ContinentTable, error)
}

// Exporter publishes a freshly built dataset to an external sink.
type Exporter interface {
	Name() string
	Export(ctx context.Context, ds *domain.Dataset) error
}

// ContinentFile reads the continent table from a CSV file on every call.
type ContinentFile string

func (f ContinentFile) Continents() (domain.ContinentTable, error) {
	return reference.LoadContinents(string(f))
}

// Options configures a Pipeline.
type Options struct {
	Clean     domain.CleanOptions
	CacheSize int
	// SnapshotDir holds processed-table files. Empty disables them.
	SnapshotDir string
	// Clock stamps ProcessedAt and times builds. Nil uses the real clock.
	Clock clockwork.Clock
}

// Pipeline loads, cleans and enriches date ranges and memoizes the result
// per range. Source files are treated as immutable: a memoized range is only
// rebuilt after ClearCache or eviction.
type Pipeline struct {
	loader     RangeLoader
	continents ContinentSource
	exporters  []Exporter
	opts       Options
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics

	cache   *lruCache
	buildMu sync.Mutex
}

// New creates a Pipeline. continents may be nil, in which case every
// observation is left without a continent.
func New(l RangeLoader, continents ContinentSource, exporters []Exporter, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		loader:     l,
		continents: continents,
		exporters:  exporters,
		opts:       opts,
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
		cache:      newLRUCache(opts.CacheSize),
	}
}

// CheckReadiness returns nil when the source directory is readable.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if err := p.loader.CheckReadiness(ctx); err != nil {
		p.metrics.PipelineReady.Set(0)
		return err
	}
	p.metrics.PipelineReady.Set(1)
	return nil
}

// ClearCache drops every memoized range and deletes the processed snapshots,
// so the next Load of any range reads the raw files again. It returns the
// number of memoized ranges dropped.
func (p *Pipeline) ClearCache() int {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	n := p.cache.clear()
	removed := 0
	if p.opts.SnapshotDir != "" {
		var err error
		removed, err = RemoveSnapshots(p.opts.SnapshotDir)
		if err != nil {
			p.logger.Warn("processed snapshots not fully removed", "dir", p.opts.SnapshotDir, "error", err)
		}
	}
	p.logger.Info("dataset cache cleared", "entries", n, "snapshot_files", removed)
	return n
}

// Load returns the cleaned and enriched dataset for [start, end]. Missing and
// malformed files are reported in the dataset's LoadReport. An empty dataset
// is a valid result. Errors are limited to an invalid range and cancellation.
func (p *Pipeline) Load(ctx context.Context, start, end time.Time) (*domain.Dataset, error) {
	if err := domain.ValidateRange(start, end); err != nil {
		return nil, err
	}
	key := cacheKey(start, end)
	if ds, ok := p.cache.get(key); ok {
		p.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return ds, nil
	}

	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	// Another caller may have built the range while we waited.
	if ds, ok := p.cache.get(key); ok {
		p.metrics.CacheLookups.WithLabelValues("hit").Inc()
		return ds, nil
	}

	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID, "start", start.Format(domain.DateLayout), "end", end.Format(domain.DateLayout))

	if ds, ok := p.fromSnapshot(logger, runID, start, end); ok {
		p.metrics.CacheLookups.WithLabelValues("snapshot").Inc()
		p.cache.put(key, ds)
		return ds, nil
	}
	p.metrics.CacheLookups.WithLabelValues("miss").Inc()

	ds, err := p.build(ctx, logger, runID, start, end)
	if err != nil {
		return nil, err
	}
	p.cache.put(key, ds)

	if !ds.Empty() {
		p.writeSnapshot(logger, start, end, ds)
		p.export(ctx, logger, ds)
	}
	return ds, nil
}

func (p *Pipeline) build(ctx context.Context, logger *slog.Logger, runID string, start, end time.Time) (*domain.Dataset, error) {
	began := p.clock.Now()

	res, err := p.loader.Load(ctx, start, end)
	if err != nil {
		return nil, err
	}
	report := res.Report
	report.RunID = runID
	p.metrics.FilesLoaded.Add(float64(report.FilesLoaded))
	p.metrics.FilesMissing.Add(float64(report.Skipped()))
	p.metrics.FilesFailed.Add(float64(len(report.FailedFiles)))

	obs := []domain.Observation{}
	if !res.Table.Empty() {
		cleaned := domain.Clean(res.Table, p.opts.Clean)
		logger.Debug("table cleaned", "columns", len(cleaned.Columns), "rows", cleaned.Len())
		obs, err = domain.Observations(cleaned)
		if err != nil {
			// Every loaded file carries a date column, so this only happens
			// when no file had a country column.
			logger.Warn("cleaned table unusable", "error", err)
			report.FailedFiles = append(report.FailedFiles, domain.FileFailure{Path: "*", Reason: err.Error()})
			obs = []domain.Observation{}
		}
	}

	var ref domain.ContinentTable
	if p.continents != nil {
		ref, err = p.continents.Continents()
		if err != nil {
			logger.Warn("continent table unavailable, continents left empty", "error", err)
			ref = nil
		}
	}
	enriched := domain.EnrichContinents(obs, ref)
	report.ContinentsLoaded = enriched.ReferenceLoaded
	report.UnmappedCountries = enriched.Unmapped
	report.Rows = len(enriched.Observations)
	if len(enriched.Unmapped) > 0 && enriched.ReferenceLoaded {
		logger.Warn("countries without continent", "count", len(enriched.Unmapped), "countries", enriched.Unmapped)
	}

	p.metrics.RowsLoaded.Add(float64(report.Rows))
	p.metrics.UnmappedCountries.Set(float64(len(enriched.Unmapped)))
	p.metrics.LoadDuration.Observe(p.clock.Since(began).Seconds())

	logger.Info("dataset built",
		"files_loaded", report.FilesLoaded,
		"missing_days", report.Skipped(),
		"failed_files", len(report.FailedFiles),
		"rows", report.Rows,
		"duration", p.clock.Since(began),
	)

	return &domain.Dataset{
		Observations: enriched.Observations,
		Report:       report,
		ProcessedAt:  p.clock.Now(),
	}, nil
}

func (p *Pipeline) snapshotPath(start, end time.Time) string {
	return filepath.Join(p.opts.SnapshotDir, SnapshotName(start, end, p.opts.Clean.ActiveMode))
}

// fromSnapshot reads a processed table and the load report stored with it.
// A snapshot without a readable report is rebuilt.
func (p *Pipeline) fromSnapshot(logger *slog.Logger, runID string, start, end time.Time) (*domain.Dataset, bool) {
	if p.opts.SnapshotDir == "" {
		return nil, false
	}
	path := p.snapshotPath(start, end)
	obs, err := ReadSnapshot(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("processed snapshot unreadable, rebuilding", "file", path, "error", err)
		}
		return nil, false
	}
	report, err := ReadReport(ReportPath(path))
	if err != nil {
		logger.Warn("processed snapshot has no load report, rebuilding", "file", path, "error", err)
		return nil, false
	}
	report.RunID = runID
	report.Rows = len(obs)
	report.FromSnapshot = true

	logger.Info("dataset read from processed snapshot", "file", path, "rows", len(obs), "missing_days", report.Skipped())
	return &domain.Dataset{Observations: obs, Report: report, ProcessedAt: p.clock.Now()}, true
}

func (p *Pipeline) writeSnapshot(logger *slog.Logger, start, end time.Time, ds *domain.Dataset) {
	if p.opts.SnapshotDir == "" {
		return
	}
	path := p.snapshotPath(start, end)
	if err := WriteReport(ReportPath(path), ds.Report); err != nil {
		logger.Warn("processed snapshot report not written", "file", path, "error", err)
		return
	}
	if err := WriteSnapshot(path, ds.Observations); err != nil {
		logger.Warn("processed snapshot not written", "file", path, "error", err)
		return
	}
	logger.Debug("processed snapshot written", "file", path)
}

func (p *Pipeline) export(ctx context.Context, logger *slog.Logger, ds *domain.Dataset) {
	for _, e := range p.exporters {
		if err := e.Export(ctx, ds); err != nil {
			logger.Error("export failed", "sink", e.Name(), "error", err)
			p.metrics.Exports.WithLabelValues(e.Name(), "error").Inc()
			continue
		}
		p.metrics.Exports.WithLabelValues(e.Name(), "success").Inc()
		logger.Info("dataset exported", "sink", e.Name(), "rows", len(ds.Observations))
	}
}

func cacheKey(start, end time.Time) string {
	return start.Format(domain.DateLayout) + "|" + end.Format(domain.DateLayout)
}
