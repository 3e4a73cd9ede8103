package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/loader"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/reference"
)

// NewFromConfig assembles a Pipeline over cfg.DataDir. Extra country aliases
// from cfg.CountryAliasesFile are layered over the default table.
func NewFromConfig(cfg *config.Config, exporters []Exporter, logger *slog.Logger, metrics *observability.Metrics) (*Pipeline, error) {
	clean := domain.DefaultCleanOptions()
	clean.ActiveMode = cfg.ActiveMode

	if cfg.CountryAliasesFile != "" {
		extra, err := reference.LoadCountryAliases(cfg.CountryAliasesFile)
		if err != nil {
			return nil, fmt.Errorf("country aliases: %w", err)
		}
		countries, err := clean.Countries.With(extra)
		if err != nil {
			return nil, fmt.Errorf("country aliases: %w", err)
		}
		clean.Countries = countries
		logger.Info("country aliases loaded", "file", cfg.CountryAliasesFile, "aliases", len(extra))
	}

	l := loader.New(loader.Options{
		Dir:              cfg.DataDir,
		DateFormat:       cfg.FileDateFormat,
		HeaderAliases:    cfg.HeaderAliases,
		ProgressInterval: cfg.ProgressInterval,
	}, logger)

	var continents ContinentSource
	if cfg.ContinentFile != "" {
		continents = ContinentFile(cfg.ContinentFile)
	}

	opts := Options{Clean: clean, CacheSize: cfg.CacheSize}
	if cfg.ProcessedCacheEnabled {
		opts.SnapshotDir = cfg.ProcessedDir
	}
	return New(l, continents, exporters, opts, logger, metrics), nil
}
