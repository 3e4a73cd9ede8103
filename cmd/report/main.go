// Command report loads a date range of daily reports and prints a terminal
// summary: load report, KPIs, a top-N country table and the continent rollup.
//
// Usage:
//
//	go run ./cmd/report -start 2020-03-01 -end 2020-03-31 -n 15 -metric deaths
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/covid-data-etl/internal/analytics"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	startFlag := flag.String("start", formatOptional(cfg.DefaultStart), "first date (YYYY-MM-DD)")
	endFlag := flag.String("end", formatOptional(cfg.DefaultEnd), "last date (YYYY-MM-DD)")
	n := flag.Int("n", 10, "rows in the top countries table")
	metricFlag := flag.String("metric", string(analytics.Confirmed), "metric ranked in the top countries table")
	continent := flag.String("continent", "", "restrict the report to one continent")
	countries := flag.String("countries", "", "comma separated countries to restrict the report to")
	flag.Parse()

	if *startFlag == "" || *endFlag == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -start, -end")
	}
	start, err := time.Parse(domain.DateLayout, *startFlag)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	end, err := time.Parse(domain.DateLayout, *endFlag)
	if err != nil {
		return fmt.Errorf("invalid -end: %w", err)
	}
	metric, err := analytics.ParseMetric(*metricFlag)
	if err != nil {
		return err
	}
	if *n < 1 {
		return fmt.Errorf("invalid -n: must be positive")
	}

	// Logs go to stderr so they never interleave with the report.
	logger := observability.NewLoggerTo(os.Stderr, cfg)
	p, err := pipeline.NewFromConfig(cfg, nil, logger, observability.NewMetricsForTesting())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ds, err := p.Load(ctx, start, end)
	if err != nil {
		return err
	}

	filter := analytics.Filter{Continent: *continent, Countries: splitList(*countries)}
	return render(os.Stdout, ds, filter.Apply(ds.Observations), metric, *n)
}

func formatOptional(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
