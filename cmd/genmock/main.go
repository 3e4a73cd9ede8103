// Command genmock writes synthetic JHU-style daily report files for demos
// and manual testing. Dates before -switch use the early 2020 header layout
// and legacy country labels; later dates use the current layout. A continent
// reference table is written alongside.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/raw \
//	  -reference data/reference/continents.csv \
//	  -start 2020-03-01 -days 45 -switch 2020-03-22 -skip-every 10
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/raw", "directory for the daily report files")
	ref := flag.String("reference", "data/reference/continents.csv", "path of the continent table; empty skips it")
	startFlag := flag.String("start", "2020-03-01", "first date (YYYY-MM-DD)")
	days := flag.Int("days", 45, "number of dates to generate")
	switchFlag := flag.String("switch", "2020-03-22", "first date written in the current header layout")
	skipEvery := flag.Int("skip-every", 0, "leave out every n-th date to simulate missing files")
	seed := flag.Uint64("seed", 1, "random seed for count jitter")
	flag.Parse()

	start, err := time.Parse(domain.DateLayout, *startFlag)
	if err != nil {
		return fmt.Errorf("invalid -start: %w", err)
	}
	switchAt, err := time.Parse(domain.DateLayout, *switchFlag)
	if err != nil {
		return fmt.Errorf("invalid -switch: %w", err)
	}

	sum, err := generate(genOptions{
		dir:       *out,
		reference: *ref,
		start:     start,
		days:      *days,
		switchAt:  switchAt,
		skipEvery: *skipEvery,
		seed:      *seed,
	})
	if err != nil {
		return err
	}

	log.Printf("wrote %d files (%d rows) to %s, skipped %d dates", sum.files, sum.rows, *out, sum.skipped)
	if *ref != "" {
		log.Printf("wrote continent table: %s", *ref)
	}
	return nil
}
