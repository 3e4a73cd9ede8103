package main

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
	"github.com/couchcryptid/covid-data-etl/internal/loader"
	"github.com/couchcryptid/covid-data-etl/internal/reference"
)

var (
	legacyHeader = []string{"Province/State", "Country/Region", "Last Update", "Confirmed", "Deaths", "Recovered"}
	modernHeader = []string{"FIPS", "Admin2", "Province_State", "Country_Region", "Last_Update", "Lat", "Long_", "Confirmed", "Deaths", "Recovered", "Active", "Combined_Key"}
)

const (
	legacyStampLayout = "1/2/2006 15:04"
	modernStampLayout = "2006-01-02 15:04:05"
)

// place is one reporting unit of the synthetic feed. legacy and modern are
// the country labels of the two header layouts.
type place struct {
	legacy, modern string
	region         string
	continent      string
	lat, long      float64

	base     float64 // confirmed on day zero
	growth   float64 // daily growth factor
	fatality float64
	recovery float64 // share of confirmed recovered by the last day
}

// places mixes aliased labels, split regions and one country with no continent.
var places = []place{
	{legacy: "Mainland China", modern: "China", region: "Hubei", continent: "Asia", lat: 30.97, long: 112.27, base: 60000, growth: 1.004, fatality: 0.045, recovery: 0.9},
	{legacy: "Mainland China", modern: "China", region: "Guangdong", continent: "Asia", lat: 23.34, long: 113.42, base: 1300, growth: 1.002, fatality: 0.006, recovery: 0.95},
	{legacy: "US", modern: "US", region: "New York", continent: "America", lat: 42.17, long: -74.95, base: 100, growth: 1.35, fatality: 0.05},
	{legacy: "US", modern: "US", region: "Washington", continent: "America", lat: 47.40, long: -121.49, base: 300, growth: 1.15, fatality: 0.06},
	{legacy: "Italy", modern: "Italy", continent: "Europe", lat: 41.87, long: 12.56, base: 1700, growth: 1.2, fatality: 0.09, recovery: 0.2},
	{legacy: "Korea, South", modern: "Korea, South", continent: "Asia", lat: 35.91, long: 127.77, base: 4000, growth: 1.05, fatality: 0.01, recovery: 0.4},
	{legacy: "Iran", modern: "Iran", continent: "Asia", lat: 32.43, long: 53.69, base: 1500, growth: 1.18, fatality: 0.05, recovery: 0.35},
	{legacy: "Brazil", modern: "Brazil", continent: "America", lat: -14.24, long: -51.93, base: 20, growth: 1.3, fatality: 0.03},
	{legacy: "Mexico", modern: "Mexico", continent: "America", lat: 23.63, long: -102.55, base: 5, growth: 1.28, fatality: 0.02},
	{legacy: "Germany", modern: "Germany", continent: "Europe", lat: 51.17, long: 10.45, base: 500, growth: 1.25, fatality: 0.004, recovery: 0.05},
	{legacy: "South Africa", modern: "South Africa", continent: "Africa", lat: -30.56, long: 22.94, base: 7, growth: 1.3, fatality: 0.002},
	{legacy: "Australia", modern: "Australia", region: "New South Wales", continent: "Oceania", lat: -33.87, long: 151.21, base: 50, growth: 1.2, fatality: 0.004, recovery: 0.1},
	{legacy: "Others", modern: "Diamond Princess", lat: 35.44, long: 139.64, base: 700, growth: 1.0, fatality: 0.01, recovery: 0.5},
}

type genOptions struct {
	dir       string
	reference string
	start     time.Time
	days      int
	switchAt  time.Time // first date written in the modern layout
	skipEvery int       // every n-th date has no file; zero writes all
	seed      uint64
}

type genSummary struct {
	files, skipped, rows int
}

// generate writes one daily report per date plus the continent table.
// Counts are cumulative and never decrease for a place.
func generate(opts genOptions) (genSummary, error) {
	var sum genSummary
	if opts.days < 1 {
		return sum, fmt.Errorf("days must be positive")
	}
	if err := os.MkdirAll(opts.dir, 0o755); err != nil {
		return sum, err
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	clock := clockwork.NewFakeClockAt(opts.start.Add(23 * time.Hour))
	prev := make([]int64, len(places))

	for day := range opts.days {
		date := opts.start.AddDate(0, 0, day)
		stamp := clock.Now()
		clock.Advance(24 * time.Hour)

		counts := make([][3]int64, len(places))
		for i, p := range places {
			confirmed := int64(math.Round(p.base * math.Pow(p.growth, float64(day)) * (1 + rng.Float64()*0.02)))
			confirmed = max(confirmed, prev[i])
			prev[i] = confirmed
			deaths := int64(math.Round(float64(confirmed) * p.fatality))
			recovered := int64(math.Round(float64(confirmed) * p.recovery * float64(day+1) / float64(opts.days)))
			counts[i] = [3]int64{confirmed, deaths, recovered}
		}

		if opts.skipEvery > 0 && (day+1)%opts.skipEvery == 0 {
			sum.skipped++
			continue
		}

		path := filepath.Join(opts.dir, date.Format(loader.DefaultDateFormat)+".csv")
		modern := !date.Before(opts.switchAt)
		if err := writeDay(path, modern, stamp, counts); err != nil {
			return sum, fmt.Errorf("write %s: %w", path, err)
		}
		sum.files++
		sum.rows += len(places)
	}

	if opts.reference != "" {
		if err := writeReference(opts.reference); err != nil {
			return sum, fmt.Errorf("write continent table: %w", err)
		}
	}
	return sum, nil
}

func writeDay(path string, modern bool, stamp time.Time, counts [][3]int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := legacyHeader
	if modern {
		header = modernHeader
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i, p := range places {
		c := counts[i]
		confirmed, deaths, recovered := strconv.FormatInt(c[0], 10), strconv.FormatInt(c[1], 10), strconv.FormatInt(c[2], 10)
		var row []string
		if modern {
			combined := p.modern
			if p.region != "" {
				combined = p.region + ", " + p.modern
			}
			row = []string{
				"", "", p.region, p.modern, stamp.Format(modernStampLayout),
				strconv.FormatFloat(p.lat, 'f', 4, 64), strconv.FormatFloat(p.long, 'f', 4, 64),
				confirmed, deaths, recovered, strconv.FormatInt(c[0]-c[1]-c[2], 10), combined,
			}
		} else {
			row = []string{p.region, p.legacy, stamp.Format(legacyStampLayout), confirmed, deaths, recovered}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// writeReference writes the continent of every place that has one, keyed by
// canonical country name.
func writeReference(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	names := domain.DefaultNormalizer()
	ref := make(domain.ContinentTable)
	for _, p := range places {
		if p.continent != "" {
			ref[names.Canonical(p.modern)] = p.continent
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := reference.WriteContinents(f, ref); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
