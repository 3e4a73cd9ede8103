package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/couchcryptid/covid-data-etl/internal/analytics"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

const maxListed = 10

var (
	heading = color.New(color.FgCyan, color.Bold)
	warning = color.New(color.FgYellow)
	muted   = color.New(color.Faint)
)

// render writes the full report for obs, a selection of ds.
func render(w io.Writer, ds *domain.Dataset, obs []domain.Observation, metric analytics.Metric, n int) error {
	renderLoadSummary(w, ds.Report)

	if len(obs) == 0 {
		warning.Fprintln(w, "\nNo observations match the selection.")
		return nil
	}

	renderKPIs(w, analytics.KPIs(obs))

	top, err := analytics.TopN(obs, metric, n)
	if err != nil {
		return err
	}
	renderTop(w, metric, top)
	renderContinents(w, analytics.ContinentRollup(obs))

	if p, ok := analytics.PeakDate(obs); ok {
		heading.Fprintln(w, "\nPeak")
		fmt.Fprintf(w, "Most new cases on %s: %s\n", p.Date.Format(domain.DateLayout), formatCount(p.NewCases))
	}
	return nil
}

func renderLoadSummary(w io.Writer, r domain.LoadReport) {
	heading.Fprintf(w, "Load %s to %s\n", r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout))
	muted.Fprintf(w, "run %s\n", r.RunID)
	fmt.Fprintf(w, "Files loaded: %d  Rows: %d  Skipped dates: %d\n", r.FilesLoaded, r.Rows, r.Skipped())
	if r.FromSnapshot {
		muted.Fprintln(w, "Served from processed snapshot.")
	}

	if len(r.MissingDates) > 0 {
		dates := make([]string, 0, len(r.MissingDates))
		for _, d := range r.MissingDates {
			dates = append(dates, d.Format(domain.DateLayout))
		}
		warning.Fprintf(w, "Missing: %s\n", listed(dates))
	}
	for _, f := range r.FailedFiles {
		warning.Fprintf(w, "Failed: %s (%s)\n", f.Path, f.Reason)
	}
	if !r.ContinentsLoaded {
		warning.Fprintln(w, "Continent table unavailable; continents are unknown.")
	} else if len(r.UnmappedCountries) > 0 {
		warning.Fprintf(w, "Unmapped countries: %s\n", listed(r.UnmappedCountries))
	}
}

func renderKPIs(w io.Writer, k analytics.KPI) {
	heading.Fprintf(w, "\nKPIs on %s\n", k.Date.Format(domain.DateLayout))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Total", "Change"})
	for _, m := range analytics.Metrics() {
		table.Append([]string{string(m), formatCount(totalOf(k, m)), formatDelta(k.Deltas.Get(m))})
	}
	table.Append([]string{"fatality_rate", k.FatalityRate.String() + "%", ""})
	table.Render()
}

func totalOf(k analytics.KPI, m analytics.Metric) int64 {
	return analytics.Totals{Confirmed: k.Confirmed, Deaths: k.Deaths, Recovered: k.Recovered, Active: k.Active}.Get(m)
}

func renderTop(w io.Writer, metric analytics.Metric, rows []analytics.CountryValue) {
	heading.Fprintf(w, "\nTop %d countries by %s\n", len(rows), metric)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Country", string(metric)})
	for i, r := range rows {
		table.Append([]string{strconv.Itoa(i + 1), r.Country, formatCount(r.Value)})
	}
	table.Render()
}

func renderContinents(w io.Writer, rows []analytics.ContinentTotal) {
	heading.Fprintln(w, "\nContinents")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Continent", "Countries", "Confirmed", "Deaths", "Recovered", "Active"})
	for _, r := range rows {
		table.Append([]string{
			r.Continent,
			strconv.Itoa(r.Countries),
			formatCount(r.Confirmed),
			formatCount(r.Deaths),
			formatCount(r.Recovered),
			formatCount(r.Active),
		})
	}
	table.Render()
}

func listed(items []string) string {
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(items[:maxListed], ", "), len(items)-maxListed)
}

// formatCount groups digits in thousands: 1234567 -> 1,234,567.
func formatCount(v int64) string {
	s := strconv.FormatInt(v, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func formatDelta(v int64) string {
	if v > 0 {
		return "+" + formatCount(v)
	}
	return formatCount(v)
}
