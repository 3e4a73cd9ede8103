package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ActiveMode selects how active cases are derived.
type ActiveMode string

const (
	// ActiveRaw keeps confirmed - deaths - recovered as computed, negative values included.
	ActiveRaw ActiveMode = "raw"
	// ActiveClamped clips negative active counts to zero.
	ActiveClamped ActiveMode = "clamped"
)

// ParseActiveMode validates a mode name.
func ParseActiveMode(s string) (ActiveMode, error) {
	switch ActiveMode(strings.ToLower(strings.TrimSpace(s))) {
	case ActiveRaw:
		return ActiveRaw, nil
	case ActiveClamped:
		return ActiveClamped, nil
	default:
		return "", fmt.Errorf("unknown active cases mode %q", s)
	}
}

// CleanOptions carries the tables each cleaning stage needs.
type CleanOptions struct {
	Countries      Normalizer
	DropColumns    []string
	NumericColumns []string
	ActiveMode     ActiveMode
}

// DefaultCleanOptions returns the standard JHU cleaning configuration.
func DefaultCleanOptions() CleanOptions {
	return CleanOptions{
		Countries:      DefaultNormalizer(),
		DropColumns:    DefaultDropColumns(),
		NumericColumns: DefaultNumericColumns(),
		ActiveMode:     ActiveRaw,
	}
}

// Clean runs the full cleaning pipeline. The stage order matters: duplicate
// columns are consolidated before irrelevant ones are dropped (drops match
// standardised names), and counts are coerced before active cases are derived.
func Clean(t Table, opts CleanOptions) Table {
	t = StandardizeColumnNames(t)
	t = ConsolidateDuplicateColumns(t)
	t = DropIrrelevantColumns(t, opts.DropColumns)
	t = CoerceDates(t)
	t = CoerceCounts(t, opts.NumericColumns)
	t = ComputeActiveCases(t, opts.ActiveMode)
	t = NormalizeCountryNames(t, opts.Countries)
	return t
}

var columnNameReplacer = strings.NewReplacer(" ", "_", "/", "_", "-", "_")

// StandardizeColumnName lower-cases a header and replaces spaces, slashes and
// hyphens with underscores: "Country/Region" -> "country_region".
func StandardizeColumnName(name string) string {
	return columnNameReplacer.Replace(strings.ToLower(name))
}

// StandardizeColumnNames applies StandardizeColumnName to every header.
func StandardizeColumnNames(t Table) Table {
	return t.RenameColumns(StandardizeColumnName)
}

// DuplicateColumns lists column names that occur more than once, in order of
// their first repeat.
func DuplicateColumns(t Table) []string {
	seen := make(map[string]int, len(t.Columns))
	var dups []string
	for _, c := range t.Columns {
		seen[c]++
		if seen[c] == 2 {
			dups = append(dups, c)
		}
	}
	return dups
}

// ConsolidateDuplicateColumns merges columns sharing a name into one. Per row
// the merged value is the first present value among the duplicates, scanning
// left to right. The originals are removed and the merged column is appended.
func ConsolidateDuplicateColumns(t Table) Table {
	out := t.Clone()
	for _, name := range DuplicateColumns(t) {
		var positions []int
		for i, c := range out.Columns {
			if c == name {
				positions = append(positions, i)
			}
		}
		merged := make([]Cell, out.Len())
		for r, row := range out.Rows {
			for _, p := range positions {
				if c := cellAt(row, p); c.Valid {
					merged[r] = c
					break
				}
			}
		}
		out = out.DropColumns(name).WithColumn(name, merged)
	}
	return out
}

// DropIrrelevantColumns removes the named columns when present.
func DropIrrelevantColumns(t Table, names []string) Table {
	return t.DropColumns(names...)
}

var lastUpdateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"1/2/2006",
	"2006-01-02",
}

// ParseLastUpdate parses the timestamp layouts used across JHU report years.
func ParseLastUpdate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range lastUpdateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// CoerceDates rewrites last_update as RFC 3339. Unparsable values become missing.
func CoerceDates(t Table) Table {
	values, ok := t.Column(ColLastUpdate)
	if !ok {
		return t.Clone()
	}
	for i, c := range values {
		if !c.Valid {
			continue
		}
		ts, ok := ParseLastUpdate(c.Value)
		if !ok {
			values[i] = Missing()
			continue
		}
		values[i] = Str(ts.Format(time.RFC3339))
	}
	return t.WithColumn(ColLastUpdate, values)
}

// ParseCount reads a count as a non-negative integer. Missing, unparsable,
// non-finite and negative values give zero. Fractional values are truncated.
func ParseCount(s string) int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return max(v, 0)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(f)
}

// CoerceCounts rewrites each named count column as non-negative integers.
// Absent columns are created as all-zero so the cleaned schema stays uniform.
func CoerceCounts(t Table, columns []string) Table {
	out := t
	for _, name := range columns {
		values, ok := out.Column(name)
		if !ok {
			values = make([]Cell, out.Len())
		}
		for i, c := range values {
			n := int64(0)
			if c.Valid {
				n = ParseCount(c.Value)
			}
			values[i] = Str(strconv.FormatInt(n, 10))
		}
		out = out.WithColumn(name, values)
	}
	if len(columns) == 0 {
		return t.Clone()
	}
	return out
}

// ActiveCases derives active cases from cumulative counts under mode.
func ActiveCases(confirmed, deaths, recovered int64, mode ActiveMode) int64 {
	active := confirmed - deaths - recovered
	if mode == ActiveClamped && active < 0 {
		return 0
	}
	return active
}

// ComputeActiveCases writes active_cases from the coerced count columns.
// Any active value already in the table is ignored.
func ComputeActiveCases(t Table, mode ActiveMode) Table {
	confirmed := countColumn(t, ColConfirmed)
	deaths := countColumn(t, ColDeaths)
	recovered := countColumn(t, ColRecovered)
	values := make([]Cell, t.Len())
	for i := range values {
		a := ActiveCases(confirmed[i], deaths[i], recovered[i], mode)
		values[i] = Str(strconv.FormatInt(a, 10))
	}
	return t.WithColumn(ColActive, values)
}

// NormalizeCountryNames maps country_region through n.
func NormalizeCountryNames(t Table, n Normalizer) Table {
	values, ok := t.Column(ColCountry)
	if !ok {
		return t.Clone()
	}
	for i, c := range values {
		if c.Valid {
			values[i] = Str(n.Canonical(c.Value))
		}
	}
	return t.WithColumn(ColCountry, values)
}

func countColumn(t Table, name string) []int64 {
	out := make([]int64, t.Len())
	values, ok := t.Column(name)
	if !ok {
		return out
	}
	for i, c := range values {
		if c.Valid {
			out[i] = ParseCount(c.Value)
		}
	}
	return out
}
