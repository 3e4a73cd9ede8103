package domain

import (
	"fmt"
	"strings"
)

// Raw header names that per-file reconciliation converges on.
const (
	RawRegion  = "Province_State"
	RawCountry = "Country_Region"
	RawDate    = "Date"
)

// HeaderAlias renames a legacy raw header to its canonical raw spelling.
type HeaderAlias struct {
	From string
	To   string
}

// DefaultHeaderAliases lists the legacy JHU headers, in the order they are applied.
func DefaultHeaderAliases() []HeaderAlias {
	return []HeaderAlias{
		{From: "Province/State", To: RawRegion},
		{From: "Country/Region", To: RawCountry},
		{From: "Country", To: RawCountry},
		{From: "Last Update", To: "Last_Update"},
		{From: "Latitude", To: "Lat"},
		{From: "Longitude", To: "Long_"},
	}
}

// ParseHeaderAliases parses "From=To" pairs separated by commas.
func ParseHeaderAliases(s string) ([]HeaderAlias, error) {
	var out []HeaderAlias
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, ok := strings.Cut(part, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid header alias %q", part)
		}
		out = append(out, HeaderAlias{From: from, To: to})
	}
	return out, nil
}

// ReconcileHeaders applies per-file schema reconciliation to a freshly parsed
// daily report: header whitespace is trimmed, each alias is renamed when its
// target is not already present, and a missing region column is inserted as
// all-missing so concatenation stays aligned.
func ReconcileHeaders(t Table, aliases []HeaderAlias) Table {
	out := t.RenameColumns(strings.TrimSpace)
	for _, a := range aliases {
		idx := out.ColumnIndex(a.From)
		if idx < 0 || out.HasColumn(a.To) {
			continue
		}
		out.Columns[idx] = a.To
	}
	if !out.HasColumn(RawRegion) {
		out = out.WithColumn(RawRegion, nil)
	}
	return out
}

// DefaultDropColumns are removed by the cleaner, matched on standardised names.
func DefaultDropColumns() []string {
	return []string{"fips", "admin2", "lat", "long_", "latitude", "longitude", "combined_key"}
}

// DefaultNumericColumns are the core cumulative count columns.
func DefaultNumericColumns() []string {
	return []string{ColConfirmed, ColDeaths, ColRecovered}
}
