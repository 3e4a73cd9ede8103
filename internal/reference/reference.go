// Package reference reads the side tables that accompany the daily reports:
// the country to continent mapping and optional extra country aliases.
package reference

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// ErrMissingColumn is returned when a reference file lacks a required column.
var ErrMissingColumn = errors.New("reference: missing column")

// Column names, matched after standardisation.
const (
	ColCountry   = "country"
	ColContinent = "continent"
	ColRaw       = "raw"
	ColCanonical = "canonical"
)

// ReadCSV loads a reference CSV with every column read as text and no
// implicit NaN markers.
func ReadCSV(r io.Reader) (dataframe.DataFrame, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return df, fmt.Errorf("read reference csv: %w", df.Err)
	}
	return df, nil
}

// pairs returns the trimmed (key, value) records of two columns. Rows with
// an empty key or value are skipped. When a key repeats the first row wins.
func pairs(df dataframe.DataFrame, keyCol, valueCol string) (map[string]string, error) {
	names := make(map[string]string, df.Ncol())
	for _, n := range df.Names() {
		std := domain.StandardizeColumnName(strings.TrimSpace(n))
		if _, ok := names[std]; !ok {
			names[std] = n
		}
	}
	key, ok := names[keyCol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, keyCol)
	}
	value, ok := names[valueCol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, valueCol)
	}

	keys := df.Col(key).Records()
	values := df.Col(value).Records()
	out := make(map[string]string, len(keys))
	for i, k := range keys {
		k, v := strings.TrimSpace(k), strings.TrimSpace(values[i])
		if k == "" || v == "" {
			continue
		}
		if _, seen := out[k]; !seen {
			out[k] = v
		}
	}
	return out, nil
}

// ReadContinents parses a country,continent table.
func ReadContinents(r io.Reader) (domain.ContinentTable, error) {
	df, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	m, err := pairs(df, ColCountry, ColContinent)
	if err != nil {
		return nil, err
	}
	return domain.ContinentTable(m), nil
}

// LoadContinents reads the continent table at path.
func LoadContinents(path string) (domain.ContinentTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open continent table: %w", err)
	}
	defer f.Close()
	return ReadContinents(f)
}

// ReadCountryAliases parses a raw,canonical table of extra country aliases.
func ReadCountryAliases(r io.Reader) (map[string]string, error) {
	df, err := ReadCSV(r)
	if err != nil {
		return nil, err
	}
	return pairs(df, ColRaw, ColCanonical)
}

// LoadCountryAliases reads the alias table at path.
func LoadCountryAliases(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open country aliases: %w", err)
	}
	defer f.Close()
	return ReadCountryAliases(f)
}

// WriteContinents writes ref as a country,continent CSV sorted by country.
func WriteContinents(w io.Writer, ref domain.ContinentTable) error {
	countries := make([]string, 0, len(ref))
	for c := range ref {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	records := make([][]string, 0, len(ref)+1)
	records = append(records, []string{ColCountry, ColContinent})
	for _, c := range countries {
		records = append(records, []string{c, ref[c]})
	}
	df := dataframe.LoadRecords(records,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return fmt.Errorf("build continent table: %w", df.Err)
	}
	return df.WriteCSV(w)
}
