package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrMissingColumn is returned when a cleaned table lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// CanonicalColumns is the column order of a serialised observation table.
var CanonicalColumns = []string{
	ColDate, ColCountry, ColRegion, ColLastUpdate,
	ColConfirmed, ColDeaths, ColRecovered, ColActive, ColContinent,
}

// Observations converts a cleaned table into typed observations.
// Count columns are read leniently; date and country_region must exist.
func Observations(t Table) ([]Observation, error) {
	for _, c := range []string{ColDate, ColCountry} {
		if !t.HasColumn(c) {
			return nil, fmt.Errorf("convert observations: %w: %s", ErrMissingColumn, c)
		}
	}

	idx := make(map[string]int, len(CanonicalColumns))
	for _, c := range CanonicalColumns {
		idx[c] = t.ColumnIndex(c)
	}

	out := make([]Observation, 0, t.Len())
	for r, row := range t.Rows {
		dateCell := cellAt(row, idx[ColDate])
		date, err := time.Parse(DateLayout, dateCell.Value)
		if !dateCell.Valid || err != nil {
			return nil, fmt.Errorf("convert observations: row %d: invalid date %q", r, dateCell.Value)
		}
		obs := Observation{
			Date:      date,
			Country:   cellAt(row, idx[ColCountry]).Value,
			Region:    cellAt(row, idx[ColRegion]).Value,
			Confirmed: cellCount(row, idx[ColConfirmed]),
			Deaths:    cellCount(row, idx[ColDeaths]),
			Recovered: cellCount(row, idx[ColRecovered]),
			Continent: cellAt(row, idx[ColContinent]).Value,
		}
		obs.Active = ActiveCases(obs.Confirmed, obs.Deaths, obs.Recovered, ActiveRaw)
		if c := cellAt(row, idx[ColActive]); c.Valid {
			if v, err := strconv.ParseInt(c.Value, 10, 64); err == nil {
				obs.Active = v
			}
		}
		if c := cellAt(row, idx[ColLastUpdate]); c.Valid {
			if ts, ok := ParseLastUpdate(c.Value); ok {
				obs.LastUpdate = &ts
			}
		}
		out = append(out, obs)
	}
	return out, nil
}

// ObservationTable renders observations in CanonicalColumns order. Missing
// region, last update and continent are written as missing cells.
func ObservationTable(obs []Observation) Table {
	t := Table{
		Columns: append([]string(nil), CanonicalColumns...),
		Rows:    make([][]Cell, len(obs)),
	}
	for i, o := range obs {
		lastUpdate := Missing()
		if o.LastUpdate != nil {
			lastUpdate = Str(o.LastUpdate.UTC().Format(time.RFC3339))
		}
		t.Rows[i] = []Cell{
			Str(o.Date.Format(DateLayout)),
			Str(o.Country),
			optional(o.Region),
			lastUpdate,
			Str(strconv.FormatInt(o.Confirmed, 10)),
			Str(strconv.FormatInt(o.Deaths, 10)),
			Str(strconv.FormatInt(o.Recovered, 10)),
			Str(strconv.FormatInt(o.Active, 10)),
			optional(o.Continent),
		}
	}
	return t
}

func optional(s string) Cell {
	if s == "" {
		return Missing()
	}
	return Str(s)
}

func cellCount(row []Cell, idx int) int64 {
	c := cellAt(row, idx)
	if !c.Valid {
		return 0
	}
	return ParseCount(c.Value)
}
