package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/covid-data-etl/internal/analytics"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	m.Run()
}

var (
	day1 = time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)
)

func testDataset() *domain.Dataset {
	return &domain.Dataset{
		Observations: []domain.Observation{
			{Date: day1, Country: "Italy", Continent: "Europe", Confirmed: 1000, Deaths: 10, Active: 990},
			{Date: day2, Country: "Italy", Continent: "Europe", Confirmed: 1500, Deaths: 20, Active: 1480},
			{Date: day2, Country: "Atlantis", Confirmed: 7, Active: 7},
		},
		Report: domain.LoadReport{
			RunID: "run-1", Start: day1, End: day2, FilesLoaded: 2, Rows: 3,
			MissingDates:      []time.Time{day2.AddDate(0, 0, 1)},
			ContinentsLoaded:  true,
			UnmappedCountries: []string{"Atlantis"},
		},
	}
}

func TestRender(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer

	require.NoError(t, render(&buf, ds, ds.Observations, analytics.Confirmed, 5))

	out := buf.String()
	assert.Contains(t, out, "Load 2020-03-01 to 2020-03-02")
	assert.Contains(t, out, "Missing: 2020-03-03")
	assert.Contains(t, out, "Unmapped countries: Atlantis")
	assert.Contains(t, out, "1,507")
	assert.Contains(t, out, "+507")
	assert.Contains(t, out, "Top 2 countries by confirmed")
	assert.Contains(t, out, "Unknown")
	assert.Contains(t, out, "Most new cases on 2020-03-02: 507")
}

func TestRender_EmptySelection(t *testing.T) {
	ds := testDataset()
	var buf bytes.Buffer

	require.NoError(t, render(&buf, ds, nil, analytics.Confirmed, 5))

	assert.Contains(t, buf.String(), "No observations match the selection.")
	assert.NotContains(t, buf.String(), "KPIs")
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "0", formatCount(0))
	assert.Equal(t, "999", formatCount(999))
	assert.Equal(t, "1,000", formatCount(1000))
	assert.Equal(t, "-1,234,567", formatCount(-1234567))
	assert.Equal(t, "+12", formatDelta(12))
	assert.Equal(t, "-3", formatDelta(-3))
}

func TestListed(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	assert.Equal(t, "a, b, c, d, e, f, g, h, i, j and 2 more", listed(items))
	assert.Equal(t, "a, b", listed(items[:2]))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"Italy", "South Korea"}, splitList(" Italy, ,South Korea "))
	assert.Nil(t, splitList(""))
}
