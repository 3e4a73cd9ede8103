package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDate     = "2020-03-22"
	testLegacyTS = "3/21/2020 23:43"
)

// rawReport mimics the concatenation of a legacy and a modern daily report,
// after loader reconciliation. "Last Update" and "Last_Update" collide once
// standardised.
func rawReport() Table {
	return Table{
		Columns: []string{
			"Province_State", "Country_Region", "Last Update", "Confirmed", "Deaths", "Recovered",
			"Lat", "FIPS", "Admin2", "Last_Update", "Active", "Combined_Key", "Date",
		},
		Rows: [][]Cell{
			row("Hubei", "Mainland China", testLegacyTS, "67800", "3139", "58946", "30.97", "<nil>", "<nil>", "<nil>", "<nil>", "<nil>", testDate),
			row("<nil>", "Korea, South", "<nil>", "8897", "104", "2909", "35.9", "<nil>", "<nil>", "2020-03-22 23:45:00", "9999", "Korea, South", testDate),
			row("<nil>", "Narnia", "garbage", "abc", "", "<nil>", "<nil>", "<nil>", "<nil>", "<nil>", "<nil>", "<nil>", testDate),
			row("Diamond Princess", "Canada", "<nil>", "10", "12", "1", "<nil>", "<nil>", "<nil>", "<nil>", "<nil>", "<nil>", testDate),
		},
	}
}

func TestStandardizeColumnName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Country/Region", "country_region"},
		{"Province_State", "province_state"},
		{"Last Update", "last_update"},
		{"Case-Fatality Ratio", "case_fatality_ratio"},
		{"Long_", "long_"},
		{"", ""},
		{"already_standard", "already_standard"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StandardizeColumnName(tt.in))
		})
	}
}

func TestConsolidateDuplicateColumns(t *testing.T) {
	tbl := Table{
		Columns: []string{"last_update", "confirmed", "last_update"},
		Rows: [][]Cell{
			row("a", "1", "b"),
			row("<nil>", "2", "c"),
			row("<nil>", "3", "<nil>"),
		},
	}

	got := ConsolidateDuplicateColumns(tbl)

	assert.Equal(t, []string{"confirmed", "last_update"}, got.Columns)
	want := [][]Cell{row("1", "a"), row("2", "c"), row("3", "<nil>")}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("consolidated rows mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"last_update", "confirmed", "last_update"}, tbl.Columns, "input must not change")
}

func TestDropIrrelevantColumns_AbsentIsFine(t *testing.T) {
	tbl := Table{Columns: []string{"country_region", "fips"}, Rows: [][]Cell{row("US", "1")}}

	got := DropIrrelevantColumns(tbl, DefaultDropColumns())

	assert.Equal(t, []string{"country_region"}, got.Columns)
}

func TestParseLastUpdate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Time
		ok   bool
	}{
		{"legacy four-digit year", "1/22/2020 17:00", time.Date(2020, 1, 22, 17, 0, 0, 0, time.UTC), true},
		{"legacy two-digit year", "1/22/20 17:00", time.Date(2020, 1, 22, 17, 0, 0, 0, time.UTC), true},
		{"iso with T", "2020-02-01T19:53:03", time.Date(2020, 2, 1, 19, 53, 3, 0, time.UTC), true},
		{"iso with space", "2020-03-22 23:45:00", time.Date(2020, 3, 22, 23, 45, 0, 0, time.UTC), true},
		{"rfc3339", "2020-03-22T23:45:00Z", time.Date(2020, 3, 22, 23, 45, 0, 0, time.UTC), true},
		{"empty", "", time.Time{}, false},
		{"garbage", "yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLastUpdate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"123", 123},
		{" 42 ", 42},
		{"12.0", 12},
		{"12.9", 12},
		{"", 0},
		{"abc", 0},
		{"-5", 0},
		{"NaN", 0},
		{"inf", 0},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCount(tt.in))
		})
	}
}

func TestCoerceCounts_CreatesAbsentColumns(t *testing.T) {
	tbl := Table{Columns: []string{"confirmed"}, Rows: [][]Cell{row("5"), row("<nil>")}}

	got := CoerceCounts(tbl, DefaultNumericColumns())

	assert.Equal(t, []string{"confirmed", "deaths", "recovered"}, got.Columns)
	assert.Equal(t, row("5", "0", "0"), got.Rows[0])
	assert.Equal(t, row("0", "0", "0"), got.Rows[1])
}

func TestActiveCases(t *testing.T) {
	assert.Equal(t, int64(5), ActiveCases(10, 2, 3, ActiveRaw))
	assert.Equal(t, int64(-3), ActiveCases(10, 12, 1, ActiveRaw))
	assert.Equal(t, int64(0), ActiveCases(10, 12, 1, ActiveClamped))
	assert.Equal(t, int64(5), ActiveCases(10, 2, 3, ActiveClamped))
}

func TestParseActiveMode(t *testing.T) {
	m, err := ParseActiveMode("Clamped")
	require.NoError(t, err)
	assert.Equal(t, ActiveClamped, m)

	_, err = ParseActiveMode("sometimes")
	require.Error(t, err)
}

func TestClean(t *testing.T) {
	got := Clean(rawReport(), DefaultCleanOptions())

	for _, c := range []string{"fips", "admin2", "lat", "combined_key"} {
		assert.False(t, got.HasColumn(c), "column %s should be dropped", c)
	}
	assert.Empty(t, DuplicateColumns(got))

	countries, _ := got.Column(ColCountry)
	assert.Equal(t, []Cell{Str("China"), Str("South Korea"), Str("Narnia"), Str("Canada")}, countries)

	updates, _ := got.Column(ColLastUpdate)
	assert.Equal(t, []Cell{
		Str("2020-03-21T23:43:00Z"),
		Str("2020-03-22T23:45:00Z"),
		Missing(),
		Missing(),
	}, updates)

	confirmed, _ := got.Column(ColConfirmed)
	deaths, _ := got.Column(ColDeaths)
	assert.Equal(t, Str("0"), confirmed[2])
	assert.Equal(t, Str("0"), deaths[2])

	active, _ := got.Column(ColActive)
	assert.Equal(t, Str("5715"), active[0])
	assert.Equal(t, Str("-3"), active[3], "raw mode keeps negative active cases")

	// The source Active column is not a substitute for the derived one.
	assert.Equal(t, Str("5884"), active[1])
}

func TestClean_ClampedMode(t *testing.T) {
	opts := DefaultCleanOptions()
	opts.ActiveMode = ActiveClamped

	got := Clean(rawReport(), opts)

	active, _ := got.Column(ColActive)
	assert.Equal(t, Str("0"), active[3])
}

func TestClean_ActiveCasesIdentity(t *testing.T) {
	for _, mode := range []ActiveMode{ActiveRaw, ActiveClamped} {
		opts := DefaultCleanOptions()
		opts.ActiveMode = mode
		obs, err := Observations(Clean(rawReport(), opts))
		require.NoError(t, err)
		for _, o := range obs {
			assert.Equal(t, ActiveCases(o.Confirmed, o.Deaths, o.Recovered, mode), o.Active, o.Country)
		}
	}

	obs, err := Observations(Clean(rawReport(), DefaultCleanOptions()))
	require.NoError(t, err)
	for _, o := range obs {
		assert.Equal(t, o.Confirmed-o.Deaths-o.Recovered, o.Active)
	}
}

func TestClean_Idempotent(t *testing.T) {
	once := Clean(rawReport(), DefaultCleanOptions())
	twice := Clean(once, DefaultCleanOptions())

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("cleaning is not idempotent (-once +twice):\n%s", diff)
	}
}

func TestClean_NoDuplicateColumns(t *testing.T) {
	tbl := Table{
		Columns: []string{"Country/Region", "Country_Region", "country region", "Confirmed", "confirmed"},
		Rows:    [][]Cell{row("<nil>", "US", "X", "<nil>", "7")},
	}

	got := Clean(tbl, DefaultCleanOptions())

	seen := make(map[string]int)
	for _, c := range got.Columns {
		seen[c]++
	}
	for c, n := range seen {
		assert.Equal(t, 1, n, "column %s", c)
	}
	countries, _ := got.Column(ColCountry)
	assert.Equal(t, Str("United States"), countries[0])
	confirmed, _ := got.Column(ColConfirmed)
	assert.Equal(t, Str("7"), confirmed[0])
}

func TestClean_DoesNotMutateInput(t *testing.T) {
	raw := rawReport()
	before := raw.Clone()

	_ = Clean(raw, DefaultCleanOptions())

	if diff := cmp.Diff(before, raw); diff != "" {
		t.Fatalf("input mutated (-before +after):\n%s", diff)
	}
}
