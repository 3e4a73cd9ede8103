package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileHeaders(t *testing.T) {
	t.Run("legacy 2020 header", func(t *testing.T) {
		tbl := Table{
			Columns: []string{"Province/State", " Country/Region ", "Last Update", "Confirmed"},
			Rows:    [][]Cell{row("Hubei", "Mainland China", "1/22/2020 17:00", "444")},
		}

		got := ReconcileHeaders(tbl, DefaultHeaderAliases())

		assert.Equal(t, []string{"Province_State", "Country_Region", "Last_Update", "Confirmed"}, got.Columns)
		assert.Equal(t, tbl.Rows, got.Rows)
	})

	t.Run("missing region column is inserted", func(t *testing.T) {
		tbl := Table{
			Columns: []string{"Country", "Confirmed"},
			Rows:    [][]Cell{row("Italy", "3")},
		}

		got := ReconcileHeaders(tbl, DefaultHeaderAliases())

		assert.Equal(t, []string{"Country_Region", "Confirmed", "Province_State"}, got.Columns)
		assert.Equal(t, row("Italy", "3", "<nil>"), got.Rows[0])
	})

	t.Run("alias ignored when target exists", func(t *testing.T) {
		tbl := Table{
			Columns: []string{"Country_Region", "Country", "Province_State"},
			Rows:    [][]Cell{row("US", "ignored", "Ohio")},
		}

		got := ReconcileHeaders(tbl, DefaultHeaderAliases())

		assert.Equal(t, []string{"Country_Region", "Country", "Province_State"}, got.Columns)
	})
}

func TestParseHeaderAliases(t *testing.T) {
	got, err := ParseHeaderAliases("Nation=Country_Region, State = Province_State,")
	require.NoError(t, err)
	assert.Equal(t, []HeaderAlias{
		{From: "Nation", To: "Country_Region"},
		{From: "State", To: "Province_State"},
	}, got)

	empty, err := ParseHeaderAliases("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = ParseHeaderAliases("NoEquals")
	require.Error(t, err)
	_, err = ParseHeaderAliases("=Country_Region")
	require.Error(t, err)
}

func TestNormalizer(t *testing.T) {
	n := DefaultNormalizer()

	tests := []struct {
		raw, want string
	}{
		{"US", "United States"},
		{"Korea, South", "South Korea"},
		{"Mainland China", "China"},
		{"Macedonia", "North Macedonia"},
		{"North Macedonia", "North Macedonia"},
		{" Azerbaijan", "Azerbaijan"},
		{"Narnia", "Narnia"},
		{"united states", "united states"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Canonical(tt.raw))
		})
	}
}

func TestNormalizer_DefaultTableIsIdempotent(t *testing.T) {
	n := DefaultNormalizer()
	for raw := range DefaultCountryAliases() {
		once := n.Canonical(raw)
		assert.Equal(t, once, n.Canonical(once), raw)
	}
}

func TestNewNormalizer_RejectsChains(t *testing.T) {
	_, err := NewNormalizer(map[string]string{
		"North Macedonia": "Macedonia",
		"Macedonia":       "North Macedonia",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chains")
}

func TestNormalizer_With(t *testing.T) {
	n, err := DefaultNormalizer().With(map[string]string{"Turkiye": "Turkey"})
	require.NoError(t, err)
	assert.Equal(t, "Turkey", n.Canonical("Turkiye"))
	assert.Equal(t, "United States", n.Canonical("US"))
	assert.Equal(t, len(DefaultCountryAliases())+1, n.Len())

	var zero Normalizer
	assert.Equal(t, "US", zero.Canonical("US"))
}
