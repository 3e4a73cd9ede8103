package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(values ...string) []Cell {
	out := make([]Cell, len(values))
	for i, v := range values {
		if v == "<nil>" {
			out[i] = Missing()
			continue
		}
		out[i] = Str(v)
	}
	return out
}

func TestConcat(t *testing.T) {
	legacy := Table{
		Columns: []string{"Province_State", "Country_Region", "Confirmed"},
		Rows:    [][]Cell{row("Hubei", "Mainland China", "444")},
	}
	modern := Table{
		Columns: []string{"FIPS", "Province_State", "Country_Region", "Confirmed", "Combined_Key"},
		Rows: [][]Cell{
			row("36061", "New York", "US", "100", "New York, US"),
			row("<nil>", "<nil>", "Italy", "59138", "Italy"),
		},
	}

	got := Concat(legacy, modern)

	assert.Equal(t, []string{"Province_State", "Country_Region", "Confirmed", "FIPS", "Combined_Key"}, got.Columns)
	require.Equal(t, 3, got.Len())
	want := [][]Cell{
		row("Hubei", "Mainland China", "444", "<nil>", "<nil>"),
		row("New York", "US", "100", "36061", "New York, US"),
		row("<nil>", "Italy", "59138", "<nil>", "Italy"),
	}
	if diff := cmp.Diff(want, got.Rows); diff != "" {
		t.Fatalf("concat rows mismatch (-want +got):\n%s", diff)
	}
}

func TestConcat_RepeatedColumnsAlignPerOccurrence(t *testing.T) {
	a := Table{Columns: []string{"x", "x"}, Rows: [][]Cell{row("1", "2")}}
	b := Table{Columns: []string{"x"}, Rows: [][]Cell{row("3")}}

	got := Concat(a, b)

	assert.Equal(t, []string{"x", "x"}, got.Columns)
	assert.Equal(t, row("3", "<nil>"), got.Rows[1])
}

func TestConcat_NoTables(t *testing.T) {
	got := Concat()
	assert.True(t, got.Empty())
	assert.Empty(t, got.Columns)
}

func TestTable_OperationsDoNotAlias(t *testing.T) {
	orig := Table{Columns: []string{"a", "b"}, Rows: [][]Cell{row("1", "2")}}

	withC := orig.WithColumn("c", []Cell{Str("3")})
	dropped := orig.DropColumns("a")
	renamed := orig.RenameColumns(func(s string) string { return s + "!" })
	withC.Rows[0][0] = Str("changed")

	assert.Equal(t, []string{"a", "b"}, orig.Columns)
	assert.Equal(t, row("1", "2"), orig.Rows[0])
	assert.Equal(t, []string{"b"}, dropped.Columns)
	assert.Equal(t, []string{"a!", "b!"}, renamed.Columns)
}

func TestTable_WithColumnPadsRaggedRows(t *testing.T) {
	orig := Table{Columns: []string{"a", "b"}, Rows: [][]Cell{row("1")}}

	got := orig.WithColumn("c", nil)

	assert.Equal(t, row("1", "<nil>", "<nil>"), got.Rows[0])
}

func TestMissingSummary(t *testing.T) {
	tbl := Table{
		Columns: []string{"country", "region", "fips"},
		Rows: [][]Cell{
			row("US", "<nil>", "1"),
			row("Italy", "<nil>", "<nil>"),
			row("Spain", "Madrid", "3"),
		},
	}

	got := MissingSummary(tbl)

	assert.Equal(t, []MissingStat{
		{Column: "region", Missing: 2, Percent: 66.67},
		{Column: "fips", Missing: 1, Percent: 33.33},
	}, got)
	assert.Nil(t, MissingSummary(Table{Columns: []string{"a"}}))
}
