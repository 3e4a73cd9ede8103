package domain

import "math"

// Cell is one table value. Valid is false for a missing value, which is
// distinct from a present empty string.
type Cell struct {
	Value string
	Valid bool
}

// Str returns a present cell.
func Str(s string) Cell { return Cell{Value: s, Valid: true} }

// Missing returns a missing cell.
func Missing() Cell { return Cell{} }

// Table is an ordered grid of named columns. Column names may repeat; the
// cleaner relies on that to consolidate columns whose standardised names collide.
//
// Tables are treated as immutable: every operation returns a new table and
// never shares row storage with its input.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// ColumnIndex returns the index of the first column with the given name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether a column with the given name exists.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Column returns a copy of the first column with the given name.
func (t Table) Column(name string) ([]Cell, bool) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]Cell, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = cellAt(row, idx)
	}
	return out, true
}

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := Table{
		Columns: append([]string(nil), t.Columns...),
		Rows:    make([][]Cell, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]Cell(nil), row...)
	}
	return out
}

// RenameColumns returns a copy of the table with column names replaced by fn.
func (t Table) RenameColumns(fn func(string) string) Table {
	out := t.Clone()
	for i, c := range out.Columns {
		out.Columns[i] = fn(c)
	}
	return out
}

// WithColumn returns a copy of the table where the first column called name
// holds values. The column is appended when absent.
func (t Table) WithColumn(name string, values []Cell) Table {
	out := t.Clone()
	idx := out.ColumnIndex(name)
	if idx < 0 {
		out.Columns = append(out.Columns, name)
		idx = len(out.Columns) - 1
	}
	for i := range out.Rows {
		for len(out.Rows[i]) <= idx {
			out.Rows[i] = append(out.Rows[i], Missing())
		}
		if i < len(values) {
			out.Rows[i][idx] = values[i]
		} else {
			out.Rows[i][idx] = Missing()
		}
	}
	return out
}

// DropColumns returns a copy of the table without any column whose name is in
// names. Names that do not exist are ignored.
func (t Table) DropColumns(names ...string) Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	keep := make([]int, 0, len(t.Columns))
	for i, c := range t.Columns {
		if !drop[c] {
			keep = append(keep, i)
		}
	}
	return t.project(keep)
}

// project builds a new table from the column positions in keep.
func (t Table) project(keep []int) Table {
	out := Table{
		Columns: make([]string, len(keep)),
		Rows:    make([][]Cell, len(t.Rows)),
	}
	for j, idx := range keep {
		out.Columns[j] = t.Columns[idx]
	}
	for i, row := range t.Rows {
		nr := make([]Cell, len(keep))
		for j, idx := range keep {
			nr[j] = cellAt(row, idx)
		}
		out.Rows[i] = nr
	}
	return out
}

// Concat stacks tables vertically. The result has the union of all column
// names in first-seen order; a table lacking a column contributes missing
// cells for it. Every input row is preserved in order.
//
// Tables with repeated column names are aligned positionally per occurrence:
// the second "x" in one table lines up with the second "x" in another.
func Concat(tables ...Table) Table {
	type key struct {
		name string
		nth  int
	}
	var out Table
	pos := make(map[key]int)
	for _, t := range tables {
		seen := make(map[string]int)
		for _, c := range t.Columns {
			k := key{name: c, nth: seen[c]}
			seen[c]++
			if _, ok := pos[k]; !ok {
				pos[k] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		targets := make([]int, len(t.Columns))
		seen := make(map[string]int)
		for i, c := range t.Columns {
			targets[i] = pos[key{name: c, nth: seen[c]}]
			seen[c]++
		}
		for _, row := range t.Rows {
			nr := make([]Cell, len(out.Columns))
			for i, target := range targets {
				nr[target] = cellAt(row, i)
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out
}

// MissingStat summarises missing values in one column.
type MissingStat struct {
	Column  string  `json:"column"`
	Missing int     `json:"missing"`
	Percent float64 `json:"percent"`
}

// MissingSummary reports, for each column holding at least one missing value,
// how many rows are missing and what share of the table that is (2 dp).
func MissingSummary(t Table) []MissingStat {
	if t.Empty() {
		return nil
	}
	var stats []MissingStat
	for idx, name := range t.Columns {
		n := 0
		for _, row := range t.Rows {
			if !cellAt(row, idx).Valid {
				n++
			}
		}
		if n == 0 {
			continue
		}
		stats = append(stats, MissingStat{
			Column:  name,
			Missing: n,
			Percent: round2(float64(n) / float64(t.Len()) * 100),
		})
	}
	return stats
}

// cellAt tolerates ragged rows: positions beyond the row are missing.
func cellAt(row []Cell, idx int) Cell {
	if idx < 0 || idx >= len(row) {
		return Missing()
	}
	return row[idx]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
