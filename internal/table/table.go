// Package table holds delimited datasets as header-named text columns.
// Values are never type-converted here; numeric parsing happens in the
// cleaning stage.
package table

import (
	"regexp"
	"slices"

	"github.com/rotisserie/eris"
)

// ErrColumnNotFound is returned when a required column is absent from the header.
var ErrColumnNotFound = eris.New("table: column not found")

// Table is an in-memory text table. Every row has len(Columns) fields.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New builds a table from a header and rows. Short rows are padded with
// empty strings; a row longer than the header is an error.
func New(columns []string, rows [][]string) (*Table, error) {
	t := &Table{Columns: slices.Clone(columns), Rows: make([][]string, 0, len(rows))}
	for i, row := range rows {
		if err := t.Append(row); err != nil {
			return nil, eris.Wrapf(err, "table: row %d", i+1)
		}
	}
	return t, nil
}

// Append adds a row, padding it to the header width.
func (t *Table) Append(row []string) error {
	if len(row) > len(t.Columns) {
		return eris.Errorf("table: row has %d fields, header has %d", len(row), len(t.Columns))
	}
	r := make([]string, len(t.Columns))
	copy(r, row)
	t.Rows = append(t.Rows, r)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// MustIndex returns the column position or ErrColumnNotFound.
func (t *Table) MustIndex(name string) (int, error) {
	i := t.Index(name)
	if i < 0 {
		return -1, eris.Wrapf(ErrColumnNotFound, "%q", name)
	}
	return i, nil
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]string, error) {
	i, err := t.MustIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Record returns row r as a column-name keyed map.
func (t *Table) Record(r int) map[string]string {
	m := make(map[string]string, len(t.Columns))
	for i, c := range t.Columns {
		m[c] = t.Rows[r][i]
	}
	return m
}

// Select returns a new table with only the columns for which keep returns true,
// in their original order.
func (t *Table) Select(keep func(name string) bool) *Table {
	var idx []int
	var cols []string
	for i, c := range t.Columns {
		if keep(c) {
			idx = append(idx, i)
			cols = append(cols, c)
		}
	}
	out := &Table{Columns: cols, Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		nr := make([]string, len(idx))
		for j, i := range idx {
			nr[j] = row[i]
		}
		out.Rows[r] = nr
	}
	return out
}

// Drop returns a new table without the named columns. Unknown names are ignored.
func (t *Table) Drop(names ...string) *Table {
	return t.Select(func(name string) bool { return !slices.Contains(names, name) })
}

// DropMatching returns a new table without the columns whose name matches re.
func (t *Table) DropMatching(re *regexp.Regexp) *Table {
	return t.Select(func(name string) bool { return !re.MatchString(name) })
}
