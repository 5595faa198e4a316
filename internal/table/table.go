// Package table provides ordered, string-celled tables read from CSV or
// XLSX files. Cells and column order are preserved verbatim from the
// input; analyses bind to a small set of named columns and any other
// columns pass through reads and writes untouched.
package table

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is an ordered collection of rows sharing one header. Every row
// has exactly one cell per column.
type Table struct {
	cols   []string
	colIdx map[string]int
	rows   [][]string
}

// New creates an empty table with the given columns.
func New(columns []string) *Table {
	t := &Table{cols: append([]string(nil), columns...)}
	t.reindex()
	return t
}

// fromRecords builds a table from raw records where the first record is
// the header. Short rows are padded with empty cells and long rows are
// truncated to the header width, matching how dict-shaped readers treat
// ragged input.
func fromRecords(records [][]string) *Table {
	if len(records) == 0 {
		return New(nil)
	}
	t := New(records[0])
	for _, rec := range records[1:] {
		t.AppendRow(rec)
	}
	return t
}

// reindex rebuilds the name lookup. Lookups use trimmed names and, for
// duplicated names, the rightmost column wins.
func (t *Table) reindex() {
	t.colIdx = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.colIdx[strings.TrimSpace(c)] = i
	}
}

// Columns returns a copy of the header in input order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.colIdx[name]
	return ok
}

// MissingColumns returns the subset of names not present in the header,
// in the order given.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// Get returns the cell at row i in the named column, or "" when the
// column does not exist.
func (t *Table) Get(i int, col string) string {
	idx, ok := t.colIdx[col]
	if !ok || i < 0 || i >= len(t.rows) {
		return ""
	}
	return t.rows[i][idx]
}

// Float parses the cell at row i in the named column as a float64.
// Surrounding whitespace is tolerated.
func (t *Table) Float(i int, col string) (float64, error) {
	cell := strings.TrimSpace(t.Get(i, col))
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, eris.Errorf("table: row %d column %q: cannot parse %q as a number", i+1, col, cell)
	}
	return v, nil
}

// AppendRow adds a data row, padding or truncating it to the header
// width.
func (t *Table) AppendRow(cells []string) {
	row := make([]string, len(t.cols))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// AppendColumn adds a column on the right with one value per existing
// row.
func (t *Table) AppendColumn(name string, values []string) error {
	if len(values) != len(t.rows) {
		return eris.Errorf("table: column %q has %d values for %d rows", name, len(values), len(t.rows))
	}
	t.cols = append(t.cols, name)
	t.colIdx[strings.TrimSpace(name)] = len(t.cols) - 1
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], values[i])
	}
	return nil
}

// PutColumn overwrites the named column in place when it exists and
// appends it on the right otherwise, so re-deriving a column never
// duplicates it.
func (t *Table) PutColumn(name string, values []string) error {
	if len(values) != len(t.rows) {
		return eris.Errorf("table: column %q has %d values for %d rows", name, len(values), len(t.rows))
	}
	if idx, ok := t.colIdx[strings.TrimSpace(name)]; ok {
		for i := range t.rows {
			t.rows[i][idx] = values[i]
		}
		return nil
	}
	return t.AppendColumn(name, values)
}

// RowMap returns row i as a name-to-value map. Duplicated column names
// collapse to the rightmost cell.
func (t *Table) RowMap(i int) map[string]string {
	m := make(map[string]string, len(t.cols))
	if i < 0 || i >= len(t.rows) {
		return m
	}
	for name, idx := range t.colIdx {
		m[name] = t.rows[i][idx]
	}
	return m
}

// row returns the raw cells of row i for writers in this package.
func (t *Table) row(i int) []string {
	return t.rows[i]
}
