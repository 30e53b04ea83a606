package table

import (
	"encoding/json"
	"fmt"
)

// Table is an extracted table: ordered unique column names and rows aligned to them.
// A Table is never modified after construction; accessors hand out copies.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a Table from column names and rows. Column names must be unique and
// non-empty. Rows shorter than the column list are padded with empty strings,
// longer rows are truncated.
func New(name string, columns []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, col := range columns {
		if col == "" {
			return nil, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[col]; dup {
			return nil, fmt.Errorf("duplicate column name %q", col)
		}
		index[col] = i
	}

	t := &Table{
		name:    name,
		columns: append([]string(nil), columns...),
		index:   index,
		rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		t.rows = append(t.rows, fitRow(row, len(columns)))
	}
	return t, nil
}

// fitRow returns a copy of row with exactly width cells.
func fitRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}

// Name returns the table caption, or "" when the table has none.
func (t *Table) Name() string {
	return t.name
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns a copy of row i, or nil when i is out of range.
func (t *Table) Row(i int) []string {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return append([]string(nil), t.rows[i]...)
}

// Rows returns a copy of all rows.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// HasColumn reports whether the table has a column with the given name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the values of the named column, one per row.
// The second result is false when the column does not exist.
func (t *Table) Column(name string) ([]string, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i]
	}
	return out, true
}

// Value returns the cell at row r in the named column.
func (t *Table) Value(r int, column string) string {
	i, ok := t.index[column]
	if !ok || r < 0 || r >= len(t.rows) {
		return ""
	}
	return t.rows[r][i]
}

// Records returns one column-name keyed map per row.
func (t *Table) Records() []map[string]string {
	out := make([]map[string]string, len(t.rows))
	for r, row := range t.rows {
		rec := make(map[string]string, len(t.columns))
		for i, col := range t.columns {
			rec[col] = row[i]
		}
		out[r] = rec
	}
	return out
}

// Filter returns a new table holding the rows for which keep returns true.
func (t *Table) Filter(keep func(row map[string]string) bool) *Table {
	out := &Table{name: t.name, columns: t.columns, index: t.index}
	for r, rec := range t.Records() {
		if keep(rec) {
			out.rows = append(out.rows, t.Row(r))
		}
	}
	return out
}

type tableJSON struct {
	Name    string     `json:"name,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// MarshalJSON encodes the table as {"name", "columns", "rows"}.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = [][]string{}
	}
	return json.Marshal(tableJSON{Name: t.name, Columns: t.columns, Rows: rows})
}

// Concat stacks tables into one. Columns are the union of all column names in
// first-seen order; cells a source table lacks are left empty. Nil tables are
// skipped.
func Concat(name string, tables ...*Table) *Table {
	out := &Table{name: name, index: make(map[string]int)}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, col := range t.columns {
			if _, ok := out.index[col]; !ok {
				out.index[col] = len(out.columns)
				out.columns = append(out.columns, col)
			}
		}
	}
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, row := range t.rows {
			merged := make([]string, len(out.columns))
			for i, col := range t.columns {
				merged[out.index[col]] = row[i]
			}
			out.rows = append(out.rows, merged)
		}
	}
	return out
}
