package dataset

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Table is an immutable, ordered set of named columns. Cells keep their
// source text; numeric views are produced on demand by Floats.
type Table struct {
	name    string
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable validates the header and row widths and copies the input.
func NewTable(name string, columns []string, rows [][]string) (*Table, error) {
	t := &Table{
		name:    name,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
		rows:    make([][]string, 0, len(rows)),
	}

	if len(columns) == 0 {
		return nil, parseError(name, "table has no columns", nil)
	}
	for i, c := range columns {
		if strings.TrimSpace(c) == "" {
			return nil, parseError(name, fmt.Sprintf("column %d has a blank name", i+1), nil)
		}
		if _, dup := t.index[c]; dup {
			return nil, parseError(name, fmt.Sprintf("duplicate column %q", c), nil)
		}
		t.index[c] = i
	}

	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, parseError(name, fmt.Sprintf("row %d has %d fields, header has %d", i+1, len(r), len(columns)), nil)
		}
		t.rows = append(t.rows, append([]string(nil), r...))
	}

	return t, nil
}

// MustTable is NewTable for fixed reference data known to be well formed.
func MustTable(name string, columns []string, rows [][]string) *Table {
	t, err := NewTable(name, columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

func (t *Table) Len() int { return len(t.rows) }

func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// Rows returns a deep copy of all rows in source order.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Column returns the cells of the named column, or a missing_column error.
func (t *Table) Column(name string) ([]string, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, missingColumn(t.name, name)
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[idx]
	}
	return out, nil
}

// Floats coerces the named column to float64. Cells that are blank or not
// numbers become NaN; see Coerce.
func (t *Table) Floats(name string) (Coerced, error) {
	cells, err := t.Column(name)
	if err != nil {
		return Coerced{}, err
	}
	return Coerce(cells), nil
}

// Select projects the table onto columns, in the order given.
func (t *Table) Select(columns ...string) (*Table, error) {
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := t.index[c]
		if !ok {
			return nil, missingColumn(t.name, c)
		}
		idx[i] = j
	}

	rows := make([][]string, len(t.rows))
	for i, r := range t.rows {
		row := make([]string, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		rows[i] = row
	}
	return NewTable(t.name, columns, rows)
}

// RequireColumns reports the first of columns that t lacks.
func (t *Table) RequireColumns(columns ...string) error {
	for _, c := range columns {
		if !t.HasColumn(c) {
			return missingColumn(t.name, c)
		}
	}
	return nil
}

// Filter keeps rows whose column equals value. An empty result is returned
// together with a missing_category error so callers can still inspect the
// (empty) table.
func (t *Table) Filter(column, value string) (*Table, error) {
	idx, ok := t.index[column]
	if !ok {
		return nil, missingColumn(t.name, column)
	}

	var rows [][]string
	for _, r := range t.rows {
		if r[idx] == value {
			rows = append(rows, r)
		}
	}

	out, err := NewTable(t.name, t.columns, rows)
	if err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return out, MissingCategory(t.name, column, value)
	}
	return out, nil
}

// Melt reshapes from wide to long form: for each value column, in order, one
// row per source row carrying the id columns, the value column's name and
// its cell.
func (t *Table) Melt(idVars, valueVars []string, varName, valueName string) (*Table, error) {
	if err := t.RequireColumns(idVars...); err != nil {
		return nil, err
	}
	if err := t.RequireColumns(valueVars...); err != nil {
		return nil, err
	}

	columns := append(append([]string(nil), idVars...), varName, valueName)
	rows := make([][]string, 0, len(t.rows)*len(valueVars))
	for _, v := range valueVars {
		vi := t.index[v]
		for _, r := range t.rows {
			row := make([]string, 0, len(columns))
			for _, id := range idVars {
				row = append(row, r[t.index[id]])
			}
			row = append(row, v, r[vi])
			rows = append(rows, row)
		}
	}
	return NewTable(t.name, columns, rows)
}

// NumericColumns lists, in header order, the columns whose every cell is a
// number or a missing marker. A column of only missing markers counts as
// numeric; a table without rows has no numeric columns.
func (t *Table) NumericColumns() []string {
	if len(t.rows) == 0 {
		return nil
	}

	var out []string
	for i, c := range t.columns {
		numeric := true
		for _, r := range t.rows {
			cell := strings.TrimSpace(r[i])
			if isMissingToken(cell) {
				continue
			}
			if _, ok := parseNumber(cell); !ok {
				numeric = false
				break
			}
		}
		if numeric {
			out = append(out, c)
		}
	}
	return out
}

// ColumnsContaining lists, in header order, the columns whose name contains
// substr.
func (t *Table) ColumnsContaining(substr string) []string {
	var out []string
	for _, c := range t.columns {
		if strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}

type tableJSON struct {
	Name    string     `json:"name"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.rows
	if rows == nil {
		rows = [][]string{}
	}
	return json.Marshal(tableJSON{Name: t.name, Columns: t.columns, Rows: rows})
}

func parseError(table, reason string, cause error) *Error {
	return &Error{Kind: KindParse, Table: table, Reason: reason, Cause: cause}
}
