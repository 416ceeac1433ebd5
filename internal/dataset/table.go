package dataset

import (
	"fmt"
)

// Kind distinguishes categorical columns from numeric (weight) columns.
type Kind int

const (
	Categorical Kind = iota
	Numeric
)

func (k Kind) String() string {
	if k == Numeric {
		return "numeric"
	}
	return "categorical"
}

// Column is a single survey variable, stored column-oriented. Categorical
// columns keep an explicit ordered level list; per-row values are indexes
// into that list, with -1 meaning unset (no response recorded and sentinel
// retention disabled, or a recode left the row uncovered).
type Column struct {
	Name   string
	Kind   Kind
	Levels []string

	codes []int
	vals  []float64
}

// NewCategorical builds a categorical column from per-row labels. Levels fixes
// the display order; labels not present in Levels (including "") become unset.
func NewCategorical(name string, levels []string, labels []string) *Column {
	idx := make(map[string]int, len(levels))
	for i, l := range levels {
		idx[l] = i
	}
	codes := make([]int, len(labels))
	for i, l := range labels {
		if j, ok := idx[l]; ok {
			codes[i] = j
		} else {
			codes[i] = -1
		}
	}
	return &Column{
		Name:   name,
		Kind:   Categorical,
		Levels: append([]string(nil), levels...),
		codes:  codes,
	}
}

// NewNumeric builds a numeric column, used for sampling weights.
func NewNumeric(name string, vals []float64) *Column {
	return &Column{Name: name, Kind: Numeric, vals: append([]float64(nil), vals...)}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.vals)
	}
	return len(c.codes)
}

// Label returns the category label at row i. ok is false when the row is unset.
func (c *Column) Label(i int) (string, bool) {
	if c.Kind != Categorical {
		return "", false
	}
	code := c.codes[i]
	if code < 0 {
		return "", false
	}
	return c.Levels[code], true
}

// Value returns the numeric value at row i.
func (c *Column) Value(i int) float64 {
	return c.vals[i]
}

// Unset reports how many rows of a categorical column carry no value.
func (c *Column) Unset() int {
	n := 0
	for _, code := range c.codes {
		if code < 0 {
			n++
		}
	}
	return n
}

// Table is an immutable in-memory survey dataset: one row per respondent,
// uniform row count across columns. Transformations return new tables that
// share unchanged columns.
type Table struct {
	cols  []*Column
	index map[string]int
	n     int
}

// NewTable assembles columns into a table. All columns must share a row count
// and carry distinct names.
func NewTable(cols ...*Column) (*Table, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("table requires at least one column")
	}
	t := &Table{index: make(map[string]int, len(cols)), n: cols[0].Len()}
	for _, c := range cols {
		if c.Len() != t.n {
			return nil, fmt.Errorf("column %s has %d rows, want %d", c.Name, c.Len(), t.n)
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %s", c.Name)
		}
		t.index[c.Name] = len(t.cols)
		t.cols = append(t.cols, c)
	}
	return t, nil
}

// NumRows returns the respondent count.
func (t *Table) NumRows() int { return t.n }

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.cols[i], true
}

// Columns returns column names in table order.
func (t *Table) Columns() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// WithColumn returns a new table with c appended. The column name must be new.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if _, exists := t.index[c.Name]; exists {
		return nil, fmt.Errorf("column %s already exists", c.Name)
	}
	return NewTable(append(append([]*Column(nil), t.cols...), c)...)
}

// ReplaceColumn returns a new table with the named column swapped for c,
// keeping its position. Used by category collapsing.
func (t *Table) ReplaceColumn(name string, c *Column) (*Table, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("no column %s", name)
	}
	cols := append([]*Column(nil), t.cols...)
	cols[i] = c
	return NewTable(cols...)
}

// Row is a read-only view of a single respondent, used by recode predicates.
type Row struct {
	t *Table
	i int
}

// Row returns the i'th respondent.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Label returns the category label of column at this row; ok is false when
// the column is absent, numeric, or unset at this row.
func (r Row) Label(column string) (string, bool) {
	c, ok := r.t.Column(column)
	if !ok || c.Kind != Categorical {
		return "", false
	}
	return c.Label(r.i)
}

// Is reports whether column carries exactly label at this row.
func (r Row) Is(column, label string) bool {
	got, ok := r.Label(column)
	return ok && got == label
}

// ColumnSchema is a per-column summary for dataset inspection.
type ColumnSchema struct {
	Name   string
	Kind   string
	Levels []string
	Unset  int
}

// Schema summarizes every column for display.
func (t *Table) Schema() []ColumnSchema {
	out := make([]ColumnSchema, 0, len(t.cols))
	for _, c := range t.cols {
		s := ColumnSchema{Name: c.Name, Kind: c.Kind.String()}
		if c.Kind == Categorical {
			s.Levels = append([]string(nil), c.Levels...)
			s.Unset = c.Unset()
		}
		out = append(out, s)
	}
	return out
}
