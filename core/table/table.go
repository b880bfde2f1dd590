// Package table provides the in-memory tabular model consumed by the tree and
// trace builders: labeled string and numeric columns, grouping with sums, and
// type inference from raw string cells.
//
// Numeric cells are decimal.Decimal so that sums are exact and independent of
// summation order.
package table

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Shopify/visualization-tools/internal/errors"
)

// Kind is the type of a column
type Kind int

const (
	// KindString is a categorical column
	KindString Kind = iota
	// KindNumber is a numeric column
	KindNumber
)

// String returns the kind name
func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "string"
}

// Column describes one labeled column
type Column struct {
	Name string
	Kind Kind
}

// Cell holds one value. Only the field matching the column kind is meaningful.
type Cell struct {
	Str string
	Num decimal.Decimal
}

// Table is an ordered set of rows over fixed columns. Rows are immutable once
// added; operations that change the shape return a new table.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]Cell
}

// New creates an empty table. Column names must be unique.
func New(columns ...Column) (*Table, error) {
	t := &Table{
		columns: append([]Column(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := t.index[c.Name]; dup {
			return nil, errors.Newf(errors.TypeInput, "duplicate column %q", c.Name)
		}
		t.index[c.Name] = i
	}
	return t, nil
}

// MustNew is New for statically known columns; it panics on duplicates.
func MustNew(columns ...Column) *Table {
	t, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return t
}

// AddRow appends a row. String columns take a string (or fmt.Stringer);
// number columns take decimal.Decimal, float64, int or int64.
func (t *Table) AddRow(values ...any) error {
	if len(values) != len(t.columns) {
		return errors.Newf(errors.TypeInput, "row has %d values, table has %d columns", len(values), len(t.columns))
	}
	row := make([]Cell, len(values))
	for i, v := range values {
		col := t.columns[i]
		if col.Kind == KindString {
			switch s := v.(type) {
			case string:
				row[i].Str = s
			case fmt.Stringer:
				row[i].Str = s.String()
			default:
				return errors.Newf(errors.TypeInput, "column %q expects a string, got %T", col.Name, v)
			}
			continue
		}
		switch n := v.(type) {
		case decimal.Decimal:
			row[i].Num = n
		case float64:
			row[i].Num = decimal.NewFromFloat(n)
		case int:
			row[i].Num = decimal.NewFromInt(int64(n))
		case int64:
			row[i].Num = decimal.NewFromInt(n)
		default:
			return errors.Newf(errors.TypeInput, "column %q expects a number, got %T", col.Name, v)
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Columns returns the column descriptors in order
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// Column returns the named column
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// StringColumns returns the names of categorical columns, in order
func (t *Table) StringColumns() []string {
	return t.namesOf(KindString)
}

// NumberColumns returns the names of numeric columns, in order
func (t *Table) NumberColumns() []string {
	return t.namesOf(KindNumber)
}

func (t *Table) namesOf(kind Kind) []string {
	var names []string
	for _, c := range t.columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// String returns the cell of a string column
func (t *Table) String(row int, column string) (string, error) {
	i, err := t.lookup(column, KindString)
	if err != nil {
		return "", err
	}
	return t.rows[row][i].Str, nil
}

// Number returns the cell of a numeric column
func (t *Table) Number(row int, column string) (decimal.Decimal, error) {
	i, err := t.lookup(column, KindNumber)
	if err != nil {
		return decimal.Zero, err
	}
	return t.rows[row][i].Num, nil
}

func (t *Table) lookup(column string, kind Kind) (int, error) {
	i, ok := t.index[column]
	if !ok {
		if kind == KindNumber {
			return 0, errors.MetricNotFound(column)
		}
		return 0, errors.Newf(errors.TypeInput, "column %q not in table", column)
	}
	if t.columns[i].Kind != kind {
		return 0, errors.Newf(errors.TypeInput, "column %q is %s, not %s", column, t.columns[i].Kind, kind)
	}
	return i, nil
}

// AsStrings returns a copy of t where each named column is a string column.
// Numeric columns are rendered with decimal.String and reported as a warning;
// role names the option the column came from and only shapes the message.
func (t *Table) AsStrings(role string, columns ...string) (*Table, []errors.Warning, error) {
	var convert []int
	var warnings []errors.Warning
	for _, name := range columns {
		i, ok := t.index[name]
		if !ok {
			return nil, nil, errors.Newf(errors.TypeInput, "column %q not in table", name)
		}
		if t.columns[i].Kind == KindNumber {
			convert = append(convert, i)
			warnings = append(warnings, errors.Coerced(name, role))
		}
	}
	if len(convert) == 0 {
		return t, nil, nil
	}

	out := &Table{
		columns: t.Columns(),
		index:   t.index,
		rows:    make([][]Cell, len(t.rows)),
	}
	for _, i := range convert {
		out.columns[i].Kind = KindString
	}
	for r, row := range t.rows {
		cp := append([]Cell(nil), row...)
		for _, i := range convert {
			cp[i] = Cell{Str: row[i].Num.String()}
		}
		out.rows[r] = cp
	}
	return out, warnings, nil
}

// Concat returns the rows of t followed by the rows of other. Both tables
// must have identical columns.
func (t *Table) Concat(other *Table) (*Table, error) {
	if len(t.columns) != len(other.columns) {
		return nil, errors.Input("cannot concatenate tables with different columns")
	}
	for i, c := range t.columns {
		if other.columns[i] != c {
			return nil, errors.Newf(errors.TypeInput, "column %d differs: %v vs %v", i, c, other.columns[i])
		}
	}
	out := &Table{columns: t.Columns(), index: t.index}
	out.rows = append(append(out.rows, t.rows...), other.rows...)
	return out, nil
}
