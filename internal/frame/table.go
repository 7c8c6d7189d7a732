// Package frame implements the in-memory table the feature pipeline operates
// on: ordered, typed columns of nullable cells.
//
// Value conventions (shared with the CSV parser):
//   - a cell is nil (missing), float64 (numeric), or string
//   - numeric columns carry a Kind of Int64 or Float64; Int64 is a display
//     and profiling property, the cells themselves are float64
//   - an Int64 column that acquires nulls (outer joins, all-null groups)
//     is demoted to Float64, matching how the upstream CSV consumers treat
//     integer columns with missing values
//
// Tables are not safe for concurrent mutation. The pipeline is batch and
// single-threaded: each stage takes ownership of its input and hands a new
// or extended table to the caller.
package frame

import (
	"fmt"
	"sort"
	"strconv"
)

// Kind is the storage type of a column.
type Kind int

const (
	Int64 Kind = iota
	Float64
	String
)

// DType returns the external type name used in the schema descriptor.
func (k Kind) DType() string {
	switch k {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	default:
		return "object"
	}
}

// Column is a single named column. Vals entries are nil, float64 or string
// per the package conventions.
type Column struct {
	Name string
	Kind Kind
	Vals []any
}

// IsNull reports whether the cell at row i is missing.
func (c *Column) IsNull(i int) bool { return c.Vals[i] == nil }

// Float returns the numeric cell at row i. ok is false for nulls and for
// string cells.
func (c *Column) Float(i int) (float64, bool) {
	f, ok := c.Vals[i].(float64)
	return f, ok
}

// NormalizeKind demotes an Int64 column containing nulls to Float64.
func (c *Column) NormalizeKind() {
	if c.Kind != Int64 {
		return
	}
	for _, v := range c.Vals {
		if v == nil {
			c.Kind = Float64
			return
		}
	}
}

// Distinct returns the distinct non-null values of the column, sorted
// ascending (numerically for numeric cells, lexicographically otherwise).
// The sorted order makes derived column sets deterministic across runs.
func (c *Column) Distinct() []any {
	seen := make(map[any]struct{})
	var out []any
	for _, v := range c.Vals {
		if v == nil {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	SortValues(out)
	return out
}

// DistinctInOrder returns the distinct non-null values in first-encountered
// order. The schema profiler uses this to keep enumerations stable with the
// source row order.
func (c *Column) DistinctInOrder() []any {
	seen := make(map[any]struct{})
	var out []any
	for _, v := range c.Vals {
		if v == nil {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New returns an empty table.
func New() *Table {
	return &Table{index: map[string]int{}}
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// HasCol reports whether a column exists.
func (t *Table) HasCol(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Col returns the named column. A missing column is a schema mismatch and
// is reported at this first point of access.
func (t *Table) Col(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("frame: column %q not found", name)
	}
	return t.cols[i], nil
}

// ColAt returns the column at position i.
func (t *Table) ColAt(i int) *Column { return t.cols[i] }

// AddColumn appends a column. Its length must match the table unless the
// table is still empty.
func (t *Table) AddColumn(c *Column) error {
	if _, exists := t.index[c.Name]; exists {
		return fmt.Errorf("frame: duplicate column %q", c.Name)
	}
	if len(t.cols) > 0 && len(c.Vals) != t.nrows {
		return fmt.Errorf("frame: column %q has %d rows, table has %d", c.Name, len(c.Vals), t.nrows)
	}
	if len(t.cols) == 0 {
		t.nrows = len(c.Vals)
	}
	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// FilterRows returns a new table containing only the rows for which keep
// returns true. Column kinds are preserved (a filter cannot introduce nulls).
func (t *Table) FilterRows(keep func(row int) bool) *Table {
	var rows []int
	for i := 0; i < t.nrows; i++ {
		if keep(i) {
			rows = append(rows, i)
		}
	}
	out := New()
	for _, c := range t.cols {
		vals := make([]any, len(rows))
		for j, i := range rows {
			vals[j] = c.Vals[i]
		}
		// AddColumn cannot fail here: names are already unique and aligned.
		_ = out.AddColumn(&Column{Name: c.Name, Kind: c.Kind, Vals: vals})
	}
	out.nrows = len(rows)
	return out
}

// KeySet returns the set of normalized non-null values of the named column.
func (t *Table) KeySet(name string) (map[string]struct{}, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, t.nrows)
	for _, v := range c.Vals {
		if v == nil {
			continue
		}
		set[FormatValue(v)] = struct{}{}
	}
	return set, nil
}

// FormatValue renders a cell for CSV output, join keys and derived column
// names. Integral floats render without a decimal part so identifier-like
// numeric columns keep their natural spelling.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// SortValues sorts cells ascending: numerically when every cell is numeric,
// lexicographically on the rendered form otherwise.
func SortValues(vals []any) {
	numeric := true
	for _, v := range vals {
		if _, ok := v.(float64); !ok {
			numeric = false
			break
		}
	}
	if numeric {
		sort.Slice(vals, func(i, j int) bool {
			return vals[i].(float64) < vals[j].(float64)
		})
		return
	}
	sort.Slice(vals, func(i, j int) bool {
		return FormatValue(vals[i]) < FormatValue(vals[j])
	})
}
