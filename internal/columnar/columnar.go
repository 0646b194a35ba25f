// Package columnar transposes a finalized batch of rows into per-column
// storage. Column-major layout makes per-row history reads cheap: a slice of
// "close, N rows back" is one zero-copy view into a shared backing column
// instead of N map lookups. Homogeneous numeric columns additionally get an
// Apache Arrow representation for bulk statistics.
package columnar

import (
	"sort"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/maps"

	"github.com/rowlang/rowlang/internal/value"
)

// Columnar layout pays off only for narrow tables with enough rows to
// amortize the transposition cost.
const (
	maxColumnarColumns = 10
	minColumnarRows    = 100
)

// ShouldUseColumnar reports whether a batch with the given shape is worth
// transposing.
func ShouldUseColumnar(cols, rows int) bool {
	return cols > 0 && cols < maxColumnarColumns && rows >= minColumnarRows
}

// Table is an immutable column-major view of a row batch. Columns are
// shared: slices cut from them alias the backing storage and are valid for
// the lifetime of the Table.
type Table struct {
	names   []string
	index   map[string]int
	columns [][]value.Value
	rows    int
}

// FromRows transposes rows into columns. The column set is taken from the
// first row (sorted for determinism); fields missing from later rows are
// stored as Null and extra fields are ignored.
func FromRows(rows []value.Row) *Table {
	t := &Table{index: make(map[string]int)}
	if len(rows) == 0 {
		return t
	}

	t.names = maps.Keys(rows[0])
	sort.Strings(t.names)
	t.rows = len(rows)
	t.columns = make([][]value.Value, len(t.names))
	for i, name := range t.names {
		t.index[name] = i
		col := make([]value.Value, len(rows))
		for r, row := range rows {
			if v, ok := row[name]; ok {
				col[r] = v
			} else {
				col[r] = value.Null()
			}
		}
		t.columns[i] = col
	}
	return t
}

// RowCount returns the number of rows.
func (t *Table) RowCount() int { return t.rows }

// ColumnCount returns the number of columns.
func (t *Table) ColumnCount() int { return len(t.names) }

// ColumnNames returns the column names in stored order.
func (t *Table) ColumnNames() []string { return t.names }

// Value returns one cell.
func (t *Table) Value(name string, row int) (value.Value, bool) {
	i, ok := t.index[name]
	if !ok || row < 0 || row >= t.rows {
		return value.Value{}, false
	}
	return t.columns[i][row], true
}

// Column returns the shared backing slice for a column.
func (t *Table) Column(name string) ([]value.Value, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnSlice returns a zero-copy view over column rows [start, start+length).
func (t *Table) ColumnSlice(name string, start, length int) (value.Value, bool) {
	i, ok := t.index[name]
	if !ok || start < 0 || length < 0 || start+length > t.rows {
		return value.Value{}, false
	}
	return value.View(t.columns[i], start, length), true
}

// ViewColumn reports which column a slice view was cut from, by backing
// identity. A view over any other storage resolves to false.
func (t *Table) ViewColumn(view *value.SliceView) (string, bool) {
	if view == nil || len(view.Column) == 0 {
		return "", false
	}
	for i, col := range t.columns {
		if len(col) == len(view.Column) && &col[0] == &view.Column[0] {
			return t.names[i], true
		}
	}
	return "", false
}

// Float64Column is an Arrow materialization of a homogeneous numeric column.
type Float64Column struct {
	arr *array.Float64
}

// Float64Column builds an Arrow Float64 array for the named column. It
// returns false when the column is missing or holds any non-Number value.
// The caller owns the result and must Release it.
func (t *Table) Float64Column(name string) (*Float64Column, bool) {
	col, ok := t.Column(name)
	if !ok {
		return nil, false
	}
	for _, v := range col {
		if v.Kind() != value.KindNumber {
			return nil, false
		}
	}

	builder := array.NewFloat64Builder(memory.NewGoAllocator())
	defer builder.Release()
	for _, v := range col {
		builder.Append(v.Float())
	}
	return &Float64Column{arr: builder.NewFloat64Array()}, true
}

// Len returns the number of values.
func (c *Float64Column) Len() int { return c.arr.Len() }

// Release frees the Arrow buffers.
func (c *Float64Column) Release() { c.arr.Release() }

// InRange reports whether [start, start+n) lies within the column.
func (c *Float64Column) InRange(start, n int) bool {
	return start >= 0 && n >= 0 && start+n <= c.arr.Len()
}

// Sum returns the total of all values; zero for an empty column.
func (c *Float64Column) Sum() float64 {
	return c.SumRange(0, c.arr.Len())
}

// SumRange totals the n values starting at start.
func (c *Float64Column) SumRange(start, n int) float64 {
	total := 0.0
	for i := start; i < start+n; i++ {
		total += c.arr.Value(i)
	}
	return total
}

// Mean returns the average value; zero for an empty column.
func (c *Float64Column) Mean() float64 {
	if c.arr.Len() == 0 {
		return 0
	}
	return c.Sum() / float64(c.arr.Len())
}

// Min returns the smallest value; false for an empty column.
func (c *Float64Column) Min() (float64, bool) {
	return c.MinRange(0, c.arr.Len())
}

// MinRange returns the smallest of the n values starting at start; false
// for an empty range.
func (c *Float64Column) MinRange(start, n int) (float64, bool) {
	if n == 0 {
		return 0, false
	}
	best := c.arr.Value(start)
	for i := start + 1; i < start+n; i++ {
		if v := c.arr.Value(i); v < best {
			best = v
		}
	}
	return best, true
}

// Max returns the largest value; false for an empty column.
func (c *Float64Column) Max() (float64, bool) {
	return c.MaxRange(0, c.arr.Len())
}

// MaxRange returns the largest of the n values starting at start; false
// for an empty range.
func (c *Float64Column) MaxRange(start, n int) (float64, bool) {
	if n == 0 {
		return 0, false
	}
	best := c.arr.Value(start)
	for i := start + 1; i < start+n; i++ {
		if v := c.arr.Value(i); v > best {
			best = v
		}
	}
	return best, true
}
