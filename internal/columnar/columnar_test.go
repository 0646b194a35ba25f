package columnar_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/columnar"
	"github.com/rowlang/rowlang/internal/value"
)

func makeRows(n int) []value.Row {
	rows := make([]value.Row, n)
	for i := range rows {
		rows[i] = value.Row{
			"close": value.Num(float64(100 + i)),
			"code":  value.Str("7203"),
		}
	}
	return rows
}

func TestFromRowsTransposes(t *testing.T) {
	rows := []value.Row{
		{"close": value.Num(10), "volume": value.Num(1000)},
		{"close": value.Num(11)},
		{"close": value.Num(12), "volume": value.Num(1200), "extra": value.Num(1)},
	}
	table := columnar.FromRows(rows)

	assert.Equal(t, 3, table.RowCount())
	assert.Equal(t, 2, table.ColumnCount())
	assert.Equal(t, []string{"close", "volume"}, table.ColumnNames())

	v, ok := table.Value("close", 1)
	require.True(t, ok)
	assert.True(t, v.Equal(value.Num(11)))

	// Fields missing from later rows read as null.
	v, ok = table.Value("volume", 1)
	require.True(t, ok)
	assert.True(t, v.IsNull())

	// Columns absent from the first row are not stored.
	_, ok = table.Value("extra", 2)
	assert.False(t, ok)

	_, ok = table.Value("close", 3)
	assert.False(t, ok)
}

func TestFromRowsEmpty(t *testing.T) {
	table := columnar.FromRows(nil)
	assert.Equal(t, 0, table.RowCount())
	assert.Equal(t, 0, table.ColumnCount())
	_, ok := table.Value("close", 0)
	assert.False(t, ok)
}

func TestColumnSliceSharesBacking(t *testing.T) {
	table := columnar.FromRows(makeRows(5))

	col, ok := table.Column("close")
	require.True(t, ok)
	require.Len(t, col, 5)

	v, ok := table.ColumnSlice("close", 1, 3)
	require.True(t, ok)
	assert.True(t, v.Equal(value.Arr(value.Num(101), value.Num(102), value.Num(103))))

	// Out of range slices are rejected.
	_, ok = table.ColumnSlice("close", 3, 4)
	assert.False(t, ok)
	_, ok = table.ColumnSlice("missing", 0, 1)
	assert.False(t, ok)
}

func TestShouldUseColumnar(t *testing.T) {
	tests := []struct {
		name string
		cols int
		rows int
		want bool
	}{
		{"narrow and long", 3, 500, true},
		{"lower row bound", 3, 100, true},
		{"too few rows", 3, 99, false},
		{"too wide", 10, 500, false},
		{"no columns", 0, 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, columnar.ShouldUseColumnar(tt.cols, tt.rows))
		})
	}
}

func TestFloat64ColumnStatistics(t *testing.T) {
	table := columnar.FromRows([]value.Row{
		{"close": value.Num(10)},
		{"close": value.Num(30)},
		{"close": value.Num(20)},
	})

	col, ok := table.Float64Column("close")
	require.True(t, ok)
	defer col.Release()

	assert.Equal(t, 3, col.Len())
	assert.InDelta(t, 60, col.Sum(), 1e-9)
	assert.InDelta(t, 20, col.Mean(), 1e-9)

	minVal, ok := col.Min()
	require.True(t, ok)
	assert.InDelta(t, 10, minVal, 1e-9)

	maxVal, ok := col.Max()
	require.True(t, ok)
	assert.InDelta(t, 30, maxVal, 1e-9)
}

func TestViewColumnResolvesBacking(t *testing.T) {
	table := columnar.FromRows(makeRows(5))

	v, ok := table.ColumnSlice("close", 1, 3)
	require.True(t, ok)
	name, ok := table.ViewColumn(v.Slice())
	require.True(t, ok)
	assert.Equal(t, "close", name)

	// A view over foreign storage does not resolve.
	foreign := value.View([]value.Value{value.Num(1), value.Num(2)}, 0, 2)
	_, ok = table.ViewColumn(foreign.Slice())
	assert.False(t, ok)
	_, ok = table.ViewColumn(nil)
	assert.False(t, ok)
}

func TestFloat64ColumnRangeStatistics(t *testing.T) {
	table := columnar.FromRows([]value.Row{
		{"close": value.Num(10)},
		{"close": value.Num(30)},
		{"close": value.Num(20)},
		{"close": value.Num(40)},
	})

	col, ok := table.Float64Column("close")
	require.True(t, ok)
	defer col.Release()

	assert.True(t, col.InRange(1, 2))
	assert.False(t, col.InRange(3, 2))

	assert.InDelta(t, 50, col.SumRange(1, 2), 1e-9)

	minVal, ok := col.MinRange(1, 3)
	require.True(t, ok)
	assert.InDelta(t, 20, minVal, 1e-9)

	maxVal, ok := col.MaxRange(0, 2)
	require.True(t, ok)
	assert.InDelta(t, 30, maxVal, 1e-9)

	_, ok = col.MinRange(2, 0)
	assert.False(t, ok)
}

func TestFloat64ColumnRequiresHomogeneousNumbers(t *testing.T) {
	table := columnar.FromRows([]value.Row{
		{"close": value.Num(10), "code": value.Str("7203")},
		{"close": value.Null(), "code": value.Str("7203")},
	})

	_, ok := table.Float64Column("code")
	assert.False(t, ok)
	// Null cells disqualify the Arrow fast path too.
	_, ok = table.Float64Column("close")
	assert.False(t, ok)
}
