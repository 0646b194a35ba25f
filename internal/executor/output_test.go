package executor_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/executor"
	"github.com/rowlang/rowlang/internal/value"
)

func TestInMemoryOutputRetainsRows(t *testing.T) {
	m := executor.NewInMemoryOutput()

	require.NoError(t, m.Append(value.Row{"close": value.Num(10)}))
	require.NoError(t, m.Append(value.Row{"close": value.Num(11)}))
	require.NoError(t, m.Close())

	assert.Equal(t, 2, m.WrittenCount())
	require.Len(t, m.Rows(), 2)
	assert.True(t, m.Rows()[1]["close"].Equal(value.Num(11)))
}

func TestCallbackOutputInvokesPerRow(t *testing.T) {
	var seen []value.Row
	m := executor.NewCallbackOutput(func(row value.Row) error {
		seen = append(seen, row)
		return nil
	})

	require.NoError(t, m.Append(value.Row{"close": value.Num(10)}))
	assert.Len(t, seen, 1)
	assert.Equal(t, 1, m.WrittenCount())
	assert.Empty(t, m.Rows())
}

func TestCSVOutputWritesSortedHeader(t *testing.T) {
	var buf bytes.Buffer
	m := executor.NewCSVOutput(&buf, 2)

	require.NoError(t, m.Append(value.Row{
		"ma":    value.Num(10.5),
		"code":  value.Str("7203"),
		"close": value.Num(1500),
	}))
	require.NoError(t, m.Append(value.Row{
		"code":  value.Str("7203"),
		"close": value.Num(1510),
	}))
	require.NoError(t, m.Close())

	want := "close,code,ma\n1500,7203,10.5\n1510,7203,\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 2, m.WrittenCount())
}

func TestCSVOutputFixedColumns(t *testing.T) {
	var buf bytes.Buffer
	m := executor.NewCSVOutput(&buf, 2)
	m.SetColumns([]string{"code", "ma"})

	require.NoError(t, m.Append(value.Row{
		"ma":   value.Num(10.5),
		"code": value.Str("7203"),
	}))
	require.NoError(t, m.Close())

	assert.Equal(t, "code,ma\n7203,10.5\n", buf.String())
}

func TestCSVOutputWritesFixedHeaderWithoutRows(t *testing.T) {
	var buf bytes.Buffer
	m := executor.NewCSVOutput(&buf, 2)
	m.SetColumns([]string{"code", "ma"})

	require.NoError(t, m.Close())
	assert.Equal(t, "code,ma\n", buf.String())
}

func TestCSVOutputFlushesOnInterval(t *testing.T) {
	var buf bytes.Buffer
	m := executor.NewCSVOutput(&buf, 2)

	require.NoError(t, m.Append(value.Row{"close": value.Num(1)}))
	// One row appended, below the flush interval: nothing reaches the
	// writer yet.
	assert.Equal(t, 0, buf.Len())

	require.NoError(t, m.Append(value.Row{"close": value.Num(2)}))
	assert.Equal(t, "close\n1\n2\n", buf.String())
}
