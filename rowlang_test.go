package rowlang_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang"
)

const ma5Script = `-- INPUT code:string, close:number --
-- OUTPUT code:string, ma5:number --

ma5 = sum(window("close", 5)) / 5
return [code, ma5]
`

func TestParseExposesDeclarations(t *testing.T) {
	script, err := rowlang.Parse(ma5Script)
	require.NoError(t, err)
	assert.False(t, script.IsPackage())
	assert.Equal(t, []string{"code", "close"}, script.InputColumns())
	assert.Equal(t, []string{"code", "ma5"}, script.OutputColumns())
}

func TestExecuteBatch(t *testing.T) {
	script, err := rowlang.Parse(ma5Script)
	require.NoError(t, err)

	rows := make([]rowlang.Row, 10)
	for i := range rows {
		rows[i] = rowlang.Row{
			"code":  rowlang.Str("7203"),
			"close": rowlang.Num(float64(100 + i)),
		}
	}

	out, err := rowlang.ExecuteBatch(script, rows)
	require.NoError(t, err)
	require.Len(t, out, 10)

	// Row 9 averages closes 105..109.
	assert.True(t, out[9]["ma5"].Equal(rowlang.Num(107)))
	assert.True(t, out[9]["code"].Equal(rowlang.Str("7203")))
}

func TestStreamMatchesBatch(t *testing.T) {
	script, err := rowlang.Parse(ma5Script)
	require.NoError(t, err)

	stream, err := rowlang.NewStream(script)
	require.NoError(t, err)

	var last rowlang.Row
	for i := 0; i < 10; i++ {
		out, ok, err := stream.Push(rowlang.Row{
			"code":  rowlang.Str("7203"),
			"close": rowlang.Num(float64(100 + i)),
		})
		require.NoError(t, err)
		require.True(t, ok)
		last = out
	}
	assert.True(t, last["ma5"].Equal(rowlang.Num(107)))
}

func TestEvalSingleShot(t *testing.T) {
	source := `-- INPUT close:number --
-- ERROR --
return -1
-- ERROR_END --

return close * 2
`
	script, err := rowlang.Parse(source)
	require.NoError(t, err)

	got, ok, err := rowlang.Eval(script, rowlang.Row{"close": rowlang.Num(21)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(rowlang.Num(42)))

	// A failure routes through the ERROR block on this path.
	got, ok, err = rowlang.Eval(script, rowlang.Row{"close": rowlang.Str("oops")})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(rowlang.Num(-1)))
}

func TestExecuteBatchWithImports(t *testing.T) {
	dir := t.TempDir()
	pkg := "package factors\n\nscale = 2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "factors.pkg"), []byte(pkg), 0o600))

	source := `-- IMPORT factors --
-- INPUT close:number --
-- OUTPUT scaled:number --

return [close * factors.scale]
`
	script, err := rowlang.Parse(source)
	require.NoError(t, err)

	out, err := rowlang.ExecuteBatch(script,
		[]rowlang.Row{{"close": rowlang.Num(5)}},
		rowlang.WithPackageDirs(dir))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0]["scaled"].Equal(rowlang.Num(10)))
}

func TestWithBuiltinAndStdout(t *testing.T) {
	source := `-- INPUT close:number --
-- OUTPUT out:number --

print("tick", close)
return [clamp01(close)]
`
	script, err := rowlang.Parse(source)
	require.NoError(t, err)

	var buf bytes.Buffer
	out, err := rowlang.ExecuteBatch(script,
		[]rowlang.Row{{"close": rowlang.Num(3)}},
		rowlang.WithStdout(&buf),
		rowlang.WithBuiltin("clamp01", func(args []rowlang.Value) (rowlang.Value, error) {
			n := args[0].Float()
			if n < 0 {
				n = 0
			} else if n > 1 {
				n = 1
			}
			return rowlang.Num(n), nil
		}))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, out[0]["out"].Equal(rowlang.Num(1)))
	assert.Equal(t, "tick 3\n", buf.String())
}

func TestExecuteBatchStreamsCSV(t *testing.T) {
	source := `-- INPUT close:number --
-- OUTPUT close:number, double:number --

return [close, close * 2]
`
	script, err := rowlang.Parse(source)
	require.NoError(t, err)

	var buf bytes.Buffer
	out, err := rowlang.ExecuteBatch(script,
		[]rowlang.Row{
			{"close": rowlang.Num(10)},
			{"close": rowlang.Num(11)},
		},
		rowlang.WithCSVOutput(&buf))
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Header follows the declared output order, not sorted keys.
	assert.Equal(t, "close,double\n10,20\n11,22\n", buf.String())
}

func TestExecuteBatchRowCallback(t *testing.T) {
	script, err := rowlang.Parse(ma5Script)
	require.NoError(t, err)

	rows := make([]rowlang.Row, 5)
	for i := range rows {
		rows[i] = rowlang.Row{
			"code":  rowlang.Str("7203"),
			"close": rowlang.Num(float64(100 + i)),
		}
	}

	var seen int
	_, err = rowlang.ExecuteBatch(script, rows,
		rowlang.WithRowCallback(func(row rowlang.Row) error {
			seen++
			return nil
		}))
	require.NoError(t, err)
	assert.Equal(t, 5, seen)
}

func TestMissingConfigFileFailsRun(t *testing.T) {
	script, err := rowlang.Parse(ma5Script)
	require.NoError(t, err)

	_, err = rowlang.ExecuteBatch(script, nil,
		rowlang.WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config file")
}

func TestPackageScriptRejectedForExecution(t *testing.T) {
	script, err := rowlang.Parse("package math\n\nx = 1\n")
	require.NoError(t, err)
	assert.True(t, script.IsPackage())

	_, err = rowlang.ExecuteBatch(script, nil)
	require.Error(t, err)
}
