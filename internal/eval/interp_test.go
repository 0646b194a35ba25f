package eval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/errors"
	"github.com/rowlang/rowlang/internal/eval"
	"github.com/rowlang/rowlang/internal/parser"
	"github.com/rowlang/rowlang/internal/value"
)

func runScript(t *testing.T, i *eval.Interp, source string) (value.Value, bool, error) {
	t.Helper()
	script, err := parser.Parse(source)
	require.NoError(t, err)
	return i.EvalScript(script)
}

func mustRun(t *testing.T, i *eval.Interp, source string) value.Value {
	t.Helper()
	result, ok, err := runScript(t, i, source)
	require.NoError(t, err)
	require.True(t, ok)
	return result
}

func TestAssignAndReturn(t *testing.T) {
	i := eval.New()
	i.SetInput("close", value.Num(100))

	got := mustRun(t, i, "margin = close * 0.1\nreturn close + margin\n")
	assert.True(t, got.Equal(value.Num(110)))
}

func TestBodyWithoutReturnProducesNothing(t *testing.T) {
	i := eval.New()
	_, ok, err := runScript(t, i, "x = 1\ny = x + 1\n")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIfElifElse(t *testing.T) {
	source := `
if x > 10:
    return "high"
elif x > 5:
    return "mid"
else:
    return "low"
`
	tests := []struct {
		x    float64
		want string
	}{
		{20, "high"},
		{7, "mid"},
		{1, "low"},
	}
	for _, tt := range tests {
		i := eval.New()
		i.SetInput("x", value.Num(tt.x))
		got := mustRun(t, i, source)
		assert.True(t, got.Equal(value.Str(tt.want)))
	}
}

func TestTernaryAndWhen(t *testing.T) {
	i := eval.New()
	i.SetInput("x", value.Num(7))

	got := mustRun(t, i, "return x > 5 ? \"big\" : \"small\"\n")
	assert.True(t, got.Equal(value.Str("big")))

	got = mustRun(t, i, "return when x > 10 -> \"high\", x > 5 -> \"mid\", else -> \"low\"\n")
	assert.True(t, got.Equal(value.Str("mid")))

	// No matching branch and no else yields null.
	got = mustRun(t, i, "return when x > 100 -> 1\n")
	assert.True(t, got.IsNull())
}

func TestTernaryDoesNotEvaluateUntakenBranch(t *testing.T) {
	i := eval.New()
	got := mustRun(t, i, "return true ? 1 : undefined_name\n")
	assert.True(t, got.Equal(value.Num(1)))
}

func TestLambdaCapturesSnapshot(t *testing.T) {
	i := eval.New()
	source := `
k = 10
f = x -> x + k
k = 20
return f(1)
`
	got := mustRun(t, i, source)
	assert.True(t, got.Equal(value.Num(11)))
}

func TestLambdaArityIsStrict(t *testing.T) {
	i := eval.New()
	_, _, err := runScript(t, i, "f = (a, b) -> a + b\nreturn f(1)\n")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindArgumentMismatch))
}

// registerFunctions parses a package script and installs its functions as
// local user functions.
func registerFunctions(t *testing.T, i *eval.Interp, source string) {
	t.Helper()
	script, err := parser.Parse(source)
	require.NoError(t, err)
	for idx := range script.Functions {
		i.RegisterFunction(&script.Functions[idx])
	}
}

func TestScopeLambdaShadowsUserFunction(t *testing.T) {
	i := eval.New()
	registerFunctions(t, i, `package helpers

twice(x):
    return x * 2
`)
	got := mustRun(t, i, "twice = x -> x * 3\nreturn twice(5)\n")
	assert.True(t, got.Equal(value.Num(15)))
}

func TestUserFunctionDefaults(t *testing.T) {
	i := eval.New()
	registerFunctions(t, i, `package helpers

scale(x, factor = 2):
    return x * factor
`)
	got := mustRun(t, i, "return [scale(5), scale(5, 10)]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(10), value.Num(50))))
}

func TestFunctionScopeIsIsolated(t *testing.T) {
	i := eval.New()
	registerFunctions(t, i, `package helpers

bump(x):
    x = x + 100
    return x
`)
	got := mustRun(t, i, "x = 1\ny = bump(5)\nreturn [x, y]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(1), value.Num(105))))
}

func TestErrorBlockSubstitutesResult(t *testing.T) {
	i := eval.New()
	source := `-- INPUT close:number --
-- OUTPUT out:number --
-- ERROR --
return [__error__, -1]
-- ERROR_END --
return [1 / 0]
`
	got := mustRun(t, i, source)
	items := got.Items()
	require.Len(t, items, 2)
	assert.Equal(t, value.KindString, items[0].Kind())
	assert.Contains(t, items[0].Text(), "zero")
	assert.True(t, items[1].Equal(value.Num(-1)))
}

func TestErrorWithoutBlockPropagates(t *testing.T) {
	i := eval.New()
	_, _, err := runScript(t, i, "return 1 / 0\n")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindZeroDivision))
}

func TestUndefinedVariable(t *testing.T) {
	i := eval.New()
	_, _, err := runScript(t, i, "return nothing_here\n")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUndefinedVariable))
}

func TestDestructure(t *testing.T) {
	i := eval.New()
	source := `
[a, _, ...rest] = [1, 2, 3, 4, 5]
return [a, rest]
`
	got := mustRun(t, i, source)
	items := got.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].Equal(value.Num(1)))
	assert.True(t, items[1].Equal(value.Arr(value.Num(3), value.Num(4), value.Num(5))))
}

func TestSpreadFlattensInArrayLiteral(t *testing.T) {
	i := eval.New()
	i.SetInput("xs", value.Arr(value.Num(2), value.Num(3)))

	got := mustRun(t, i, "return [1, ...xs, 4]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(1), value.Num(2), value.Num(3), value.Num(4))))
}

func TestPipeline(t *testing.T) {
	i := eval.New()
	i.SetInput("xs", value.Arr(value.Num(1), value.Num(2), value.Num(3), value.Num(4)))

	got := mustRun(t, i, "return xs |> filter(x -> x > 1) |> map(x -> x * 10) |> sum()\n")
	assert.True(t, got.Equal(value.Num(90)))
}

func TestFStringInterpolation(t *testing.T) {
	i := eval.New()
	i.SetInput("code", value.Str("7203"))
	i.SetInput("close", value.Num(1500))

	got := mustRun(t, i, "return f\"{code}: {close * 2}\"\n")
	assert.True(t, got.Equal(value.Str("7203: 3000")))
}

func TestIndexingScopeArrays(t *testing.T) {
	i := eval.New()
	i.SetInput("xs", value.Arr(value.Num(10), value.Num(20), value.Num(30)))

	// Index 0 on a bare identifier is the identifier's own value.
	got := mustRun(t, i, "return xs[0]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(10), value.Num(20), value.Num(30))))

	got = mustRun(t, i, "return xs[1]\n")
	assert.True(t, got.Equal(value.Num(20)))

	// Out of range reads as null.
	got = mustRun(t, i, "return xs[10]\n")
	assert.True(t, got.IsNull())

	// Non-identifier bases always index as arrays.
	got = mustRun(t, i, "return [5, 6, 7][0]\n")
	assert.True(t, got.Equal(value.Num(5)))
	got = mustRun(t, i, "return [5, 6, 7][-1]\n")
	assert.True(t, got.Equal(value.Num(7)))
}

func TestSlicingScopeArrays(t *testing.T) {
	i := eval.New()
	i.SetInput("xs", value.Arr(value.Num(1), value.Num(2), value.Num(3), value.Num(4)))

	got := mustRun(t, i, "return xs[1:3]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(2), value.Num(3))))

	// Bounds clamp instead of erroring.
	got = mustRun(t, i, "return xs[2:100]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(3), value.Num(4))))

	got = mustRun(t, i, "return xs[3:1]\n")
	assert.True(t, got.Equal(value.Arr()))
}

func TestMetadataVariables(t *testing.T) {
	h := &fakeHistory{
		inputs: map[string][]value.Value{"close": closes(10, 11, 12, 13, 14)},
		idx:    2,
	}
	i := eval.New(eval.WithHistory(h))

	got := mustRun(t, i, "return [_index, _total]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(2), value.Num(5))))

	got = mustRun(t, i, "return _args_names\n")
	assert.True(t, got.Equal(value.Arr(value.Str("close"))))

	got = mustRun(t, i, "return _args\n")
	assert.True(t, got.Equal(value.Arr(value.Num(12))))
}

func TestScopeShadowsMetadata(t *testing.T) {
	h := &fakeHistory{
		inputs: map[string][]value.Value{"close": closes(10)},
		idx:    0,
	}
	i := eval.New(eval.WithHistory(h))
	i.SetInput("_index", value.Num(99))

	got := mustRun(t, i, "return _index\n")
	assert.True(t, got.Equal(value.Num(99)))
}

func TestNegativeIdentifierIndexReadsHistory(t *testing.T) {
	h := &fakeHistory{
		inputs:  map[string][]value.Value{"close": closes(10, 11, 12)},
		outputs: map[string][]value.Value{"ma": closes(20, 21, 22)},
		idx:     2,
	}
	i := eval.New(eval.WithHistory(h))
	i.SetInput("close", value.Num(12))

	got := mustRun(t, i, "return close[-1]\n")
	assert.True(t, got.Equal(value.Num(11)))

	// Output columns resolve after input columns.
	got = mustRun(t, i, "return ma[-1]\n")
	assert.True(t, got.Equal(value.Num(21)))
}

func TestNegativeIdentifierSliceReadsHistory(t *testing.T) {
	h := &fakeHistory{
		inputs: map[string][]value.Value{"close": closes(10, 11, 12, 13)},
		idx:    3,
	}
	i := eval.New(eval.WithHistory(h))

	got := mustRun(t, i, "return close[-2:-1]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(11), value.Num(12))))

	// A missing start bound reaches back to the first row.
	got = mustRun(t, i, "return close[:-1]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(10), value.Num(11), value.Num(12))))
}

func TestPrecisionHeaderRoundsResult(t *testing.T) {
	i := eval.New()
	source := `-- INPUT close:number --
-- PRECISION 2 --
return decimal("10") / decimal("3")
`
	i.RegisterBuiltin("decimal", func(_ *eval.Interp, args []value.Value) (value.Value, error) {
		d, err := args[0].AsDecimal()
		if err != nil {
			return value.Value{}, err
		}
		return value.Dec(d), nil
	})
	got := mustRun(t, i, source)
	require.Equal(t, value.KindDecimal, got.Kind())
	assert.Equal(t, "3.33", got.Decimal().String())
}

func TestEvalPackage(t *testing.T) {
	source := `package math_utils

base = 10
_hidden = 42

double(x):
    return x * 2
`
	script, err := parser.Parse(source)
	require.NoError(t, err)

	i := eval.New()
	members, err := i.EvalPackage(script)
	require.NoError(t, err)

	assert.True(t, members["base"].Equal(value.Num(10)))
	assert.Equal(t, value.KindFunction, members["double"].Kind())
	assert.True(t, members["_hidden"].Equal(value.Num(42)))
}

func TestPackageMemberAccess(t *testing.T) {
	i := eval.New(eval.WithPackages(map[string]value.Value{
		"math_utils.base": value.Num(10),
	}))
	got := mustRun(t, i, "return math_utils.base + 1\n")
	assert.True(t, got.Equal(value.Num(11)))
}

func TestPackageFunctionSeesSiblings(t *testing.T) {
	source := `package factors

scale = 3

apply(x):
    return x * scale

twice_applied(x):
    return apply(apply(x))
`
	script, err := parser.Parse(source)
	require.NoError(t, err)
	members, err := eval.New().EvalPackage(script)
	require.NoError(t, err)

	flat := map[string]value.Value{
		"factors.apply":         members["apply"],
		"factors.twice_applied": members["twice_applied"],
	}
	i := eval.New(eval.WithPackages(flat))
	got := mustRun(t, i, "scale = 100\nreturn [factors.apply(2), factors.twice_applied(2)]\n")
	assert.True(t, got.Equal(value.Arr(value.Num(6), value.Num(18))))
}
