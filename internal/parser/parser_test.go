package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rowlang/rowlang/internal/ast"
)

func TestParseExpressionPrecedence(t *testing.T) {
	expr, err := ParseExpression("ma5 + ma10 * 2")
	require.NoError(t, err)
	assert.Equal(t, "(ma5 + (ma10 * 2))", expr.String())

	expr, err = ParseExpression("2 ^ 3 ^ 2")
	require.NoError(t, err)
	assert.Equal(t, "(2 ^ (3 ^ 2))", expr.String())

	expr, err = ParseExpression("a > 1 and b < 2 or c == 3")
	require.NoError(t, err)
	assert.Equal(t, "(((a > 1) and (b < 2)) or (c == 3))", expr.String())
}

func TestParseTernaryChain(t *testing.T) {
	expr, err := ParseExpression("a ? b : c ? d : e")
	require.NoError(t, err)
	ternary, ok := expr.(*ast.TernaryExpr)
	require.True(t, ok)
	_, nested := ternary.Else.(*ast.TernaryExpr)
	assert.True(t, nested)
}

func TestParseDataScript(t *testing.T) {
	src := `
-- IMPORT math, utils --
-- INPUT code:string, close:number --
-- OUTPUT code:string, ma5:number --
-- PRECISION 4 --

ma5 = avg(past("close", 5))
return [code, ma5]
`
	script, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, ast.KindData, script.Kind)
	assert.Equal(t, []string{"math", "utils"}, script.Imports)
	require.Len(t, script.Input, 2)
	assert.Equal(t, "code", script.Input[0].Name)
	assert.Equal(t, ast.TypeString, script.Input[0].Type)
	assert.Equal(t, ast.TypeNumber, script.Input[1].Type)
	require.Len(t, script.Output, 2)
	require.NotNil(t, script.Precision)
	assert.Equal(t, int32(4), script.Precision.Scale)
	assert.Len(t, script.Body, 2)
}

func TestParseErrorBlock(t *testing.T) {
	src := `
-- INPUT close:number --
-- OUTPUT out:number --
-- ERROR --
return [0]
-- ERROR_END --

return [close * 2]
`
	script, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, script.ErrorBlock, 1)
	_, ok := script.ErrorBlock[0].(*ast.ReturnStmt)
	assert.True(t, ok)
	assert.Len(t, script.Body, 1)
}

func TestParsePackageScript(t *testing.T) {
	src := `package math

pi = 3.14159
_secret = 42

square(x: number) -> number:
    return x * x

clamp(v, lo = 0, hi = 1):
    return v < lo ? lo : v > hi ? hi : v
`
	script, err := Parse(src)
	require.NoError(t, err)
	assert.Equal(t, ast.KindPackage, script.Kind)
	assert.Equal(t, "math", script.Name)
	require.Len(t, script.Variables, 2)
	assert.False(t, script.Variables[0].Private)
	assert.True(t, script.Variables[1].Private)

	require.Len(t, script.Functions, 2)
	square := script.Functions[0]
	assert.Equal(t, "square", square.Name)
	assert.Equal(t, ast.TypeNumber, square.ReturnType)
	require.Len(t, square.Params, 1)

	clamp := script.Functions[1]
	assert.Equal(t, 1, clamp.RequiredParams())
	require.Len(t, clamp.Params, 3)
	assert.NotNil(t, clamp.Params[1].Default)
	assert.NotNil(t, clamp.Params[2].Default)
}

func TestDefaultBeforeRequiredRejected(t *testing.T) {
	src := `package bad

f(a = 1, b):
    return a + b
`
	_, err := Parse(src)
	require.Error(t, err)
}

func TestParseLambda(t *testing.T) {
	expr, err := ParseExpression("map([1,2,3], x -> x * 2)")
	require.NoError(t, err)
	call, ok := expr.(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "map", call.Callee)
	require.Len(t, call.Args, 2)
	lambda, ok := call.Args[1].(*ast.LambdaExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"x"}, lambda.Params)

	expr, err = ParseExpression("(a, b) -> a + b")
	require.NoError(t, err)
	lambda, ok = expr.(*ast.LambdaExpr)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, lambda.Params)
}

func TestParsePipeline(t *testing.T) {
	expr, err := ParseExpression("xs |> map(f) |> sum()")
	require.NoError(t, err)
	pipe, ok := expr.(*ast.PipelineExpr)
	require.True(t, ok)
	assert.Len(t, pipe.Stages, 2)
}

func TestParseIndexAndSlice(t *testing.T) {
	expr, err := ParseExpression("close[-1]")
	require.NoError(t, err)
	idx, ok := expr.(*ast.IndexExpr)
	require.True(t, ok)
	_, neg := idx.Index.(*ast.UnaryExpr)
	assert.True(t, neg)

	expr, err = ParseExpression("close[-5:-1]")
	require.NoError(t, err)
	sl, ok := expr.(*ast.SliceExpr)
	require.True(t, ok)
	assert.NotNil(t, sl.Start)
	assert.NotNil(t, sl.End)

	expr, err = ParseExpression("xs[:3]")
	require.NoError(t, err)
	sl, ok = expr.(*ast.SliceExpr)
	require.True(t, ok)
	assert.Nil(t, sl.Start)
	assert.NotNil(t, sl.End)
}

func TestParseMemberCall(t *testing.T) {
	expr, err := ParseExpression("math.square(3)")
	require.NoError(t, err)
	call, ok := expr.(*ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "math.square", call.Callee)
}

func TestParseWhen(t *testing.T) {
	expr, err := ParseExpression("when x > 1 -> 2, x > 0 -> 1, else -> 0")
	require.NoError(t, err)
	when, ok := expr.(*ast.WhenExpr)
	require.True(t, ok)
	assert.Len(t, when.Branches, 2)
	assert.NotNil(t, when.Else)
}

func TestParseFString(t *testing.T) {
	expr, err := ParseExpression(`f"close is {close * 2}"`)
	require.NoError(t, err)
	fs, ok := expr.(*ast.FStringExpr)
	require.True(t, ok)
	require.Len(t, fs.Parts, 2)
	assert.Equal(t, "close is ", fs.Parts[0].Text)
	require.NotNil(t, fs.Parts[1].Expr)
}

func TestParseIfElifElse(t *testing.T) {
	src := `
-- INPUT x:number --
-- OUTPUT y:number --

if x > 10:
    y = 2
elif x > 5:
    y = 1
else:
    y = 0
return [y]
`
	script, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, script.Body, 2)
	ifStmt, ok := script.Body[0].(*ast.IfStmt)
	require.True(t, ok)
	require.Len(t, ifStmt.Else, 1)
	nested, ok := ifStmt.Else[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotEmpty(t, nested.Else)
}

func TestParseDestructure(t *testing.T) {
	src := `
-- INPUT xs:array --
-- OUTPUT a:number --

[a, _, ...rest] = xs
return [a]
`
	script, err := Parse(src)
	require.NoError(t, err)
	ds, ok := script.Body[0].(*ast.DestructureStmt)
	require.True(t, ok)
	require.Len(t, ds.Pattern, 3)
	assert.Equal(t, ast.DestructureBind, ds.Pattern[0].Kind)
	assert.Equal(t, ast.DestructureIgnore, ds.Pattern[1].Kind)
	assert.Equal(t, ast.DestructureRest, ds.Pattern[2].Kind)
	assert.Equal(t, "rest", ds.Pattern[2].Name)
}
