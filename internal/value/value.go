// Package value implements the dynamically-typed runtime value model for
// rowlang scripts: the tagged Value variant, truthiness and conversion
// rules, and the arithmetic/comparison operators with scalar-over-array
// broadcasting.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/errors"
)

// Kind identifies the runtime type of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindDecimal
	KindString
	KindBool
	KindArray
	KindSlice
	KindLambda
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindDecimal:
		return "decimal"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindLambda:
		return "lambda"
	case KindFunction:
		return "function"
	}
	return "unknown"
}

// SliceView is a zero-copy view into a shared backing column. The view keeps
// the backing alive for as long as it is referenced, so it can never outlive
// the column it was cut from.
type SliceView struct {
	Column []Value
	Start  int
	Len    int
}

// LambdaValue is an anonymous function plus a full snapshot of the variable
// bindings visible when it was created.
type LambdaValue struct {
	Params   []string
	Body     ast.Expr
	Captures map[string]Value
}

// Value is the dynamically-typed runtime value. The zero Value is null.
type Value struct {
	kind  Kind
	num   float64
	dec   decimal.Decimal
	str   string
	b     bool
	arr   []Value
	view  *SliceView
	fn    *LambdaValue
	def   *ast.FunctionDef
	env   map[string]Value
}

// Row maps column names to values for one time-step.
type Row = map[string]Value

// Null returns the null value.
func Null() Value { return Value{} }

// Num wraps a float64.
func Num(n float64) Value { return Value{kind: KindNumber, num: n} }

// Dec wraps a fixed-point decimal.
func Dec(d decimal.Decimal) Value { return Value{kind: KindDecimal, dec: d} }

// Str wraps a string.
func Str(s string) Value { return Value{kind: KindString, str: s} }

// Bool wraps a bool.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Arr wraps an ordered element sequence. Elements may be of mixed kinds.
func Arr(elems ...Value) Value { return Value{kind: KindArray, arr: elems} }

// FromSlice wraps an existing element slice without copying.
func FromSlice(elems []Value) Value { return Value{kind: KindArray, arr: elems} }

// View wraps a zero-copy slice of a shared backing column.
func View(column []Value, start, length int) Value {
	return Value{kind: KindSlice, view: &SliceView{Column: column, Start: start, Len: length}}
}

// Closure wraps a lambda with its captured environment.
func Closure(params []string, body ast.Expr, captures map[string]Value) Value {
	return Value{kind: KindLambda, fn: &LambdaValue{Params: params, Body: body, Captures: captures}}
}

// FuncClosure wraps a user function definition together with the variable
// bindings it closes over. Package members use this so their bodies can
// reference sibling variables and functions after the package is loaded.
// A nil env is a plain function value.
func FuncClosure(def *ast.FunctionDef, env map[string]Value) Value {
	return Value{kind: KindFunction, def: def, env: env}
}

// Kind returns the runtime type tag.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the raw float64 payload of a Number.
func (v Value) Float() float64 { return v.num }

// Decimal returns the raw decimal payload of a Decimal.
func (v Value) Decimal() decimal.Decimal { return v.dec }

// Text returns the raw string payload of a String.
func (v Value) Text() string { return v.str }

// Lambda returns the lambda payload, or nil.
func (v Value) Lambda() *LambdaValue { return v.fn }

// FuncDef returns the user function definition payload, or nil.
func (v Value) FuncDef() *ast.FunctionDef { return v.def }

// FuncEnv returns the closed-over bindings of a Function, or nil.
func (v Value) FuncEnv() map[string]Value { return v.env }

// Slice returns the slice-view payload, or nil for any other kind.
func (v Value) Slice() *SliceView { return v.view }

// Items materializes the elements of an Array or SliceView. For a view the
// returned slice aliases the backing column; callers must not mutate it.
func (v Value) Items() []Value {
	switch v.kind {
	case KindArray:
		return v.arr
	case KindSlice:
		return v.view.Column[v.view.Start : v.view.Start+v.view.Len]
	}
	return nil
}

// IsSequence reports whether the value is an Array or a SliceView.
func (v Value) IsSequence() bool {
	return v.kind == KindArray || v.kind == KindSlice
}

// Truthy converts the value for use in a condition. Null, numeric zero and
// empty strings/sequences are false; lambdas and functions are always true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindNumber:
		return v.num != 0
	case KindDecimal:
		return !v.dec.IsZero()
	case KindString:
		return v.str != ""
	case KindBool:
		return v.b
	case KindArray:
		return len(v.arr) > 0
	case KindSlice:
		return v.view.Len > 0
	case KindLambda, KindFunction:
		return true
	}
	return false
}

// AsNumber converts to float64. Null converts to 0 so that missing history
// does not poison arithmetic; use is_null for explicit null checks.
func (v Value) AsNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindDecimal:
		return v.dec.InexactFloat64(), nil
	case KindBool:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindNull:
		return 0, nil
	case KindString:
		n, err := strconv.ParseFloat(v.str, 64)
		if err != nil {
			return 0, errors.NewTypeError("cannot convert %q to number", v.str)
		}
		return n, nil
	}
	return 0, errors.NewTypeError("cannot convert %s to number", v.kind)
}

// AsDecimal converts to a fixed-point decimal.
func (v Value) AsDecimal() (decimal.Decimal, error) {
	switch v.kind {
	case KindDecimal:
		return v.dec, nil
	case KindNumber:
		return decimal.NewFromFloat(v.num), nil
	case KindBool:
		if v.b {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case KindString:
		d, err := decimal.NewFromString(v.str)
		if err != nil {
			return decimal.Zero, errors.NewTypeError("cannot convert %q to decimal", v.str)
		}
		return d, nil
	}
	return decimal.Zero, errors.NewTypeError("cannot convert %s to decimal", v.kind)
}

// ApplyPrecision rounds a Decimal to the given scale using banker's
// rounding. Non-decimal values pass through unchanged except arrays, whose
// decimal elements are rounded in place.
func (v Value) ApplyPrecision(scale int32) Value {
	switch v.kind {
	case KindDecimal:
		return Dec(v.dec.RoundBank(scale))
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, el := range v.arr {
			out[i] = el.ApplyPrecision(scale)
		}
		return FromSlice(out)
	}
	return v
}

// Equal reports deep equality. Values of different kinds are never equal.
func (v Value) Equal(other Value) bool {
	a, b := v, other
	if a.kind == KindSlice {
		a = FromSlice(a.Items())
	}
	if b.kind == KindSlice {
		b = FromSlice(b.Items())
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindNumber:
		return a.num == b.num
	case KindDecimal:
		return a.dec.Equal(b.dec)
	case KindString:
		return a.str == b.str
	case KindBool:
		return a.b == b.b
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !a.arr[i].Equal(b.arr[i]) {
				return false
			}
		}
		return true
	case KindLambda:
		return a.fn == b.fn
	case KindFunction:
		return a.def == b.def
	}
	return false
}

// Format renders the value for display output: strings unquoted, arrays in
// brackets.
func (v Value) Format() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDecimal:
		return v.dec.String()
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindArray, KindSlice:
		items := v.Items()
		parts := make([]string, len(items))
		for i, el := range items {
			parts[i] = el.Format()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindLambda:
		return fmt.Sprintf("<lambda(%s)>", strings.Join(v.fn.Params, ", "))
	case KindFunction:
		return fmt.Sprintf("<function %s>", v.def.Name)
	}
	return ""
}

// String implements fmt.Stringer; strings appear quoted.
func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	return v.Format()
}
