package eval

import (
	"fmt"
	"math"
	"strings"

	"github.com/rowlang/rowlang/internal/errors"
	"github.com/rowlang/rowlang/internal/value"
)

// Builtin is a native function callable from scripts. Builtins receive the
// running interpreter so history-aware functions can reach the active row
// window.
type Builtin func(i *Interp, args []value.Value) (value.Value, error)

func standardBuiltins() map[string]Builtin {
	return map[string]Builtin{
		"sum":     builtinSum,
		"max":     builtinMax,
		"min":     builtinMin,
		"map":     builtinMap,
		"filter":  builtinFilter,
		"reduce":  builtinReduce,
		"ref":     builtinRef,
		"offset":  builtinRef,
		"past":    builtinPast,
		"window":  builtinWindow,
		"print":   builtinPrint,
		"is_null": builtinIsNull,
	}
}

// aggregateArgs accepts either a single sequence argument or a variadic
// argument list and returns the elements to fold over.
func aggregateArgs(args []value.Value) []value.Value {
	if len(args) == 1 && args[0].IsSequence() {
		return args[0].Items()
	}
	return args
}

// builtinSum adds numeric elements, skipping nulls. An empty input sums
// to zero.
func builtinSum(_ *Interp, args []value.Value) (value.Value, error) {
	total := 0.0
	for _, v := range aggregateArgs(args) {
		if v.IsNull() {
			continue
		}
		n, err := v.AsNumber()
		if err != nil {
			return value.Value{}, err
		}
		total += n
	}
	return value.Num(total), nil
}

func builtinMax(_ *Interp, args []value.Value) (value.Value, error) {
	best := math.Inf(-1)
	found := false
	for _, v := range aggregateArgs(args) {
		if v.IsNull() {
			continue
		}
		n, err := v.AsNumber()
		if err != nil {
			return value.Value{}, err
		}
		if n > best {
			best = n
		}
		found = true
	}
	if !found {
		return value.Null(), nil
	}
	return value.Num(best), nil
}

func builtinMin(_ *Interp, args []value.Value) (value.Value, error) {
	best := math.Inf(1)
	found := false
	for _, v := range aggregateArgs(args) {
		if v.IsNull() {
			continue
		}
		n, err := v.AsNumber()
		if err != nil {
			return value.Value{}, err
		}
		if n < best {
			best = n
		}
		found = true
	}
	if !found {
		return value.Null(), nil
	}
	return value.Num(best), nil
}

func builtinMap(i *Interp, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, errors.NewArgumentError("map", "expected 2 arguments, got %d", len(args))
	}
	if !args[0].IsSequence() {
		return value.Value{}, errors.NewTypeError("map expects an array, got %s", args[0].Kind())
	}
	fn, err := callableArg("map", args[1])
	if err != nil {
		return value.Value{}, err
	}
	items := args[0].Items()
	out := make([]value.Value, len(items))
	for idx, item := range items {
		if out[idx], err = i.callLambda(fn, []value.Value{item}); err != nil {
			return value.Value{}, err
		}
	}
	return value.FromSlice(out), nil
}

func builtinFilter(i *Interp, args []value.Value) (value.Value, error) {
	if len(args) != 2 {
		return value.Value{}, errors.NewArgumentError("filter", "expected 2 arguments, got %d", len(args))
	}
	if !args[0].IsSequence() {
		return value.Value{}, errors.NewTypeError("filter expects an array, got %s", args[0].Kind())
	}
	fn, err := callableArg("filter", args[1])
	if err != nil {
		return value.Value{}, err
	}
	var out []value.Value
	for _, item := range args[0].Items() {
		keep, err := i.callLambda(fn, []value.Value{item})
		if err != nil {
			return value.Value{}, err
		}
		if keep.Truthy() {
			out = append(out, item)
		}
	}
	return value.FromSlice(out), nil
}

// builtinReduce folds an array with a two-parameter lambda. The optional
// third argument seeds the accumulator; without it the first element seeds
// the fold and an empty array is an error.
func builtinReduce(i *Interp, args []value.Value) (value.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return value.Value{}, errors.NewArgumentError("reduce", "expected 2 or 3 arguments, got %d", len(args))
	}
	if !args[0].IsSequence() {
		return value.Value{}, errors.NewTypeError("reduce expects an array, got %s", args[0].Kind())
	}
	fn, err := callableArg("reduce", args[1])
	if err != nil {
		return value.Value{}, err
	}
	if len(fn.Params) != 2 {
		return value.Value{}, errors.NewArgumentError("reduce", "lambda must take 2 parameters, got %d", len(fn.Params))
	}

	items := args[0].Items()
	var acc value.Value
	start := 0
	if len(args) == 3 {
		acc = args[2]
	} else {
		if len(items) == 0 {
			return value.Value{}, errors.NewArgumentError("reduce", "empty array requires an initial value")
		}
		acc = items[0]
		start = 1
	}
	for _, item := range items[start:] {
		if acc, err = i.callLambda(fn, []value.Value{acc, item}); err != nil {
			return value.Value{}, err
		}
	}
	return acc, nil
}

func callableArg(name string, v value.Value) (*value.LambdaValue, error) {
	if v.Kind() != value.KindLambda {
		return nil, errors.NewTypeError("%s expects a lambda, got %s", name, v.Kind())
	}
	return v.Lambda(), nil
}

// historyArgs validates the common (name, offset) argument shape of the
// history builtins.
func historyArgs(builtin string, i *Interp, args []value.Value) (string, int, error) {
	if i.history == nil {
		return "", 0, errors.NewTypeError("%s requires an active row executor", builtin)
	}
	if len(args) != 2 {
		return "", 0, errors.NewArgumentError(builtin, "expected 2 arguments, got %d", len(args))
	}
	if args[0].Kind() != value.KindString {
		return "", 0, errors.NewTypeError("%s expects a column name, got %s", builtin, args[0].Kind())
	}
	if args[1].Kind() != value.KindNumber {
		return "", 0, errors.NewTypeError("%s expects a numeric offset, got %s", builtin, args[1].Kind())
	}
	return args[0].Text(), int(args[1].Float()), nil
}

// builtinRef reads a single historical value: output history first, then
// input history. Offset 0 is only valid for input columns since the output
// row being produced does not exist yet. A missing value yields null.
func builtinRef(i *Interp, args []value.Value) (value.Value, error) {
	name, offset, err := historyArgs("ref", i, args)
	if err != nil {
		return value.Value{}, err
	}
	if offset < 0 {
		return value.Value{}, errors.NewArgumentError("ref", "offset must be non-negative, got %d", offset)
	}
	return i.historyValueAt(name, offset), nil
}

// historyValueAt resolves one historical offset: output history first so a
// column declared both as input and output surfaces its computed values,
// then input history, then null.
func (i *Interp) historyValueAt(name string, offset int) value.Value {
	if offset > 0 {
		if v, ok := i.history.OutputValue(name, offset); ok {
			return v
		}
	}
	if v, ok := i.history.InputValue(name, offset); ok {
		return v
	}
	return value.Null()
}

// builtinPast returns the n values preceding the current row, oldest first,
// front-padded with nulls near the start of the stream. Each offset resolves
// output-before-input, the same way ref does. A non-positive count yields an
// empty array.
func builtinPast(i *Interp, args []value.Value) (value.Value, error) {
	name, n, err := historyArgs("past", i, args)
	if err != nil {
		return value.Value{}, err
	}
	if n <= 0 {
		return value.Arr(), nil
	}
	out := make([]value.Value, 0, n)
	for offset := n; offset >= 1; offset-- {
		out = append(out, i.historyValueAt(name, offset))
	}
	return value.FromSlice(out), nil
}

// builtinWindow returns a window of the last size values ending at the
// current row inclusive. Preceding offsets resolve output-before-input; the
// final slot always reads the current input row, which has no output yet.
func builtinWindow(i *Interp, args []value.Value) (value.Value, error) {
	name, size, err := historyArgs("window", i, args)
	if err != nil {
		return value.Value{}, err
	}
	if size <= 0 {
		return value.Arr(), nil
	}
	out := make([]value.Value, 0, size)
	for offset := size - 1; offset >= 1; offset-- {
		out = append(out, i.historyValueAt(name, offset))
	}
	current, ok := i.history.InputValue(name, 0)
	if !ok {
		current = value.Null()
	}
	out = append(out, current)
	return value.FromSlice(out), nil
}

func builtinPrint(i *Interp, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for idx, v := range args {
		parts[idx] = v.Format()
	}
	fmt.Fprintln(i.stdout, strings.Join(parts, " "))
	return value.Null(), nil
}

func builtinIsNull(_ *Interp, args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Value{}, errors.NewArgumentError("is_null", "expected 1 argument, got %d", len(args))
	}
	return value.Bool(args[0].IsNull()), nil
}
