package eval

import (
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/errors"
	"github.com/rowlang/rowlang/internal/value"
)

func (i *Interp) evalExpr(expr ast.Expr) (value.Value, error) {
	switch e := expr.(type) {
	case *ast.NumberExpr:
		return value.Num(e.Value), nil

	case *ast.StringExpr:
		return value.Str(e.Value), nil

	case *ast.FStringExpr:
		return i.evalFString(e)

	case *ast.BoolExpr:
		return value.Bool(e.Value), nil

	case *ast.NullExpr:
		return value.Null(), nil

	case *ast.IdentExpr:
		return i.lookupIdent(e.Name)

	case *ast.ArrayExpr:
		return i.evalArray(e)

	case *ast.BinaryExpr:
		return i.evalBinary(e)

	case *ast.UnaryExpr:
		operand, err := i.evalExpr(e.Operand)
		if err != nil {
			return value.Value{}, err
		}
		if e.Op == ast.UnaryNeg {
			return value.Neg(operand)
		}
		return value.Not(operand)

	case *ast.TernaryExpr:
		cond, err := i.evalExpr(e.Condition)
		if err != nil {
			return value.Value{}, err
		}
		if cond.Truthy() {
			return i.evalExpr(e.Then)
		}
		return i.evalExpr(e.Else)

	case *ast.WhenExpr:
		for _, branch := range e.Branches {
			cond, err := i.evalExpr(branch.Condition)
			if err != nil {
				return value.Value{}, err
			}
			if cond.Truthy() {
				return i.evalExpr(branch.Result)
			}
		}
		if e.Else != nil {
			return i.evalExpr(e.Else)
		}
		return value.Null(), nil

	case *ast.CallExpr:
		args := make([]value.Value, len(e.Args))
		for idx, arg := range e.Args {
			v, err := i.evalExpr(arg)
			if err != nil {
				return value.Value{}, err
			}
			args[idx] = v
		}
		return i.call(e.Callee, args)

	case *ast.MemberExpr:
		full := e.Object + "." + e.Member
		if v, ok := i.packages[full]; ok {
			return v, nil
		}
		return value.Value{}, errors.NewUndefinedVariableError(full)

	case *ast.IndexExpr:
		return i.evalIndex(e)

	case *ast.SliceExpr:
		return i.evalSlice(e)

	case *ast.SpreadExpr:
		// Spread outside an array literal degrades to its inner value.
		return i.evalExpr(e.Inner)

	case *ast.LambdaExpr:
		return value.Closure(e.Params, e.Body, i.ctx.Snapshot()), nil

	case *ast.PipelineExpr:
		return i.evalPipeline(e)
	}
	return value.Value{}, errors.NewTypeError("unsupported expression")
}

// lookupIdent resolves a name from the scope first; names absent from the
// scope may still denote row metadata when a history capability is active.
func (i *Interp) lookupIdent(name string) (value.Value, error) {
	if v, ok := i.ctx.Get(name); ok {
		return v, nil
	}
	if strings.HasPrefix(name, "_") {
		if v, ok := i.metadataVariable(name); ok {
			return v, nil
		}
	}
	return value.Value{}, errors.NewUndefinedVariableError(name)
}

// metadataVariable serves the contextual row variables exposed by an
// active executor.
func (i *Interp) metadataVariable(name string) (value.Value, bool) {
	if i.history == nil {
		return value.Value{}, false
	}
	switch name {
	case "_index":
		return value.Num(float64(i.history.CurrentIndex())), true
	case "_total":
		return value.Num(float64(i.history.TotalRows())), true
	case "_args":
		row, ok := i.history.CurrentRow()
		if !ok {
			return value.Value{}, false
		}
		names := maps.Keys(row)
		sort.Strings(names)
		values := make([]value.Value, len(names))
		for idx, n := range names {
			values[idx] = row[n]
		}
		return value.FromSlice(values), true
	case "_args_names":
		row, ok := i.history.CurrentRow()
		if !ok {
			return value.Value{}, false
		}
		names := maps.Keys(row)
		sort.Strings(names)
		values := make([]value.Value, len(names))
		for idx, n := range names {
			values[idx] = value.Str(n)
		}
		return value.FromSlice(values), true
	}
	return value.Value{}, false
}

// evalArray builds an array literal, splicing spread elements in place.
func (i *Interp) evalArray(e *ast.ArrayExpr) (value.Value, error) {
	elems := make([]value.Value, 0, len(e.Elements))
	for _, el := range e.Elements {
		if spread, ok := el.(*ast.SpreadExpr); ok {
			inner, err := i.evalExpr(spread.Inner)
			if err != nil {
				return value.Value{}, err
			}
			if !inner.IsSequence() {
				return value.Value{}, errors.NewTypeError("cannot spread %s", inner.Kind())
			}
			elems = append(elems, inner.Items()...)
			continue
		}
		v, err := i.evalExpr(el)
		if err != nil {
			return value.Value{}, err
		}
		elems = append(elems, v)
	}
	return value.FromSlice(elems), nil
}

func (i *Interp) evalBinary(e *ast.BinaryExpr) (value.Value, error) {
	left, err := i.evalExpr(e.Left)
	if err != nil {
		return value.Value{}, err
	}
	right, err := i.evalExpr(e.Right)
	if err != nil {
		return value.Value{}, err
	}

	switch e.Op {
	case ast.OpAdd:
		return value.Add(left, right)
	case ast.OpSub:
		return value.Sub(left, right)
	case ast.OpMul:
		return value.Mul(left, right)
	case ast.OpDiv:
		return value.Div(left, right)
	case ast.OpMod:
		return value.Mod(left, right)
	case ast.OpPow:
		return value.Pow(left, right)
	case ast.OpGt:
		return value.Gt(left, right)
	case ast.OpLt:
		return value.Lt(left, right)
	case ast.OpGtEq:
		return value.Gte(left, right)
	case ast.OpLtEq:
		return value.Lte(left, right)
	case ast.OpEq:
		return value.Eq(left, right)
	case ast.OpNotEq:
		return value.Neq(left, right)
	case ast.OpAnd:
		return value.And(left, right)
	case ast.OpOr:
		return value.Or(left, right)
	}
	return value.Value{}, errors.NewTypeError("unsupported operator")
}

func (i *Interp) evalFString(e *ast.FStringExpr) (value.Value, error) {
	var sb strings.Builder
	for _, part := range e.Parts {
		if part.Expr == nil {
			sb.WriteString(part.Text)
			continue
		}
		v, err := i.evalExpr(part.Expr)
		if err != nil {
			return value.Value{}, err
		}
		sb.WriteString(v.Format())
	}
	return value.Str(sb.String()), nil
}

// evalIndex handles base[index]. Indexing a bare identifier is special:
// index 0 is the identifier's current scope value and a negative index is
// a row-history lookup when a history capability is active. Everything
// else is ordinary array indexing with Python-style negatives; out of
// range yields Null.
func (i *Interp) evalIndex(e *ast.IndexExpr) (value.Value, error) {
	idxVal, err := i.evalExpr(e.Index)
	if err != nil {
		return value.Value{}, err
	}
	if idxVal.Kind() != value.KindNumber {
		return value.Value{}, errors.NewTypeError("index must be a number, got %s", idxVal.Kind())
	}
	idx := int(idxVal.Float())

	if ident, ok := e.Base.(*ast.IdentExpr); ok {
		if idx == 0 {
			if v, ok := i.ctx.Get(ident.Name); ok {
				return v, nil
			}
			return value.Value{}, errors.NewUndefinedVariableError(ident.Name)
		}
		if idx < 0 && i.history != nil {
			if v, ok := i.historyValue(ident.Name, -idx); ok {
				return v, nil
			}
			// No buffered history for this name; fall through to plain
			// array semantics on the scope value.
			if base, ok := i.ctx.Get(ident.Name); ok && base.IsSequence() {
				return indexSequence(base, idx), nil
			}
			return value.Null(), nil
		}
	}

	base, err := i.evalExpr(e.Base)
	if err != nil {
		return value.Value{}, err
	}
	if !base.IsSequence() {
		return value.Value{}, errors.NewTypeError("cannot index %s", base.Kind())
	}
	return indexSequence(base, idx), nil
}

func indexSequence(v value.Value, idx int) value.Value {
	items := v.Items()
	if idx < 0 {
		idx += len(items)
	}
	if idx < 0 || idx >= len(items) {
		return value.Null()
	}
	return items[idx]
}

// historyValue resolves a single negative-index lookup: input history
// first, then output history.
func (i *Interp) historyValue(name string, offset int) (value.Value, bool) {
	if v, ok := i.history.InputValue(name, offset); ok {
		return v, true
	}
	return i.history.OutputValue(name, offset)
}

// evalSlice handles base[start:end]. A negative bound on a bare identifier
// is a row-history slice; otherwise Python-style clamped slicing over a
// materialized sequence.
func (i *Interp) evalSlice(e *ast.SliceExpr) (value.Value, error) {
	start, hasStart, err := i.sliceBound(e.Start)
	if err != nil {
		return value.Value{}, err
	}
	end, hasEnd, err := i.sliceBound(e.End)
	if err != nil {
		return value.Value{}, err
	}

	if ident, ok := e.Base.(*ast.IdentExpr); ok && i.history != nil {
		if (hasStart && start < 0) || (hasEnd && end < 0) {
			startOffset := i.history.CurrentIndex()
			if hasStart && start < 0 {
				startOffset = -start
			}
			endOffset := 0
			if hasEnd && end < 0 {
				endOffset = -end
			}
			if v, err := i.history.InputSlice(ident.Name, startOffset, endOffset); err == nil {
				return v, nil
			}
			return i.history.OutputSlice(ident.Name, startOffset, endOffset)
		}
	}

	base, err := i.evalExpr(e.Base)
	if err != nil {
		return value.Value{}, err
	}
	if !base.IsSequence() {
		return value.Value{}, errors.NewTypeError("cannot slice %s", base.Kind())
	}
	items := base.Items()
	length := len(items)

	from := 0
	if hasStart {
		from = clampBound(start, length)
	}
	to := length
	if hasEnd {
		to = clampBound(end, length)
	}
	if from > to {
		return value.Arr(), nil
	}
	out := make([]value.Value, to-from)
	copy(out, items[from:to])
	return value.FromSlice(out), nil
}

func (i *Interp) sliceBound(expr ast.Expr) (int, bool, error) {
	if expr == nil {
		return 0, false, nil
	}
	v, err := i.evalExpr(expr)
	if err != nil {
		return 0, false, err
	}
	if v.Kind() != value.KindNumber {
		return 0, false, errors.NewTypeError("slice bound must be a number, got %s", v.Kind())
	}
	return int(v.Float()), true, nil
}

func clampBound(idx, length int) int {
	if idx < 0 {
		idx += length
	}
	if idx < 0 {
		return 0
	}
	if idx > length {
		return length
	}
	return idx
}

// evalPipeline threads the running value through each stage as its first
// argument: v |> f(a) is f(v, a).
func (i *Interp) evalPipeline(e *ast.PipelineExpr) (value.Value, error) {
	result, err := i.evalExpr(e.Value)
	if err != nil {
		return value.Value{}, err
	}
	for _, stage := range e.Stages {
		call, ok := stage.(*ast.CallExpr)
		if !ok {
			return value.Value{}, errors.NewTypeError("pipeline stage must be a function call")
		}
		args := make([]value.Value, 0, len(call.Args)+1)
		args = append(args, result)
		for _, arg := range call.Args {
			v, err := i.evalExpr(arg)
			if err != nil {
				return value.Value{}, err
			}
			args = append(args, v)
		}
		if result, err = i.call(call.Callee, args); err != nil {
			return value.Value{}, err
		}
	}
	return result, nil
}

// call resolves a callee in fixed order: a lambda bound in scope, a
// package-qualified function value, a locally registered user function and
// finally the builtin table.
func (i *Interp) call(callee string, args []value.Value) (value.Value, error) {
	if v, ok := i.ctx.Get(callee); ok {
		switch v.Kind() {
		case value.KindLambda:
			return i.callLambda(v.Lambda(), args)
		case value.KindFunction:
			return i.callFunction(v.FuncDef(), v.FuncEnv(), args)
		}
	}
	if v, ok := i.packages[callee]; ok && v.Kind() == value.KindFunction {
		return i.callFunction(v.FuncDef(), v.FuncEnv(), args)
	}
	if def, ok := i.functions[callee]; ok {
		return i.callFunction(def, nil, args)
	}
	if builtin, ok := i.builtins[callee]; ok {
		return builtin(i, args)
	}
	return value.Value{}, errors.NewUndefinedFunctionError(callee)
}

// callLambda installs the captured snapshot plus bound parameters as the
// active scope, evaluates the body, and restores the caller's scope. The
// caller's own bindings are not visible inside the body; only the captures
// and the parameters are.
func (i *Interp) callLambda(fn *value.LambdaValue, args []value.Value) (value.Value, error) {
	if len(fn.Params) != len(args) {
		return value.Value{}, errors.NewArgumentError("lambda", "expected %d arguments, got %d", len(fn.Params), len(args))
	}

	saved := i.ctx.Snapshot()
	defer i.ctx.Restore(saved)

	i.ctx.Reset()
	i.ctx.Install(fn.Captures)
	for idx, param := range fn.Params {
		i.ctx.Set(param, args[idx])
	}
	return i.evalExpr(fn.Body)
}

// callFunction binds arguments (evaluating defaults for missing trailing
// parameters at call time) and runs the body in a fresh scope holding the
// closed-over env, so a package function sees its sibling members rather
// than the caller's variables.
func (i *Interp) callFunction(def *ast.FunctionDef, env map[string]value.Value, args []value.Value) (value.Value, error) {
	required := def.RequiredParams()
	if len(args) < required || len(args) > len(def.Params) {
		return value.Value{}, errors.NewArgumentError(def.Name,
			"expected %d to %d arguments, got %d", required, len(def.Params), len(args))
	}

	saved := i.ctx.Snapshot()
	defer i.ctx.Restore(saved)

	i.ctx.Reset()
	i.ctx.Install(env)

	for idx, param := range def.Params {
		var v value.Value
		if idx < len(args) {
			v = args[idx]
		} else {
			var err error
			if v, err = i.evalExpr(param.Default); err != nil {
				return value.Value{}, err
			}
		}
		i.ctx.Set(param.Name, v)
	}

	result, ok, err := i.evalBody(def.Body)
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return value.Null(), nil
	}
	return result, nil
}
