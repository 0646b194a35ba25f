package eval

import (
	"io"
	"os"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/errors"
	"github.com/rowlang/rowlang/internal/value"
)

// errorVariable is bound to the failure message inside an ERROR block.
const errorVariable = "__error__"

// Interp evaluates statements and expressions against a scope, a flattened
// package-member map, a user-function table and an optional row-history
// capability.
type Interp struct {
	ctx       *Context
	functions map[string]*ast.FunctionDef
	packages  map[string]value.Value
	precision *ast.Precision
	history   History
	builtins  map[string]Builtin
	stdout    io.Writer
}

// Option configures an Interp.
type Option func(*Interp)

// WithContext runs the interpreter over an externally owned scope, usually
// one borrowed from a ContextPool.
func WithContext(ctx *Context) Option {
	return func(i *Interp) { i.ctx = ctx }
}

// WithHistory grants access to row history for the history builtins and
// negative identifier indexing.
func WithHistory(h History) Option {
	return func(i *Interp) { i.history = h }
}

// WithPackages injects resolved package data as a flat
// "package.member" to value map.
func WithPackages(packages map[string]value.Value) Option {
	return func(i *Interp) { i.packages = packages }
}

// WithPrecision applies fixed-point rounding to script results.
func WithPrecision(p *ast.Precision) Option {
	return func(i *Interp) { i.precision = p }
}

// WithStdout redirects the print builtin.
func WithStdout(w io.Writer) Option {
	return func(i *Interp) { i.stdout = w }
}

// New returns an interpreter with an empty scope and the standard builtin
// table.
func New(opts ...Option) *Interp {
	in := &Interp{
		ctx:       NewContext(),
		functions: make(map[string]*ast.FunctionDef),
		packages:  make(map[string]value.Value),
		stdout:    os.Stdout,
	}
	in.builtins = standardBuiltins()
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Context returns the active scope.
func (i *Interp) Context() *Context {
	return i.ctx
}

// SetContext swaps the active scope. Row executors call this with pooled
// contexts so one interpreter serves every row.
func (i *Interp) SetContext(ctx *Context) {
	i.ctx = ctx
}

// SetInput binds an input variable into the scope.
func (i *Interp) SetInput(name string, v value.Value) {
	i.ctx.Set(name, v)
}

// RegisterBuiltin installs or replaces a builtin function. External
// function libraries (technical indicators and the like) hook in here.
func (i *Interp) RegisterBuiltin(name string, fn Builtin) {
	i.builtins[name] = fn
}

// Builtin returns the installed builtin of the given name. Executors use
// this to wrap a standard builtin with a faster implementation that can
// fall back to it.
func (i *Interp) Builtin(name string) (Builtin, bool) {
	fn, ok := i.builtins[name]
	return fn, ok
}

// RegisterFunction installs a locally defined user function.
func (i *Interp) RegisterFunction(def *ast.FunctionDef) {
	i.functions[def.Name] = def
}

// EvalScript evaluates a data script's body once against the current scope.
// The returned bool reports whether the body produced a result. A failure
// is first offered to the script's ERROR block, which may substitute its
// own result; the original error propagates only when no ERROR block is
// declared.
func (i *Interp) EvalScript(script *ast.Script) (value.Value, bool, error) {
	if script.Kind != ast.KindData {
		return value.Value{}, false, errors.NewTypeError("expected a data script")
	}
	if script.Precision != nil {
		i.precision = script.Precision
	}

	result, ok, err := i.evalBody(script.Body)
	if err != nil {
		if script.ErrorBlock == nil {
			return value.Value{}, false, err
		}
		i.ctx.Set(errorVariable, value.Str(err.Error()))
		result, ok, err = i.evalBody(script.ErrorBlock)
		if err != nil {
			return value.Value{}, false, err
		}
	}
	if !ok {
		return value.Value{}, false, nil
	}
	return i.applyPrecision(result), true, nil
}

// EvalScriptBody evaluates a data script's body without offering ERROR
// block recovery. The row executors use it: a failing row aborts the whole
// run rather than being patched per row.
func (i *Interp) EvalScriptBody(script *ast.Script) (value.Value, bool, error) {
	if script.Precision != nil {
		i.precision = script.Precision
	}
	result, ok, err := i.evalBody(script.Body)
	if err != nil || !ok {
		return value.Value{}, false, err
	}
	return i.applyPrecision(result), true, nil
}

// EvalPackage evaluates a package script and returns its public and
// private members: variables by value, functions wrapped as Function
// values. Variables are evaluated in declaration order and may reference
// earlier ones. Every function closes over the same env map, so package
// functions can call each other and read package variables no matter
// which scope they are later invoked from.
func (i *Interp) EvalPackage(script *ast.Script) (map[string]value.Value, error) {
	if script.Kind != ast.KindPackage {
		return nil, errors.NewTypeError("expected a package script")
	}

	env := make(map[string]value.Value, len(script.Variables)+len(script.Functions))
	for idx := range script.Functions {
		def := &script.Functions[idx]
		i.functions[def.Name] = def
		env[def.Name] = value.FuncClosure(def, env)
	}
	for _, varDef := range script.Variables {
		v, err := i.evalExpr(varDef.Value)
		if err != nil {
			return nil, err
		}
		i.ctx.Set(varDef.Name, v)
		env[varDef.Name] = v
	}

	members := make(map[string]value.Value, len(env))
	for name, v := range env {
		members[name] = v
	}
	return members, nil
}

// evalBody runs statements until one returns.
func (i *Interp) evalBody(body []ast.Stmt) (value.Value, bool, error) {
	for _, stmt := range body {
		result, ok, err := i.evalStmt(stmt)
		if err != nil {
			return value.Value{}, false, err
		}
		if ok {
			return result, true, nil
		}
	}
	return value.Value{}, false, nil
}

func (i *Interp) evalStmt(stmt ast.Stmt) (value.Value, bool, error) {
	switch s := stmt.(type) {
	case *ast.AssignStmt:
		v, err := i.evalExpr(s.Value)
		if err != nil {
			return value.Value{}, false, err
		}
		i.ctx.Set(s.Name, v)
		return value.Value{}, false, nil

	case *ast.ReturnStmt:
		v, err := i.evalExpr(s.Value)
		if err != nil {
			return value.Value{}, false, err
		}
		return v, true, nil

	case *ast.IfStmt:
		cond, err := i.evalExpr(s.Condition)
		if err != nil {
			return value.Value{}, false, err
		}
		if cond.Truthy() {
			return i.evalBody(s.Then)
		}
		return i.evalBody(s.Else)

	case *ast.ExprStmt:
		if _, err := i.evalExpr(s.Expr); err != nil {
			return value.Value{}, false, err
		}
		return value.Value{}, false, nil

	case *ast.DestructureStmt:
		v, err := i.evalExpr(s.Value)
		if err != nil {
			return value.Value{}, false, err
		}
		return value.Value{}, false, i.destructure(s.Pattern, v)
	}
	return value.Value{}, false, errors.NewTypeError("unsupported statement")
}

// destructure unpacks a sequence into the pattern's bindings. Missing
// positions are simply not bound; a rest element collects everything left.
func (i *Interp) destructure(pattern []ast.DestructureElem, v value.Value) error {
	if !v.IsSequence() {
		return nil
	}
	items := v.Items()
	for idx, elem := range pattern {
		switch elem.Kind {
		case ast.DestructureBind:
			if idx < len(items) {
				i.ctx.Set(elem.Name, items[idx])
			}
		case ast.DestructureRest:
			rest := make([]value.Value, 0, max(len(items)-idx, 0))
			rest = append(rest, items[min(idx, len(items)):]...)
			i.ctx.Set(elem.Name, value.FromSlice(rest))
			return nil
		}
	}
	return nil
}

// applyPrecision rounds decimal results to the configured scale.
func (i *Interp) applyPrecision(v value.Value) value.Value {
	if i.precision == nil {
		return v
	}
	return v.ApplyPrecision(i.precision.Scale)
}
