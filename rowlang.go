// Package rowlang is a row-oriented script interpreter for financial time
// series. A script declares named input and output columns and a body that
// computes one output row per input row, with first-class access to the
// value of any column N rows back. This package is the public API; the
// execution core lives under internal/.
package rowlang

import (
	"fmt"
	"io"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/config"
	"github.com/rowlang/rowlang/internal/eval"
	"github.com/rowlang/rowlang/internal/executor"
	"github.com/rowlang/rowlang/internal/parser"
	"github.com/rowlang/rowlang/internal/pkgload"
	"github.com/rowlang/rowlang/internal/value"
)

// Value is the dynamically typed runtime value. The zero Value is null.
type Value = value.Value

// Row maps column names to values for one time-step.
type Row = value.Row

// Num returns a numeric value.
func Num(n float64) Value { return value.Num(n) }

// Str returns a string value.
func Str(s string) Value { return value.Str(s) }

// Bool returns a boolean value.
func Bool(b bool) Value { return value.Bool(b) }

// Null returns the null value.
func Null() Value { return value.Null() }

// Arr returns an array value.
func Arr(elems ...Value) Value { return value.Arr(elems...) }

// Script is a parsed rowlang script.
type Script struct {
	ast *ast.Script
}

// Parse parses script source into a Script.
func Parse(source string) (*Script, error) {
	parsed, err := parser.Parse(source)
	if err != nil {
		return nil, err
	}
	return &Script{ast: parsed}, nil
}

// IsPackage reports whether the script is a package script rather than a
// data script.
func (s *Script) IsPackage() bool { return s.ast.Kind == ast.KindPackage }

// Imports returns the script's declared package imports.
func (s *Script) Imports() []string { return s.ast.Imports }

// InputColumns returns the declared input column names.
func (s *Script) InputColumns() []string { return paramNames(s.ast.Input) }

// OutputColumns returns the declared output column names.
func (s *Script) OutputColumns() []string { return paramNames(s.ast.Output) }

func paramNames(params []ast.Parameter) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// BuiltinFunc is a caller-supplied native function, registered with
// WithBuiltin. Indicator libraries plug in this way.
type BuiltinFunc func(args []Value) (Value, error)

// Option configures script execution.
type Option func(*runOptions)

type runOptions struct {
	cfg         config.Config
	cfgErr      error
	packageDirs []string
	packages    map[string]Value
	stdout      io.Writer
	builtins    map[string]BuiltinFunc
	csvOut      io.Writer
	rowFn       func(Row) error
}

// WithConfigFile loads execution parameters from a JSON or YAML file. A
// file that cannot be read or parsed fails the run rather than silently
// falling back to defaults.
func WithConfigFile(path string) Option {
	return func(o *runOptions) {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			o.cfgErr = fmt.Errorf("loading config file: %w", err)
			return
		}
		o.cfg = cfg
	}
}

// WithPackageDirs sets the directories searched for imported packages.
func WithPackageDirs(dirs ...string) Option {
	return func(o *runOptions) { o.packageDirs = dirs }
}

// WithPackages injects pre-resolved package data as a flat "pkg.member"
// map, bypassing the file loader.
func WithPackages(packages map[string]Value) Option {
	return func(o *runOptions) { o.packages = packages }
}

// WithStdout redirects script print output.
func WithStdout(w io.Writer) Option {
	return func(o *runOptions) { o.stdout = w }
}

// WithCSVOutput streams the produced rows to w as CSV, in declared output
// column order, flushing at the configured interval. The rows are still
// returned.
func WithCSVOutput(w io.Writer) Option {
	return func(o *runOptions) { o.csvOut = w }
}

// WithRowCallback invokes fn for every produced row, in order. An error
// from fn fails the run.
func WithRowCallback(fn func(Row) error) Option {
	return func(o *runOptions) { o.rowFn = fn }
}

// WithBuiltin registers a native function callable from scripts.
func WithBuiltin(name string, fn BuiltinFunc) Option {
	return func(o *runOptions) {
		if o.builtins == nil {
			o.builtins = make(map[string]BuiltinFunc)
		}
		o.builtins[name] = fn
	}
}

func resolveOptions(script *Script, opts []Option) (*runOptions, error) {
	o := &runOptions{cfg: config.LoadFromEnv()}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfgErr != nil {
		return nil, o.cfgErr
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	if o.packages == nil && len(script.Imports()) > 0 {
		dirs := o.packageDirs
		if len(dirs) == 0 {
			dirs = o.cfg.PackagePaths
		}
		loader := pkgload.NewLoader(dirs...)
		packages, err := loader.LoadAll(script.Imports())
		if err != nil {
			return nil, err
		}
		o.packages = packages
	}
	return o, nil
}

func (o *runOptions) executorOptions() []executor.Option {
	opts := []executor.Option{
		executor.WithPool(eval.NewContextPool(eval.PoolConfig{
			InitialSize: o.cfg.InitialPoolSize,
			MaxSize:     o.cfg.MaxPoolSize,
		})),
	}
	if o.packages != nil {
		opts = append(opts, executor.WithPackages(o.packages))
	}
	if o.stdout != nil {
		opts = append(opts, executor.WithStdout(o.stdout))
	}
	for name, fn := range o.builtins {
		opts = append(opts, executor.WithBuiltin(name, func(_ *eval.Interp, args []Value) (Value, error) {
			return fn(args)
		}))
	}
	return opts
}

func requireDataScript(script *Script) error {
	if script.IsPackage() {
		return fmt.Errorf("package script %s cannot be executed over rows", script.ast.Name)
	}
	return nil
}

// ExecuteBatch runs a data script over a finalized row set and returns the
// output rows in input order. Empty input yields exactly one output row.
func ExecuteBatch(script *Script, rows []Row, opts ...Option) ([]Row, error) {
	if err := requireDataScript(script); err != nil {
		return nil, err
	}
	o, err := resolveOptions(script, opts)
	if err != nil {
		return nil, err
	}
	out, err := executor.NewBatch(script.ast, rows, o.executorOptions()...).ExecuteAll()
	if err != nil {
		return nil, err
	}
	if err := o.dispatchOutput(script, out); err != nil {
		return nil, err
	}
	return out, nil
}

// dispatchOutput routes produced rows through the configured output sinks.
func (o *runOptions) dispatchOutput(script *Script, rows []Row) error {
	var sinks []*executor.OutputManager
	if o.csvOut != nil {
		m := executor.NewCSVOutput(o.csvOut, o.cfg.OutputFlushInterval)
		m.SetColumns(script.OutputColumns())
		sinks = append(sinks, m)
	}
	if o.rowFn != nil {
		sinks = append(sinks, executor.NewCallbackOutput(o.rowFn))
	}

	for _, sink := range sinks {
		for _, row := range rows {
			if err := sink.Append(row); err != nil {
				return err
			}
		}
		if err := sink.Close(); err != nil {
			return err
		}
	}
	return nil
}

// Stream evaluates a data script over a live tick feed with bounded
// history.
type Stream struct {
	ex *executor.StreamExecutor
}

// NewStream builds a streaming evaluator for a data script. History
// retention is bounded by the configured stream window size.
func NewStream(script *Script, opts ...Option) (*Stream, error) {
	if err := requireDataScript(script); err != nil {
		return nil, err
	}
	o, err := resolveOptions(script, opts)
	if err != nil {
		return nil, err
	}
	return &Stream{
		ex: executor.NewStream(script.ast, o.cfg.StreamWindowSize, o.executorOptions()...),
	}, nil
}

// Push accepts one tick and returns the output row the script produced for
// it, if any.
func (s *Stream) Push(row Row) (Row, bool, error) {
	return s.ex.PushTick(row)
}

// Eval runs a data script once against a single set of inputs, with no row
// history. This is the only path where a script-declared ERROR block can
// intercept a failure and substitute its own result.
func Eval(script *Script, inputs Row, opts ...Option) (Value, bool, error) {
	if err := requireDataScript(script); err != nil {
		return Value{}, false, err
	}
	o, err := resolveOptions(script, opts)
	if err != nil {
		return Value{}, false, err
	}

	evalOpts := []eval.Option{eval.WithPackages(o.packages)}
	if o.stdout != nil {
		evalOpts = append(evalOpts, eval.WithStdout(o.stdout))
	}
	interp := eval.New(evalOpts...)
	for name, fn := range o.builtins {
		interp.RegisterBuiltin(name, func(_ *eval.Interp, args []Value) (Value, error) {
			return fn(args)
		})
	}
	for name, v := range inputs {
		interp.SetInput(name, v)
	}
	return interp.EvalScript(script.ast)
}
