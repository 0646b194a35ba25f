// Package executor runs parsed data scripts over row sets. The batch
// executor evaluates a finalized slice of rows in one call; the streaming
// executor accepts ticks one at a time over bounded windows. Both implement
// the row-history capability the evaluator's history builtins resolve
// through, and both draw per-row scopes from a shared context pool.
package executor

import (
	"io"
	"os"

	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/columnar"
	"github.com/rowlang/rowlang/internal/eval"
	"github.com/rowlang/rowlang/internal/value"
)

// Option configures an executor.
type Option func(*options)

type options struct {
	packages map[string]value.Value
	pool     *eval.ContextPool
	stdout   io.Writer
	builtins map[string]eval.Builtin
}

func newOptions(opts []Option) *options {
	o := &options{stdout: os.Stdout}
	for _, opt := range opts {
		opt(o)
	}
	if o.pool == nil {
		o.pool = eval.NewContextPool(eval.DefaultPoolConfig())
	}
	return o
}

// WithPackages supplies resolved package data as a flat "pkg.member" map.
func WithPackages(packages map[string]value.Value) Option {
	return func(o *options) { o.packages = packages }
}

// WithPool shares an externally owned context pool.
func WithPool(pool *eval.ContextPool) Option {
	return func(o *options) { o.pool = pool }
}

// WithStdout redirects script print output.
func WithStdout(w io.Writer) Option {
	return func(o *options) { o.stdout = w }
}

// WithBuiltin registers an extra builtin, replacing any standard one of the
// same name.
func WithBuiltin(name string, fn eval.Builtin) Option {
	return func(o *options) {
		if o.builtins == nil {
			o.builtins = make(map[string]eval.Builtin)
		}
		o.builtins[name] = fn
	}
}

// BatchExecutor evaluates a data script once per row of a finalized batch,
// preserving input order. It serves the script's row-history reads from the
// rows already processed.
type BatchExecutor struct {
	script *ast.Script
	rows   []value.Row
	// outputs is aligned with rows; a nil entry means the row produced no
	// output. Alignment keeps history offsets stable.
	outputs []value.Row
	table   *columnar.Table
	inputs  map[string]struct{}
	interp  *eval.Interp
	pool    *eval.ContextPool
	idx     int
	// arrowCols caches Arrow materializations of homogeneous numeric
	// columns; a nil entry marks a column that failed materialization.
	arrowCols map[string]*columnar.Float64Column
}

// NewBatch builds a batch executor over rows. Empty input is normalized to
// one synthetic empty row so constant scripts still produce a result.
// Columnar transposition kicks in when the batch shape warrants it.
func NewBatch(script *ast.Script, rows []value.Row, opts ...Option) *BatchExecutor {
	if len(rows) == 0 {
		rows = []value.Row{{}}
	}

	e := &BatchExecutor{
		script: script,
		rows:   rows,
		inputs: make(map[string]struct{}),
	}
	for _, param := range script.Input {
		e.inputs[param.Name] = struct{}{}
	}
	for name := range rows[0] {
		e.inputs[name] = struct{}{}
	}
	if columnar.ShouldUseColumnar(len(e.inputs), len(rows)) {
		e.table = columnar.FromRows(rows)
	}

	o := newOptions(opts)
	e.pool = o.pool
	e.interp = eval.New(
		eval.WithHistory(e),
		eval.WithPackages(o.packages),
		eval.WithStdout(o.stdout),
	)
	if e.table != nil {
		e.arrowCols = make(map[string]*columnar.Float64Column)
		e.installColumnarAggregates()
	}
	for name, fn := range o.builtins {
		e.interp.RegisterBuiltin(name, fn)
	}
	return e
}

// ExecuteAll evaluates every row in order and returns the produced output
// rows. The first failing row aborts the whole run; no partial row is
// emitted for it.
func (e *BatchExecutor) ExecuteAll() ([]value.Row, error) {
	defer e.releaseArrowColumns()

	e.outputs = make([]value.Row, 0, len(e.rows))
	for e.idx = 0; e.idx < len(e.rows); e.idx++ {
		out, err := e.executeRow(e.rows[e.idx])
		if err != nil {
			return nil, err
		}
		e.outputs = append(e.outputs, out)
	}

	results := make([]value.Row, 0, len(e.outputs))
	for _, row := range e.outputs {
		if row != nil {
			results = append(results, row)
		}
	}
	return results, nil
}

func (e *BatchExecutor) executeRow(row value.Row) (value.Row, error) {
	ctx := e.pool.Acquire()
	defer e.pool.Release(ctx)
	e.interp.SetContext(ctx)

	for name, v := range row {
		ctx.Set(name, v)
	}
	for _, param := range e.script.Input {
		if _, ok := row[param.Name]; !ok {
			ctx.Set(param.Name, value.Null())
		}
	}

	result, ok, err := e.interp.EvalScriptBody(e.script)
	if err != nil {
		return nil, err
	}
	if !ok || !result.IsSequence() {
		return nil, nil
	}
	return e.collectOutput(result.Items()), nil
}

// collectOutput maps returned array elements onto the declared OUTPUT
// columns positionally. Extra elements are dropped; missing ones leave
// their column out of the row.
func (e *BatchExecutor) collectOutput(items []value.Value) value.Row {
	out := make(value.Row, len(e.script.Output))
	for i, param := range e.script.Output {
		if i < len(items) {
			out[param.Name] = items[i]
		}
	}
	return out
}

// Columnar fast path. When the batch was transposed, aggregates over a
// zero-copy column view are served from a cached Arrow array instead of
// walking boxed values one by one.

func (e *BatchExecutor) installColumnarAggregates() {
	for _, name := range []string{"sum", "max", "min"} {
		fallback, ok := e.interp.Builtin(name)
		if !ok {
			continue
		}
		e.interp.RegisterBuiltin(name, e.columnarAggregate(name, fallback))
	}
}

func (e *BatchExecutor) columnarAggregate(op string, fallback eval.Builtin) eval.Builtin {
	return func(i *eval.Interp, args []value.Value) (value.Value, error) {
		if len(args) == 1 && args[0].Kind() == value.KindSlice {
			view := args[0].Slice()
			if name, ok := e.table.ViewColumn(view); ok && view.Len > 0 {
				if col, ok := e.arrowColumn(name); ok && col.InRange(view.Start, view.Len) {
					switch op {
					case "sum":
						return value.Num(col.SumRange(view.Start, view.Len)), nil
					case "max":
						if v, ok := col.MaxRange(view.Start, view.Len); ok {
							return value.Num(v), nil
						}
					case "min":
						if v, ok := col.MinRange(view.Start, view.Len); ok {
							return value.Num(v), nil
						}
					}
				}
			}
		}
		return fallback(i, args)
	}
}

func (e *BatchExecutor) arrowColumn(name string) (*columnar.Float64Column, bool) {
	if col, seen := e.arrowCols[name]; seen {
		return col, col != nil
	}
	col, ok := e.table.Float64Column(name)
	if !ok {
		e.arrowCols[name] = nil
		return nil, false
	}
	e.arrowCols[name] = col
	return col, true
}

func (e *BatchExecutor) releaseArrowColumns() {
	for name, col := range e.arrowCols {
		if col != nil {
			col.Release()
		}
		delete(e.arrowCols, name)
	}
}

// History implementation. Offsets count back from the row currently being
// evaluated.

func (e *BatchExecutor) InputValue(name string, offset int) (value.Value, bool) {
	if _, known := e.inputs[name]; !known || offset < 0 {
		return value.Value{}, false
	}
	pos := e.idx - offset
	if pos < 0 || pos >= len(e.rows) {
		return value.Value{}, false
	}
	if e.table != nil {
		if v, ok := e.table.Value(name, pos); ok {
			return v, true
		}
		return value.Null(), true
	}
	if v, ok := e.rows[pos][name]; ok {
		return v, true
	}
	return value.Null(), true
}

func (e *BatchExecutor) OutputValue(name string, offset int) (value.Value, bool) {
	if offset <= 0 {
		return value.Value{}, false
	}
	pos := e.idx - offset
	if pos < 0 || pos >= len(e.outputs) || e.outputs[pos] == nil {
		return value.Value{}, false
	}
	v, ok := e.outputs[pos][name]
	return v, ok
}

func (e *BatchExecutor) InputSlice(name string, startOffset, endOffset int) (value.Value, error) {
	if _, known := e.inputs[name]; !known {
		return value.Value{}, newUnknownColumnError("input", name)
	}
	if err := validateSliceOffsets(startOffset, endOffset); err != nil {
		return value.Value{}, err
	}

	// Fully in-range reads over a columnar table are zero-copy views.
	first := e.idx - startOffset
	if e.table != nil && first >= 0 {
		if v, ok := e.table.ColumnSlice(name, first, startOffset-endOffset+1); ok {
			return v, nil
		}
	}

	out := make([]value.Value, 0, startOffset-endOffset+1)
	for offset := startOffset; offset >= endOffset; offset-- {
		if v, ok := e.InputValue(name, offset); ok {
			out = append(out, v)
		} else {
			out = append(out, value.Null())
		}
	}
	return value.FromSlice(out), nil
}

func (e *BatchExecutor) OutputSlice(name string, startOffset, endOffset int) (value.Value, error) {
	if endOffset <= 0 {
		return value.Value{}, newOutputOffsetError(endOffset)
	}
	if err := validateSliceOffsets(startOffset, endOffset); err != nil {
		return value.Value{}, err
	}
	if !e.hasOutputColumn(name) {
		return value.Value{}, newUnknownColumnError("output", name)
	}

	out := make([]value.Value, 0, startOffset-endOffset+1)
	for offset := startOffset; offset >= endOffset; offset-- {
		if v, ok := e.OutputValue(name, offset); ok {
			out = append(out, v)
		} else {
			out = append(out, value.Null())
		}
	}
	return value.FromSlice(out), nil
}

func (e *BatchExecutor) hasOutputColumn(name string) bool {
	for _, param := range e.script.Output {
		if param.Name == name {
			return true
		}
	}
	return false
}

func (e *BatchExecutor) CurrentIndex() int { return e.idx }

func (e *BatchExecutor) TotalRows() int { return len(e.rows) }

func (e *BatchExecutor) CurrentRow() (value.Row, bool) {
	if e.idx < 0 || e.idx >= len(e.rows) {
		return nil, false
	}
	return e.rows[e.idx], true
}
