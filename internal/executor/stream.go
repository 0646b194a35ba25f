package executor

import (
	"github.com/rowlang/rowlang/internal/ast"
	"github.com/rowlang/rowlang/internal/eval"
	"github.com/rowlang/rowlang/internal/value"
)

// StreamExecutor evaluates a data script tick by tick over bounded history
// windows. Each accepted tick evicts the oldest retained row once the
// window is full, so memory stays constant no matter how long the stream
// runs. History offsets resolve against the retained window only.
type StreamExecutor struct {
	script *ast.Script
	window int
	// inputs and outputs move in lockstep, oldest first; outputs[i] is the
	// output row produced for inputs[i], nil when the tick produced none.
	inputs  []value.Row
	outputs []value.Row
	total   int
	interp  *eval.Interp
	pool    *eval.ContextPool
	columns map[string]struct{}
}

// DefaultWindowSize bounds history retention when the caller does not
// choose one.
const DefaultWindowSize = 1000

// NewStream builds a streaming executor retaining at most windowSize rows
// of input and output history.
func NewStream(script *ast.Script, windowSize int, opts ...Option) *StreamExecutor {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}

	e := &StreamExecutor{
		script:  script,
		window:  windowSize,
		columns: make(map[string]struct{}),
	}
	for _, param := range script.Input {
		e.columns[param.Name] = struct{}{}
	}

	o := newOptions(opts)
	e.pool = o.pool
	e.interp = eval.New(
		eval.WithHistory(e),
		eval.WithPackages(o.packages),
		eval.WithStdout(o.stdout),
	)
	for name, fn := range o.builtins {
		e.interp.RegisterBuiltin(name, fn)
	}
	return e
}

// PushTick accepts one row, evaluates the script against it with the tick
// visible at input offset 0, and returns the output row when the script
// produced one. A failing tick stays in the window but yields no output.
func (e *StreamExecutor) PushTick(row value.Row) (value.Row, bool, error) {
	if len(e.inputs) == e.window {
		e.inputs = e.inputs[1:]
		e.outputs = e.outputs[1:]
	}
	e.inputs = append(e.inputs, row)
	e.total++
	for name := range row {
		e.columns[name] = struct{}{}
	}

	out, err := e.executeTick(row)
	e.outputs = append(e.outputs, out)
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

func (e *StreamExecutor) executeTick(row value.Row) (value.Row, error) {
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
	items := result.Items()
	out := make(value.Row, len(e.script.Output))
	for i, param := range e.script.Output {
		if i < len(items) {
			out[param.Name] = items[i]
		}
	}
	return out, nil
}

// WindowSize returns the configured retention bound.
func (e *StreamExecutor) WindowSize() int { return e.window }

// Retained returns how many rows the window currently holds.
func (e *StreamExecutor) Retained() int { return len(e.inputs) }

// History implementation over the retained window. The current tick sits at
// the end of the input window.

func (e *StreamExecutor) current() int { return len(e.inputs) - 1 }

func (e *StreamExecutor) InputValue(name string, offset int) (value.Value, bool) {
	if _, known := e.columns[name]; !known || offset < 0 {
		return value.Value{}, false
	}
	pos := e.current() - offset
	if pos < 0 || pos >= len(e.inputs) {
		return value.Value{}, false
	}
	if v, ok := e.inputs[pos][name]; ok {
		return v, true
	}
	return value.Null(), true
}

func (e *StreamExecutor) OutputValue(name string, offset int) (value.Value, bool) {
	if offset <= 0 {
		return value.Value{}, false
	}
	pos := e.current() - offset
	if pos < 0 || pos >= len(e.outputs) || e.outputs[pos] == nil {
		return value.Value{}, false
	}
	v, ok := e.outputs[pos][name]
	return v, ok
}

func (e *StreamExecutor) InputSlice(name string, startOffset, endOffset int) (value.Value, error) {
	if _, known := e.columns[name]; !known {
		return value.Value{}, newUnknownColumnError("input", name)
	}
	if err := validateSliceOffsets(startOffset, endOffset); err != nil {
		return value.Value{}, err
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

func (e *StreamExecutor) OutputSlice(name string, startOffset, endOffset int) (value.Value, error) {
	if endOffset <= 0 {
		return value.Value{}, newOutputOffsetError(endOffset)
	}
	if err := validateSliceOffsets(startOffset, endOffset); err != nil {
		return value.Value{}, err
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

// CurrentIndex is the current tick's position inside the retained window,
// which is also the furthest reachable offset.
func (e *StreamExecutor) CurrentIndex() int { return e.current() }

// TotalRows counts every tick ever accepted, not just the retained ones.
func (e *StreamExecutor) TotalRows() int { return e.total }

func (e *StreamExecutor) CurrentRow() (value.Row, bool) {
	if len(e.inputs) == 0 {
		return nil, false
	}
	return e.inputs[e.current()], true
}
