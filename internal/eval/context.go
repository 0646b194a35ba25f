// Package eval implements the tree-walking evaluator: execution contexts
// and their pool, the interpreter over ast nodes, the builtin dispatch
// table and the row-history capability interface.
package eval

import "github.com/rowlang/rowlang/internal/value"

// Context is the variable scope active during one row's evaluation. It is
// owned by exactly one holder at a time, either the pool or the evaluator.
type Context struct {
	vars map[string]value.Value
}

// NewContext returns an empty scope.
func NewContext() *Context {
	return &Context{vars: make(map[string]value.Value)}
}

// Set binds a variable.
func (c *Context) Set(name string, v value.Value) {
	c.vars[name] = v
}

// Get looks up a variable.
func (c *Context) Get(name string) (value.Value, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Len reports the number of bound variables.
func (c *Context) Len() int {
	return len(c.vars)
}

// Reset clears every binding so the scope can be reused.
func (c *Context) Reset() {
	clear(c.vars)
}

// Snapshot copies the current bindings. Used for closure capture and for
// save/restore around function calls.
func (c *Context) Snapshot() map[string]value.Value {
	snap := make(map[string]value.Value, len(c.vars))
	for k, v := range c.vars {
		snap[k] = v
	}
	return snap
}

// Restore replaces all bindings with a previously taken snapshot.
func (c *Context) Restore(snap map[string]value.Value) {
	c.vars = snap
}

// Install overlays the given bindings onto the current scope.
func (c *Context) Install(bindings map[string]value.Value) {
	for k, v := range bindings {
		c.vars[k] = v
	}
}
