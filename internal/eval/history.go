package eval

import "github.com/rowlang/rowlang/internal/value"

// History is the row-history capability granted to an interpreter for the
// duration of one row's evaluation. The executors implement it over their
// retained input/output rows; the history builtins (ref, offset, past,
// window) and negative identifier indexing resolve through it and nothing
// else.
//
// Offsets count rows back from the current row. Input offset 0 is the
// current row's input; output offset 0 is invalid because the current row's
// output does not exist yet, and implementations report it as missing.
type History interface {
	// InputValue returns the named input field offset rows back.
	InputValue(name string, offset int) (value.Value, bool)

	// OutputValue returns the named output field offset rows back. Offset 0
	// always reports missing.
	OutputValue(name string, offset int) (value.Value, bool)

	// InputSlice returns input values from startOffset back through
	// endOffset back, both inclusive, oldest first. Offsets reaching before
	// the first row pad the front with Null.
	InputSlice(name string, startOffset, endOffset int) (value.Value, error)

	// OutputSlice is InputSlice over output history. endOffset 0 is an
	// error.
	OutputSlice(name string, startOffset, endOffset int) (value.Value, error)

	// CurrentIndex is the zero-based index of the row being evaluated; it
	// is also the largest usable offset.
	CurrentIndex() int

	// TotalRows is the number of input rows known to the executor.
	TotalRows() int

	// CurrentRow is the input row being evaluated.
	CurrentRow() (value.Row, bool)
}
