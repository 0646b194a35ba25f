package executor

import (
	"fmt"

	"github.com/rowlang/rowlang/internal/errors"
)

func newUnknownColumnError(side, name string) error {
	return &errors.ScriptError{
		Kind:    errors.KindUndefinedVariable,
		Name:    name,
		Message: fmt.Sprintf("no %s column with this name", side),
	}
}

func newOutputOffsetError(offset int) error {
	return errors.NewArgumentError("slice",
		"output offset %d is not available; the current row's output does not exist yet", offset)
}

func validateSliceOffsets(startOffset, endOffset int) error {
	if endOffset < 0 {
		return errors.NewArgumentError("slice", "end offset must be non-negative, got %d", endOffset)
	}
	if startOffset < endOffset {
		return errors.NewArgumentError("slice",
			"start offset %d precedes end offset %d", startOffset, endOffset)
	}
	return nil
}
