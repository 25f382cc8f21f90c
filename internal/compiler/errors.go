package compiler

import (
	"fmt"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError describes a query definition that does not satisfy the
// compiler's schema.
type CompileError struct {
	// Field is the offending field path (e.g. "query.left.op").
	Field string

	// Message is a human-readable description.
	Message string

	// Pos is the source position, when known.
	Pos token.Pos
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError converts a CUE evaluation error into a readable error
// with full details.
func formatCUEError(err error) error {
	return fmt.Errorf("cue: %s", cueerrors.Details(err, nil))
}
