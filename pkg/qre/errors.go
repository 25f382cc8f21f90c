package qre

import (
	"errors"
	"fmt"
)

// UndefinedError is the single error kind the engine produces. Value()
// returns it whenever the working set's epsilon image does not collapse
// to exactly one result.
//
// It deliberately subsumes two causes without distinguishing them:
//   - no branch has reached acceptance yet (Values == 0)
//   - multiple branches accept and disagree (Values > 1)
//
// Equal values are NOT deduplicated before counting: two branches that
// both accept with 5.0 are still ambiguous.
type UndefinedError struct {
	// Branches is the size of the working set at query time.
	Branches int

	// Values is the number of acceptance values collected across all
	// branches.
	Values int
}

// Error implements the error interface.
func (e *UndefinedError) Error() string {
	if e.Values == 0 {
		return fmt.Sprintf("undefined: no accepting branch (%d live)", e.Branches)
	}
	return fmt.Sprintf("undefined: %d acceptance values across %d branches", e.Values, e.Branches)
}

// IsUndefined reports whether err is (or wraps) an UndefinedError.
func IsUndefined(err error) bool {
	var ue *UndefinedError
	return errors.As(err, &ue)
}
