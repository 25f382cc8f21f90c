package session

import (
	"errors"
	"fmt"
)

// RecordError wraps a trace-store write failure with the session
// position at which it happened. The solver itself has already
// advanced when recording fails; callers decide whether to keep
// feeding without a trace or abort the run.
type RecordError struct {
	Token string
	Seq   int64
	Err   error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	return fmt.Sprintf("record session %s at seq %d: %v", e.Token, e.Seq, e.Err)
}

// Unwrap returns the underlying store error.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// IsRecordError reports whether err is (or wraps) a RecordError.
func IsRecordError(err error) bool {
	var re *RecordError
	return errors.As(err, &re)
}
