package qre

// Solver drives a query incrementally across a stream.
//
// It owns the working set: the current collection of live residual
// expressions, one per nondeterministic branch. Each Advance replaces
// the whole set with the union of per-element derivatives; old elements
// are discarded, so there is no backtracking to earlier stream
// positions.
//
// The Solver is not safe for concurrent use. All mutation must happen
// on a single goroutine; this mirrors the stream itself, which is a
// sequence, not a set.
type Solver[D, C any] struct {
	working []Expr[D, C]
	peak    int
}

// NewSolver creates a solver whose working set holds only the original
// query.
func NewSolver[D, C any](query Expr[D, C]) *Solver[D, C] {
	return &Solver[D, C]{
		working: []Expr[D, C]{query},
		peak:    1,
	}
}

// Advance consumes one item: every element of the working set is
// replaced by its derivatives, and the old set is discarded.
//
// The working set's size is the accumulated nondeterministic branching
// factor; it can grow combinatorially under nested Split/Iter/Choice.
func (s *Solver[D, C]) Advance(item D) {
	next := make([]Expr[D, C], 0, len(s.working))
	for _, q := range s.working {
		next = append(next, Deriv[D, C](q, item)...)
	}
	s.working = next
	if len(next) > s.peak {
		s.peak = len(next)
	}
}

// Value collapses the working set's epsilon image. It returns the
// single defined answer, or an *UndefinedError when the image does not
// contain exactly one value (no acceptance yet, or ambiguous branches -
// the engine does not distinguish the two, and does not deduplicate
// equal values before counting).
//
// Value is idempotent and side-effect-free; it may be called repeatedly
// between advances with identical results.
func (s *Solver[D, C]) Value() (C, error) {
	var results []C
	for _, q := range s.working {
		results = append(results, Epsilon[D, C](q)...)
	}
	if len(results) != 1 {
		var zero C
		return zero, &UndefinedError{Branches: len(s.working), Values: len(results)}
	}
	return results[0], nil
}

// WorkingSetSize returns the current number of live residuals.
func (s *Solver[D, C]) WorkingSetSize() int {
	return len(s.working)
}

// PeakWorkingSetSize returns the largest working set observed since
// construction. Diagnostic only.
func (s *Solver[D, C]) PeakWorkingSetSize() int {
	return s.peak
}
