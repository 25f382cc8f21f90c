package session

import (
	"context"
	"fmt"

	"github.com/quredev/qure/internal/store"
)

// Resume rebuilds a live session from its recording. The stored query
// is rebuilt, every recorded item is re-fed through a fresh solver, and
// the clock is advanced to the last recorded seq, so further Feed calls
// extend the recording where it left off.
//
// The build function must produce the same query the session was
// recorded with; use Replay first when that is in doubt.
func Resume(ctx context.Context, st *store.Store, token string, build func(queryName string) (Expr, error), opts ...Option) (*Session, error) {
	sess, err := st.ReadSession(ctx, token)
	if err != nil {
		return nil, err
	}

	query, err := build(sess.Query)
	if err != nil {
		return nil, fmt.Errorf("rebuild query %q: %w", sess.Query, err)
	}

	items, err := st.ReadItems(ctx, token)
	if err != nil {
		return nil, err
	}

	var last int64
	for _, item := range items {
		if item.Seq > last {
			last = item.Seq
		}
	}

	opts = append(opts, WithClock(NewClockAt(last)), WithRecorder(st))
	s := New(token, sess.Query, query, opts...)

	// Re-feed through the solver directly: the items are already
	// recorded, only the in-memory state needs rebuilding.
	for _, item := range items {
		s.solver.Advance(item)
	}

	return s, nil
}
