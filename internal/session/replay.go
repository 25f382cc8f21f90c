package session

import (
	"context"
	"fmt"

	"github.com/quredev/qure/internal/store"
	"github.com/quredev/qure/internal/stream"
	"github.com/quredev/qure/pkg/qre"
)

// ReplayMismatch is one position where a replayed run diverged from the
// recorded snapshots.
type ReplayMismatch struct {
	Seq             int64
	RecordedDefined bool
	RecordedValue   float64
	ReplayedDefined bool
	ReplayedValue   float64
}

// ReplayReport summarizes a replay of a recorded session.
type ReplayReport struct {
	Token      string
	Query      string
	Items      int
	Mismatches []ReplayMismatch
}

// Deterministic reports whether the replay reproduced every recorded
// snapshot exactly.
func (r *ReplayReport) Deterministic() bool {
	return len(r.Mismatches) == 0
}

// Replay re-feeds a recorded session's items through a fresh solver and
// compares the value after each item against the recorded snapshots.
// The build function maps the session's stored query name back to an
// expression; it must produce the same query the session was recorded
// with, or every snapshot will mismatch.
//
// Combinators are pure and items are replayed in seq order, so a
// mismatch means either a changed query definition or a bug.
func Replay(ctx context.Context, st *store.Store, token string, build func(queryName string) (Expr, error)) (*ReplayReport, error) {
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
	snapshots, err := st.ReadSnapshots(ctx, token)
	if err != nil {
		return nil, err
	}

	recorded := make(map[int64]store.Snapshot, len(snapshots))
	for _, snap := range snapshots {
		recorded[snap.Seq] = snap
	}

	report := &ReplayReport{Token: token, Query: sess.Query, Items: len(items)}
	solver := qre.NewSolver[stream.Item, float64](query)

	for _, item := range items {
		solver.Advance(item)

		v, err := solver.Value()
		defined := err == nil

		snap, ok := recorded[item.Seq]
		if !ok {
			// An item without a snapshot means the original run was
			// interrupted mid-feed; nothing to compare at this seq.
			continue
		}

		if snap.Defined != defined || (defined && snap.Value != v) {
			mismatch := ReplayMismatch{
				Seq:             item.Seq,
				RecordedDefined: snap.Defined,
				RecordedValue:   snap.Value,
				ReplayedDefined: defined,
			}
			if defined {
				mismatch.ReplayedValue = v
			}
			report.Mismatches = append(report.Mismatches, mismatch)
		}
	}

	return report, nil
}
