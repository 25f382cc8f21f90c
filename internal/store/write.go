package store

import (
	"context"
	"fmt"

	"github.com/quredev/qure/internal/stream"
)

// WriteSession records a new session. Writing the same token twice is
// an error: session tokens are unique per run.
func (s *Store) WriteSession(ctx context.Context, token, queryName string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, query) VALUES (?, ?)`,
		token, queryName,
	)
	if err != nil {
		return fmt.Errorf("write session %s: %w", token, err)
	}
	return nil
}

// WriteItem records one consumed item. Idempotent on (session, seq):
// re-writing the same position is a no-op, which makes crash-retried
// feeds safe.
func (s *Store) WriteItem(ctx context.Context, token string, item stream.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (session_token, seq, series, value)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_token, seq) DO NOTHING`,
		token, item.Seq, item.Series, item.Value,
	)
	if err != nil {
		return fmt.Errorf("write item %s/%d: %w", token, item.Seq, err)
	}
	return nil
}

// WriteSnapshot records the solver's value after the item at seq.
// Undefined snapshots are stored with defined = 0 and value 0.
// Idempotent on (session, seq) like WriteItem.
func (s *Store) WriteSnapshot(ctx context.Context, token string, snap Snapshot) error {
	defined := 0
	if snap.Defined {
		defined = 1
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (session_token, seq, defined, value)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (session_token, seq) DO NOTHING`,
		token, snap.Seq, defined, snap.Value,
	)
	if err != nil {
		return fmt.Errorf("write snapshot %s/%d: %w", token, snap.Seq, err)
	}
	return nil
}
