package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/quredev/qure/internal/stream"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("store: session not found")

// Session is one recorded run.
type Session struct {
	Token     string
	Query     string
	CreatedAt string
}

// Snapshot is the solver's value after one item.
type Snapshot struct {
	Seq     int64
	Defined bool
	Value   float64
}

// ReadSession returns the session row for token.
func (s *Store) ReadSession(ctx context.Context, token string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx,
		`SELECT token, query, created_at FROM sessions WHERE token = ?`,
		token,
	).Scan(&sess.Token, &sess.Query, &sess.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, token)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", token, err)
	}
	return sess, nil
}

// ListSessions returns all recorded sessions ordered by creation time.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token, query, created_at FROM sessions ORDER BY created_at, token`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.Token, &sess.Query, &sess.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ReadItems returns a session's consumed items in seq order.
// Deterministic ordering is what makes replay reproduce the original
// run exactly.
func (s *Store) ReadItems(ctx context.Context, token string) ([]stream.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, series, value FROM items
		 WHERE session_token = ? ORDER BY seq`,
		token,
	)
	if err != nil {
		return nil, fmt.Errorf("read items for %s: %w", token, err)
	}
	defer rows.Close()

	var out []stream.Item
	for rows.Next() {
		var item stream.Item
		if err := rows.Scan(&item.Seq, &item.Series, &item.Value); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// ReadSnapshots returns a session's value snapshots in seq order.
func (s *Store) ReadSnapshots(ctx context.Context, token string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, defined, value FROM snapshots
		 WHERE session_token = ? ORDER BY seq`,
		token,
	)
	if err != nil {
		return nil, fmt.Errorf("read snapshots for %s: %w", token, err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		var defined int
		if err := rows.Scan(&snap.Seq, &defined, &snap.Value); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.Defined = defined != 0
		out = append(out, snap)
	}
	return out, rows.Err()
}
