package session

import (
	"context"
	"io"
	"log/slog"

	"github.com/quredev/qure/internal/store"
	"github.com/quredev/qure/internal/stream"
	"github.com/quredev/qure/pkg/qre"
)

// Expr is the concrete expression type sessions evaluate.
type Expr = qre.Expr[stream.Item, float64]

// Session drives one solver across a stream.
//
// All mutation happens on the caller's goroutine: Feed, Value and the
// accessors must not be called concurrently.
type Session struct {
	token     string
	queryName string
	solver    *qre.Solver[stream.Item, float64]
	clock     *Clock
	recorder  *store.Store
	logger    *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithRecorder makes the session record items and value snapshots to
// the trace store. Begin must be called before the first Feed to
// create the session row.
func WithRecorder(st *store.Store) Option {
	return func(s *Session) {
		s.recorder = st
	}
}

// WithLogger sets the session's structured logger. Defaults to a
// discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClock sets a pre-configured clock. Used by replay to resume
// from a specific sequence number.
func WithClock(clock *Clock) Option {
	return func(s *Session) {
		s.clock = clock
	}
}

// New creates a session for the given query expression. The token
// identifies the run in logs and in the trace store; get one from a
// TokenGenerator.
func New(token, queryName string, query Expr, opts ...Option) *Session {
	s := &Session{
		token:     token,
		queryName: queryName,
		solver:    qre.NewSolver[stream.Item, float64](query),
		clock:     NewClock(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Begin records the session row in the trace store. No-op without a
// recorder. Must be called once, before the first Feed.
func (s *Session) Begin(ctx context.Context) error {
	if s.recorder == nil {
		return nil
	}
	if err := s.recorder.WriteSession(ctx, s.token, s.queryName); err != nil {
		return &RecordError{Token: s.token, Err: err}
	}
	s.logger.Info("session started",
		"token", s.token,
		"query", s.queryName,
	)
	return nil
}

// Feed consumes one item: stamps it with the next logical seq,
// advances the solver, and records the item plus the resulting value
// snapshot when a recorder is configured.
//
// A recording failure is returned as *RecordError; the solver has
// already advanced at that point.
func (s *Session) Feed(ctx context.Context, item stream.Item) error {
	item.Seq = s.clock.Next()
	s.solver.Advance(item)

	v, err := s.solver.Value()
	defined := err == nil

	s.logger.Debug("item consumed",
		"token", s.token,
		"seq", item.Seq,
		"series", item.Series,
		"value", item.Value,
		"defined", defined,
		"working_set", s.solver.WorkingSetSize(),
	)

	if s.recorder == nil {
		return nil
	}

	if err := s.recorder.WriteItem(ctx, s.token, item); err != nil {
		return &RecordError{Token: s.token, Seq: item.Seq, Err: err}
	}

	snap := store.Snapshot{Seq: item.Seq, Defined: defined}
	if defined {
		snap.Value = v
	}
	if err := s.recorder.WriteSnapshot(ctx, s.token, snap); err != nil {
		return &RecordError{Token: s.token, Seq: item.Seq, Err: err}
	}

	return nil
}

// Value returns the query's defined answer, or the engine's Undefined
// error. Idempotent between feeds.
func (s *Session) Value() (float64, error) {
	return s.solver.Value()
}

// Token returns the session token.
func (s *Session) Token() string {
	return s.token
}

// QueryName returns the name the session was started with.
func (s *Session) QueryName() string {
	return s.queryName
}

// Clock returns the session's logical clock.
func (s *Session) Clock() *Clock {
	return s.clock
}

// WorkingSetSize returns the solver's current branch count.
func (s *Session) WorkingSetSize() int {
	return s.solver.WorkingSetSize()
}

// PeakWorkingSetSize returns the largest working set observed.
func (s *Session) PeakWorkingSetSize() int {
	return s.solver.PeakWorkingSetSize()
}
