// Package store provides durable storage for recorded evaluation
// sessions.
//
// Three tables back the trace log:
//
//   - sessions: one row per recorded run (token, query name)
//   - items: the consumed stream, keyed by (session, seq)
//   - snapshots: the solver's value after each item - defined flag plus
//     value - keyed the same way
//
// Items are read back in seq order, which makes replay deterministic:
// re-feeding a session's items through a fresh solver must reproduce
// its snapshots exactly.
//
// SQLite is configured with WAL mode for concurrent reads and a
// single-connection pool, since there is only ever one writer.
package store
