// Package session drives the QRE solver across a live stream.
//
// A Session owns exactly one solver. Items flow in through Feed, which
// stamps each item with a monotonic logical sequence number, advances
// the solver, and optionally records the item and the resulting value
// snapshot to the trace store for later replay.
//
// ARCHITECTURE:
//
// Single-writer discipline: all mutation happens on the caller's
// goroutine. Feed, Value and the diagnostics accessors must not be
// called concurrently. This mirrors the stream itself - items are a
// sequence - and keeps recorded traces deterministic: the same items
// in the same order always produce byte-identical snapshots.
//
// Sequence numbers come from the logical Clock, never from wall time.
// Session tokens come from a TokenGenerator; production code uses
// time-sortable UUIDv7 tokens, tests use fixed ones.
//
// Grouped runs an independent Session per series value, partitioning
// the stream on Item.Series. This is how grouped aggregates (per-series
// sums and the like) are evaluated without the core engine knowing
// about keys.
package session
