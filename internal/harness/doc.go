// Package harness executes stream evaluation scenarios end to end:
// it builds or compiles the scenario's query, feeds every item through
// the real solver, and checks the outcome against the scenario's
// expectation.
//
// Each run produces a trace - one event per consumed item, carrying the
// value snapshot and the working-set size at that position. Traces are
// deterministic (logical clock, fixed session tokens), so they can be
// compared against golden files with goldie; see golden.go.
//
// The harness is used both by package tests and by the `qure test`
// command.
package harness
