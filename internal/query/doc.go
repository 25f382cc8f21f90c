// Package query provides prebuilt QRE constructions over stream items:
// running aggregates (sum, count, mean, max, min), positional queries
// (first, last), and fixed-width window compositions.
//
// Constructors return immutable expression trees; a single tree can
// seed any number of solvers, since derivative construction never
// mutates its input. A registry maps stable names to constructors for
// the CLI and the scenario harness.
package query
