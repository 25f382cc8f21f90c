// Package stream defines the concrete item type the product surfaces
// (CLI, store, harness) operate on, and the YAML scenario format used
// to describe a stream together with its expected query outcome.
//
// The core engine in pkg/qre stays generic; this package pins D to
// Item and C to float64 for everything above the engine.
package stream
