package query

import (
	"fmt"
	"sort"

	"github.com/quredev/qure/internal/stream"
	"github.com/quredev/qure/pkg/qre"
)

// Expr is the concrete expression type every surface above the core
// works with: stream items in, float64 out.
type Expr = qre.Expr[stream.Item, float64]

func anyItem(stream.Item) bool          { return true }
func value(it stream.Item) float64      { return it.Value }
func one(stream.Item) float64           { return 1.0 }
func add(a, b float64) float64          { return a + b }
func maxOf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
func minOf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// item accepts any single item, yielding its value.
func item() Expr {
	return qre.NewSat(anyItem, value)
}

// Sum is the running sum of all item values. Defined from the empty
// stream onward (sum of nothing is 0).
func Sum() Expr {
	return qre.NewIter[stream.Item, float64](qre.NewEps[stream.Item](0.0), item(), add)
}

// Count is the running count of items.
func Count() Expr {
	return qre.NewIter[stream.Item, float64](qre.NewEps[stream.Item](0.0), qre.NewSat(anyItem, one), add)
}

// Mean is the running average: Sum and Count evaluated in parallel over
// the same items, joined by division. Undefined on the empty stream
// only through the division combinator's 0/0 - callers that need a
// guard should check Count first.
func Mean() Expr {
	div := func(sum, n float64) float64 { return sum / n }
	return qre.NewCombine[stream.Item, float64](Sum(), Count(), div)
}

// Max is the running maximum. The accumulator is seeded from the first
// item, so no sentinel value is needed; the query is undefined on the
// empty stream.
func Max() Expr {
	return qre.NewIter[stream.Item, float64](item(), item(), maxOf)
}

// Min is the running minimum, seeded like Max.
func Min() Expr {
	return qre.NewIter[stream.Item, float64](item(), item(), minOf)
}

// First yields the first item's value and ignores the rest.
func First() Expr {
	keep := func(first, _ float64) float64 { return first }
	return qre.NewIter[stream.Item, float64](item(), item(), keep)
}

// Last yields the most recent item's value.
func Last() Expr {
	latest := func(_, last float64) float64 { return last }
	return qre.NewIter[stream.Item, float64](item(), item(), latest)
}

// Window composes fixed-width segments sequentially: each inner
// expression consumes its own contiguous span of the stream, and the
// spans' values are folded left to right with op. It panics when called
// with fewer than two segments; a one-segment window is its segment.
func Window(op func(a, b float64) float64, segments ...Expr) Expr {
	if len(segments) < 2 {
		panic("query: Window needs at least two segments")
	}
	out := segments[len(segments)-1]
	for i := len(segments) - 2; i >= 0; i-- {
		out = qre.NewSplit[stream.Item, float64](segments[i], out, op)
	}
	return out
}

// Span accepts exactly n items, folding their values with op. The
// first item seeds the fold.
func Span(n int, op func(a, b float64) float64) Expr {
	if n < 1 {
		panic("query: Span needs at least one item")
	}
	out := item()
	for i := 1; i < n; i++ {
		out = qre.NewSplit[stream.Item, float64](out, item(), op)
	}
	return out
}

// ExtremumMeanWindow is the windowed min/max/average construction the
// engine's regression fixture uses: a max span followed by a min span,
// averaged as the final step.
func ExtremumMeanWindow(maxWidth, minWidth int) Expr {
	avg := func(a, b float64) float64 { return (a + b) / 2 }
	return qre.NewSplit[stream.Item, float64](Span(maxWidth, maxOf), Span(minWidth, minOf), avg)
}

// Builder constructs a fresh query expression.
type Builder func() Expr

// registry maps stable query names to builders. Names are part of the
// scenario file format; renaming one breaks existing scenarios.
var registry = map[string]Builder{
	"running_sum":   Sum,
	"running_count": Count,
	"running_mean":  Mean,
	"running_max":   Max,
	"running_min":   Min,
	"first":         First,
	"last":          Last,
	"extremum_mean_2_3": func() Expr {
		return ExtremumMeanWindow(2, 3)
	},
}

// Lookup returns the builder registered under name.
func Lookup(name string) (Builder, error) {
	b, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown query %q (known: %v)", name, Names())
	}
	return b, nil
}

// Names returns all registered query names, sorted for deterministic
// output.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
