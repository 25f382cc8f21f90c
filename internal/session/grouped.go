package session

import (
	"io"
	"log/slog"
	"sort"

	"github.com/quredev/qure/internal/stream"
	"github.com/quredev/qure/pkg/qre"
)

// Grouped partitions a stream by series and runs an independent solver
// per group. Each series sees only its own items, in arrival order,
// with seq numbers drawn from one shared clock so the interleaving is
// still recorded in the items themselves.
//
// Like Session, Grouped is single-writer: no concurrent calls.
type Grouped struct {
	build  func() Expr
	clock  *Clock
	logger *slog.Logger
	groups map[string]*qre.Solver[stream.Item, float64]
}

// NewGrouped creates a grouped evaluation over fresh per-series
// expressions from build.
func NewGrouped(build func() Expr, opts ...GroupedOption) *Grouped {
	g := &Grouped{
		build:  build,
		clock:  NewClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		groups: make(map[string]*qre.Solver[stream.Item, float64]),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GroupedOption configures a Grouped evaluation.
type GroupedOption func(*Grouped)

// WithGroupedLogger sets the structured logger.
func WithGroupedLogger(logger *slog.Logger) GroupedOption {
	return func(g *Grouped) {
		g.logger = logger
	}
}

// Feed routes one item to its series' solver, creating the solver on
// first sight of the series.
func (g *Grouped) Feed(item stream.Item) {
	item.Seq = g.clock.Next()

	solver, ok := g.groups[item.Series]
	if !ok {
		solver = qre.NewSolver[stream.Item, float64](g.build())
		g.groups[item.Series] = solver
		g.logger.Debug("group created", "series", item.Series)
	}
	solver.Advance(item)
}

// GroupResult is one series' outcome.
type GroupResult struct {
	Series  string  `json:"series"`
	Defined bool    `json:"defined"`
	Value   float64 `json:"value"`
}

// Results returns every group's outcome, sorted by series for
// deterministic output.
func (g *Grouped) Results() []GroupResult {
	out := make([]GroupResult, 0, len(g.groups))
	for series, solver := range g.groups {
		r := GroupResult{Series: series}
		if v, err := solver.Value(); err == nil {
			r.Defined = true
			r.Value = v
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Series < out[j].Series })
	return out
}

// Value returns one series' defined answer, or the engine's Undefined
// error. An unknown series is Undefined with zero branches.
func (g *Grouped) Value(series string) (float64, error) {
	solver, ok := g.groups[series]
	if !ok {
		return 0, &qre.UndefinedError{Branches: 0, Values: 0}
	}
	return solver.Value()
}

// WorkingSetSize returns one series' current branch count, or 0 for an
// unknown series.
func (g *Grouped) WorkingSetSize(series string) int {
	solver, ok := g.groups[series]
	if !ok {
		return 0
	}
	return solver.WorkingSetSize()
}

// Series returns the known series names, sorted.
func (g *Grouped) Series() []string {
	names := make([]string, 0, len(g.groups))
	for series := range g.groups {
		names = append(names, series)
	}
	sort.Strings(names)
	return names
}
