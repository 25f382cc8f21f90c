package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/quredev/qure/internal/compiler"
	"github.com/quredev/qure/internal/query"
	"github.com/quredev/qure/internal/session"
	"github.com/quredev/qure/internal/stream"
)

// DefaultSessionToken is used when a scenario does not pin one.
// Golden traces depend on it; changing it invalidates every golden
// file.
const DefaultSessionToken = "test-session-default"

// TraceEvent records the evaluation state after one consumed item.
type TraceEvent struct {
	Seq        int64   `json:"seq"`
	Series     string  `json:"series"`
	Value      float64 `json:"value"`
	Defined    bool    `json:"defined"`
	Result     float64 `json:"result"`
	WorkingSet int     `json:"working_set"`
}

// Outcome is the final evaluation state after the full stream.
type Outcome struct {
	Defined bool                  `json:"defined"`
	Value   float64               `json:"value"`
	Groups  []session.GroupResult `json:"groups,omitempty"`
}

// Result is the outcome of running one scenario.
type Result struct {
	ScenarioName string
	SessionToken string
	Passed       bool
	Failures     []string
	Trace        []TraceEvent
	Outcome      Outcome
}

// Run executes a scenario and validates its expectation. The returned
// error covers setup problems (unknown query, compile failure); an
// expectation mismatch is reported through Result.Passed and
// Result.Failures instead.
func Run(scenario *stream.Scenario) (*Result, error) {
	build, err := builderFor(scenario)
	if err != nil {
		return nil, err
	}

	token := scenario.SessionToken
	if token == "" {
		token = DefaultSessionToken
	}

	result := &Result{
		ScenarioName: scenario.Name,
		SessionToken: token,
	}

	if scenario.GroupBySeries {
		runGrouped(scenario, build, result)
	} else {
		runSingle(scenario, token, build, result)
	}

	checkExpectation(scenario, result)
	result.Passed = len(result.Failures) == 0
	return result, nil
}

// builderFor resolves the scenario's query source: a registry name or
// a CUE file. A compiled file is parsed once; the builder hands out the
// same immutable tree, which any number of solvers can share.
func builderFor(scenario *stream.Scenario) (query.Builder, error) {
	if scenario.Query != "" {
		return query.Lookup(scenario.Query)
	}

	expr, err := compiler.CompileFile(scenario.QueryFile)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", scenario.QueryFile, err)
	}
	return func() query.Expr { return expr }, nil
}

func runSingle(scenario *stream.Scenario, token string, build query.Builder, result *Result) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	s := session.New(token, queryLabel(scenario), build(), session.WithLogger(logger))

	ctx := context.Background()
	for _, item := range scenario.Items {
		// No recorder configured, so Feed cannot fail.
		_ = s.Feed(ctx, item)
		result.Trace = append(result.Trace, traceEvent(s, item))
	}

	if v, err := s.Value(); err == nil {
		result.Outcome = Outcome{Defined: true, Value: v}
	}
}

func runGrouped(scenario *stream.Scenario, build query.Builder, result *Result) {
	g := session.NewGrouped(build)

	for i, item := range scenario.Items {
		g.Feed(item)

		event := TraceEvent{
			Seq:        int64(i + 1),
			Series:     item.Series,
			Value:      item.Value,
			WorkingSet: g.WorkingSetSize(item.Series),
		}
		if v, err := g.Value(item.Series); err == nil {
			event.Defined = true
			event.Result = v
		}
		result.Trace = append(result.Trace, event)
	}

	groups := g.Results()
	defined := len(groups) > 0
	for _, gr := range groups {
		if !gr.Defined {
			defined = false
		}
	}
	result.Outcome = Outcome{Defined: defined, Groups: groups}
}

func traceEvent(s *session.Session, item stream.Item) TraceEvent {
	event := TraceEvent{
		Seq:        s.Clock().Current(),
		Series:     item.Series,
		Value:      item.Value,
		WorkingSet: s.WorkingSetSize(),
	}
	if v, err := s.Value(); err == nil {
		event.Defined = true
		event.Result = v
	}
	return event
}

// checkExpectation compares the outcome against the scenario's expect
// clause, appending one failure message per mismatch.
func checkExpectation(scenario *stream.Scenario, result *Result) {
	expect := scenario.Expect

	if !expect.Defined {
		if result.Outcome.Defined {
			result.Failures = append(result.Failures,
				fmt.Sprintf("expected undefined, got %v", result.Outcome.Value))
		}
		return
	}

	if !result.Outcome.Defined {
		result.Failures = append(result.Failures, "expected a defined value, got undefined")
		return
	}

	if scenario.GroupBySeries {
		checkGroups(expect, result)
		return
	}

	if !withinTolerance(result.Outcome.Value, expect.Value, expect.Tolerance) {
		result.Failures = append(result.Failures,
			fmt.Sprintf("expected %v (tolerance %v), got %v",
				expect.Value, expect.Tolerance, result.Outcome.Value))
	}
}

func checkGroups(expect stream.Expectation, result *Result) {
	got := make(map[string]float64, len(result.Outcome.Groups))
	for _, gr := range result.Outcome.Groups {
		if gr.Defined {
			got[gr.Series] = gr.Value
		}
	}

	for series, want := range expect.Groups {
		v, ok := got[series]
		if !ok {
			result.Failures = append(result.Failures,
				fmt.Sprintf("group %q: expected %v, got undefined", series, want))
			continue
		}
		if !withinTolerance(v, want, expect.Tolerance) {
			result.Failures = append(result.Failures,
				fmt.Sprintf("group %q: expected %v (tolerance %v), got %v",
					series, want, expect.Tolerance, v))
		}
	}

	for series := range got {
		if _, ok := expect.Groups[series]; !ok {
			result.Failures = append(result.Failures,
				fmt.Sprintf("group %q: unexpected defined value %v", series, got[series]))
		}
	}
}

func withinTolerance(got, want, tolerance float64) bool {
	if tolerance == 0 {
		return got == want
	}
	return math.Abs(got-want) <= tolerance
}

func queryLabel(scenario *stream.Scenario) string {
	if scenario.Query != "" {
		return scenario.Query
	}
	return scenario.QueryFile
}
