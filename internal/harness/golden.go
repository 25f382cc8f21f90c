package harness

import (
	"encoding/json"
	"fmt"
)

// TraceSnapshot is the JSON shape written to golden files: the full
// per-item trace plus the final outcome. Session tokens and logical
// seq numbers are deterministic, so the snapshot is stable across runs.
type TraceSnapshot struct {
	Scenario     string       `json:"scenario"`
	SessionToken string       `json:"session_token"`
	Query        string       `json:"query"`
	Trace        []TraceEvent `json:"trace"`
	Outcome      Outcome      `json:"outcome"`
}

// Snapshot renders a run's trace as indented JSON for golden
// comparison.
func Snapshot(result *Result, queryName string) ([]byte, error) {
	snap := TraceSnapshot{
		Scenario:     result.ScenarioName,
		SessionToken: result.SessionToken,
		Query:        queryName,
		Trace:        result.Trace,
		Outcome:      result.Outcome,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal trace snapshot: %w", err)
	}
	return append(data, '\n'), nil
}
