package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const runScenarioYAML = `
name: sum
description: running sum over four items
query: running_sum
items:
  - {series: temp, value: 1}
  - {series: temp, value: 2}
  - {series: temp, value: 3}
  - {series: temp, value: 4}
expect:
  defined: true
  value: 10
`

func TestRun_PrintsValue(t *testing.T) {
	scenario := writeTempFile(t, "sum.yaml", runScenarioYAML)

	out, err := execute(t, "run", scenario)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)
}

func TestRun_JSON(t *testing.T) {
	scenario := writeTempFile(t, "sum.yaml", runScenarioYAML)

	out, err := execute(t, "--format", "json", "run", scenario, "--token", "cli-test")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "sum", data["scenario"])
	assert.Equal(t, "cli-test", data["session_token"])
	assert.Equal(t, 10.0, data["value"])
	assert.Equal(t, false, data["recorded"])
}

func TestRun_Grouped(t *testing.T) {
	scenario := writeTempFile(t, "grouped.yaml", `
name: grouped
description: per-series sums
query: running_sum
group_by_series: true
items:
  - {series: a, value: 1}
  - {series: b, value: 10}
  - {series: a, value: 2}
expect:
  defined: true
  groups:
    a: 3
    b: 10
`)

	out, err := execute(t, "run", scenario)
	require.NoError(t, err)
	assert.Contains(t, out, "a: 3")
	assert.Contains(t, out, "b: 10")
}

func TestRun_GroupedRejectsRecording(t *testing.T) {
	scenario := writeTempFile(t, "grouped.yaml", `
name: grouped
description: per-series sums
query: running_sum
group_by_series: true
items:
  - {series: a, value: 1}
expect:
  defined: true
  groups:
    a: 1
`)

	_, err := execute(t, "run", scenario, "--db", filepath.Join(t.TempDir(), "traces.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_UndefinedExitsNonZero(t *testing.T) {
	scenario := writeTempFile(t, "short.yaml", `
name: short
description: window never completes
query: extremum_mean_2_3
items:
  - {series: temp, value: 5}
expect:
  defined: false
`)

	out, err := execute(t, "run", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "undefined")
}

func TestRun_MissingScenario(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRun_RecordThenReplay(t *testing.T) {
	scenario := writeTempFile(t, "sum.yaml", runScenarioYAML)
	db := filepath.Join(t.TempDir(), "traces.db")

	out, err := execute(t, "run", scenario, "--db", db, "--token", "replay-me")
	require.NoError(t, err)
	assert.Contains(t, out, "recorded session replay-me")

	out, err = execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "replay-me")
	assert.Contains(t, out, "All sessions verified deterministic")
}

func TestReplay_SpecificSession(t *testing.T) {
	scenario := writeTempFile(t, "sum.yaml", runScenarioYAML)
	db := filepath.Join(t.TempDir(), "traces.db")

	_, err := execute(t, "run", scenario, "--db", db, "--token", "only-one")
	require.NoError(t, err)

	out, err := execute(t, "--format", "json", "replay", "--db", db, "--session", "only-one")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["all_deterministic"])
	sessions := data["sessions"].([]interface{})
	require.Len(t, sessions, 1)
	session := sessions[0].(map[string]interface{})
	assert.Equal(t, "running_sum", session["query"])
	assert.Equal(t, float64(4), session["items"])
}

func TestReplay_UnknownSession(t *testing.T) {
	scenario := writeTempFile(t, "sum.yaml", runScenarioYAML)
	db := filepath.Join(t.TempDir(), "traces.db")

	_, err := execute(t, "run", scenario, "--db", db)
	require.NoError(t, err)

	_, err = execute(t, "replay", "--db", db, "--session", "no-such-token")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplay_EmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "traces.db")

	// Opening a fresh database creates the schema with no sessions.
	out, err := execute(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found")
}
