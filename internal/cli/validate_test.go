package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidQuery(t *testing.T) {
	path := writeTempFile(t, "mean.cue", `
query: {
	kind: "both"
	op:   "div"
	left: {kind: "iter", op: "add", init: {kind: "const", value: 0.0}, body: {kind: "item"}}
	right: {kind: "iter", op: "add", init: {kind: "const", value: 0.0}, body: {kind: "item", extract: "one"}}
}
`)

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
}

func TestValidate_InvalidQuery(t *testing.T) {
	path := writeTempFile(t, "bad.cue", `query: {kind: "frobnicate"}`)

	out, err := execute(t, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "invalid")
	assert.Contains(t, out, "query.kind")
}

func TestValidate_InvalidQueryJSON(t *testing.T) {
	path := writeTempFile(t, "bad.cue", `query: {kind: "const"}`)

	out, err := execute(t, "--format", "json", "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_COMPILE", resp.Error.Code)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, false, data["valid"])
	issues := data["issues"].([]interface{})
	require.Len(t, issues, 1)
	issue := issues[0].(map[string]interface{})
	assert.Equal(t, "query.value", issue["field"])
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := execute(t, "validate", filepath.Join(t.TempDir(), "absent.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQueries_ListsRegistry(t *testing.T) {
	out, err := execute(t, "queries")
	require.NoError(t, err)
	assert.Contains(t, out, "running_sum")
	assert.Contains(t, out, "running_mean")
	assert.Contains(t, out, "extremum_mean_2_3")
}

func TestQueries_JSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "queries")
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	names := resp.Data.([]interface{})
	assert.Contains(t, names, "running_sum")
}
