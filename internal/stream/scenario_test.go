package stream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validScenarioYAML = `
name: running_sum_small
description: sums three items
query: running_sum
items:
  - series: temp
    value: 1
  - series: temp
    value: 2
  - series: temp
    value: 3
expect:
  defined: true
  value: 6
`

func TestParseScenario_Valid(t *testing.T) {
	s, err := ParseScenario([]byte(validScenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "running_sum_small", s.Name)
	assert.Equal(t, "running_sum", s.Query)
	require.Len(t, s.Items, 3)
	assert.Equal(t, Item{Series: "temp", Value: 2}, s.Items[1])
	assert.True(t, s.Expect.Defined)
	assert.Equal(t, 6.0, s.Expect.Value)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	yaml := `
name: typo
description: has a typo'd key
query: running_sum
items:
  - series: temp
    value: 1
expectation:
  defined: true
`
	_, err := ParseScenario([]byte(yaml))
	require.Error(t, err)
}

func TestParseScenario_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "description: d\nquery: q\nitems: [{series: s, value: 1}]\nexpect: {defined: true, value: 1}",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: n\nquery: q\nitems: [{series: s, value: 1}]\nexpect: {defined: true, value: 1}",
			wantErr: "description is required",
		},
		{
			name:    "no query source",
			yaml:    "name: n\ndescription: d\nitems: [{series: s, value: 1}]\nexpect: {defined: true, value: 1}",
			wantErr: "one of query or query_file is required",
		},
		{
			name:    "both query sources",
			yaml:    "name: n\ndescription: d\nquery: q\nquery_file: f.cue\nitems: [{series: s, value: 1}]\nexpect: {defined: true, value: 1}",
			wantErr: "mutually exclusive",
		},
		{
			name:    "empty items",
			yaml:    "name: n\ndescription: d\nquery: q\nitems: []\nexpect: {defined: true, value: 1}",
			wantErr: "items list is required",
		},
		{
			name:    "item without series",
			yaml:    "name: n\ndescription: d\nquery: q\nitems: [{value: 1}]\nexpect: {defined: true, value: 1}",
			wantErr: "series is required",
		},
		{
			name:    "undefined with value",
			yaml:    "name: n\ndescription: d\nquery: q\nitems: [{series: s, value: 1}]\nexpect: {defined: false, value: 3}",
			wantErr: "require defined: true",
		},
		{
			name:    "grouped without groups",
			yaml:    "name: n\ndescription: d\nquery: q\ngroup_by_series: true\nitems: [{series: s, value: 1}]\nexpect: {defined: true, value: 3}",
			wantErr: "must set groups",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tc.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestLoadScenario_ResolvesQueryFileRelativeToScenario(t *testing.T) {
	dir := t.TempDir()
	yaml := `
name: from_file
description: query comes from a CUE file
query_file: queries/mean.cue
items:
  - series: temp
    value: 1
expect:
  defined: true
  value: 1
`
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "queries", "mean.cue"), s.QueryFile)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
