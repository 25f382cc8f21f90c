package stream

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a stream evaluation scenario: a query, the items to
// feed, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden trace files are
	// keyed by it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Query names a built-in query from the query registry
	// (e.g. "running_sum"). Exactly one of Query and QueryFile must be
	// set.
	Query string `yaml:"query,omitempty"`

	// QueryFile is a path to a CUE query definition, resolved relative
	// to the scenario file unless absolute.
	QueryFile string `yaml:"query_file,omitempty"`

	// GroupBySeries partitions the stream per series value, running an
	// independent solver per group.
	GroupBySeries bool `yaml:"group_by_series,omitempty"`

	// Items is the stream, in order.
	Items []Item `yaml:"items"`

	// Expect describes the outcome after the full stream is consumed.
	Expect Expectation `yaml:"expect"`

	// SessionToken is an optional fixed session token for deterministic
	// golden comparison. Defaults to "test-session-default".
	SessionToken string `yaml:"session_token,omitempty"`
}

// Expectation is the expected outcome of a scenario.
type Expectation struct {
	// Defined is true when the query must resolve to a single value.
	Defined bool `yaml:"defined"`

	// Value is the expected result when Defined is true.
	Value float64 `yaml:"value,omitempty"`

	// Tolerance is the allowed absolute deviation for floating
	// comparison. Zero means exact equality.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Groups holds per-series expected values when the scenario groups
	// by series. When set, Value is ignored.
	Groups map[string]float64 `yaml:"groups,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields
// are rejected (catches typos like "expectation:" vs "expect:"), and
// required fields are validated. QueryFile paths are resolved relative
// to the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.QueryFile != "" && !filepath.IsAbs(scenario.QueryFile) {
		scenario.QueryFile = filepath.Join(filepath.Dir(path), scenario.QueryFile)
	}

	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and
// consistent.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Query == "" && s.QueryFile == "":
		return fmt.Errorf("one of query or query_file is required")
	case s.Query != "" && s.QueryFile != "":
		return fmt.Errorf("query and query_file are mutually exclusive")
	}

	if len(s.Items) == 0 {
		return fmt.Errorf("items list is required and must be non-empty")
	}

	for i, item := range s.Items {
		if item.Series == "" {
			return fmt.Errorf("items[%d]: series is required", i)
		}
	}

	if !s.Expect.Defined {
		if s.Expect.Value != 0 || len(s.Expect.Groups) != 0 {
			return fmt.Errorf("expect: value and groups require defined: true")
		}
	}

	if s.GroupBySeries && s.Expect.Defined && len(s.Expect.Groups) == 0 {
		return fmt.Errorf("expect: grouped scenarios must set groups, not value")
	}

	if s.Expect.Tolerance < 0 {
		return fmt.Errorf("expect: tolerance must be non-negative")
	}

	return nil
}
