package stream

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadItems reads a YAML file holding a bare list of items:
//
//	- {series: temp, value: 1}
//	- {series: temp, value: 2}
//
// Unknown fields are rejected, and every item needs a series.
func LoadItems(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read items file: %w", err)
	}

	var items []Item
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse items YAML: %w", err)
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("items file is empty")
	}
	for i, item := range items {
		if item.Series == "" {
			return nil, fmt.Errorf("items[%d]: series is required", i)
		}
	}

	return items, nil
}
