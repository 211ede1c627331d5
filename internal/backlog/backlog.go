// internal/backlog/backlog.go
//
// Backlog input for an iteration run. Backlogs are plain YAML lists so
// users can point swarmcycle at their own feature requests; when no file
// is supplied the built-in sample backlog is used.

package backlog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Item is a single feature request waiting to be planned.
type Item struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Normalize trims whitespace and reports whether the item is usable.
func (i Item) Normalize() (Item, error) {
	i.ID = strings.TrimSpace(i.ID)
	i.Title = strings.TrimSpace(i.Title)
	i.Description = strings.TrimSpace(i.Description)
	if i.ID == "" {
		return Item{}, fmt.Errorf("backlog: item id is required")
	}
	if i.Title == "" {
		return Item{}, fmt.Errorf("backlog: item %s: title is required", i.ID)
	}
	return i, nil
}

type backlogFile struct {
	Items []Item `yaml:"items"`
}

// Parse decodes a backlog from YAML bytes. Both a bare list and an
// `items:` document are accepted.
func Parse(data []byte) ([]Item, error) {
	var items []Item
	if err := yaml.Unmarshal(data, &items); err != nil {
		var doc backlogFile
		if docErr := yaml.Unmarshal(data, &doc); docErr != nil {
			return nil, fmt.Errorf("backlog: decode: %w", err)
		}
		items = doc.Items
	}
	return normalizeItems(items)
}

// LoadFile reads a backlog from an explicit file path.
func LoadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backlog: read %s: %w", path, err)
	}
	items, parseErr := Parse(data)
	if parseErr != nil {
		return nil, fmt.Errorf("backlog: %s: %w", path, parseErr)
	}
	return items, nil
}

func normalizeItems(items []Item) ([]Item, error) {
	seen := map[string]struct{}{}
	out := make([]Item, 0, len(items))
	for idx, item := range items {
		normalized, err := item.Normalize()
		if err != nil {
			return nil, fmt.Errorf("backlog: item[%d]: %w", idx, err)
		}
		if _, dup := seen[normalized.ID]; dup {
			return nil, fmt.Errorf("backlog: duplicate item id %s", normalized.ID)
		}
		seen[normalized.ID] = struct{}{}
		out = append(out, normalized)
	}
	return out, nil
}

// Sample returns the example backlog used when no file is provided.
func Sample() []Item {
	return []Item{
		{
			ID:          "FEAT-001",
			Title:       "User Login API",
			Description: "Create login endpoint with JWT",
		},
		{
			ID:          "FEAT-002",
			Title:       "Dashboard UI",
			Description: "Create main dashboard page",
		},
	}
}

// TestItem returns the single-item backlog used by the quickstart flow.
func TestItem() []Item {
	return []Item{
		{
			ID:          "TEST-001",
			Title:       "Hello World API",
			Description: "Simple test endpoint",
		},
	}
}
