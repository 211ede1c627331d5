package backlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseBareList(t *testing.T) {
	data := []byte(`
- id: FEAT-001
  title: User Login API
  description: Create login endpoint with JWT
- id: FEAT-002
  title: Dashboard Widget
`)
	items, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].ID != "FEAT-001" || items[0].Title != "User Login API" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
	if items[1].Description != "" {
		t.Fatalf("description should be optional, got %q", items[1].Description)
	}
}

func TestParseItemsDocument(t *testing.T) {
	data := []byte(`
items:
  - id: FEAT-001
    title: User Login API
`)
	items, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "FEAT-001" {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestParseRejectsDuplicateIDs(t *testing.T) {
	data := []byte(`
- id: FEAT-001
  title: First
- id: FEAT-001
  title: Second
`)
	if _, err := Parse(data); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestParseRejectsMissingFields(t *testing.T) {
	if _, err := Parse([]byte("- title: No ID\n")); err == nil {
		t.Fatalf("expected error for missing id")
	}
	if _, err := Parse([]byte("- id: FEAT-001\n")); err == nil {
		t.Fatalf("expected error for missing title")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backlog.yaml")
	content := "- id: FEAT-009\n  title: \"  Padded Title  \"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	items, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Padded Title" {
		t.Fatalf("expected trimmed title, got %+v", items)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSampleBacklogContents(t *testing.T) {
	want := []Item{
		{ID: "FEAT-001", Title: "User Login API", Description: "Create login endpoint with JWT"},
		{ID: "FEAT-002", Title: "Dashboard UI", Description: "Create main dashboard page"},
	}
	got := Sample()
	if len(got) != len(want) {
		t.Fatalf("expected %d sample items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSampleAndTestItemAreValid(t *testing.T) {
	for _, items := range [][]Item{Sample(), TestItem()} {
		if len(items) == 0 {
			t.Fatalf("built-in backlog must not be empty")
		}
		for _, item := range items {
			if _, err := item.Normalize(); err != nil {
				t.Fatalf("built-in item invalid: %v", err)
			}
		}
	}
}
