package logbook

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAppendAndTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	lb, err := New(path)
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	t.Cleanup(func() { _ = lb.Close() })

	lb.Info("starting run %s", "run-1")
	lb.Warn("dashboard unreachable")
	lb.Error("store write failed")

	lines := lb.Tail(10)
	if len(lines) != 3 {
		t.Fatalf("expected 3 entries, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "INFO") || !strings.Contains(lines[0], "starting run run-1") {
		t.Fatalf("unexpected first entry: %q", lines[0])
	}
	if !strings.Contains(lines[1], "WARN") || !strings.Contains(lines[2], "ERROR") {
		t.Fatalf("levels not recorded: %v", lines)
	}
}

func TestTailReturnsMostRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	lb, err := New(path)
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	t.Cleanup(func() { _ = lb.Close() })
	for i := 0; i < 5; i++ {
		lb.Info("entry %d", i)
	}
	lines := lb.Tail(2)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "entry 3") || !strings.HasSuffix(lines[1], "entry 4") {
		t.Fatalf("tail must return newest entries: %v", lines)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var lb *Logbook
	lb.Info("dropped")
	lb.Warn("dropped")
	lb.Error("dropped")
	if lb.Path() != "" {
		t.Fatalf("nil logbook has no path")
	}
	if err := lb.Close(); err != nil {
		t.Fatalf("closing nil logbook: %v", err)
	}
	if lines := lb.Tail(5); lines != nil {
		t.Fatalf("nil logbook must have no entries, got %v", lines)
	}
}

func TestAppendAfterCloseIsDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	lb, err := New(path)
	if err != nil {
		t.Fatalf("open logbook: %v", err)
	}
	lb.Info("before close")
	if err := lb.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	lb.Info("after close")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "after close") {
		t.Fatalf("entry written after close: %q", data)
	}
}
