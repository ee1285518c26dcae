package launchlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriter_AppendsAcrossOpens(t *testing.T) {
	dir := t.TempDir()

	w, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	w.Line("first launch started")
	w.Stagef("stage %s", "Resolving version")
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	w2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	w2.Line("second launch started")
	if err := w2.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("reading log: %v", err)
	}

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 accumulated lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[1], "=== stage Resolving version ===") {
		t.Fatalf("expected stage marker, got: %s", lines[1])
	}
	if !strings.Contains(lines[2], "second launch started") {
		t.Fatalf("expected second open's line to append, got: %s", lines[2])
	}
}
