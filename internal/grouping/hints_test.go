package grouping

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadHints(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "hints.json")
	payload := `[
		{"group_a": "zzz", "group_b": "aaa"},
		{"group_a": "dup", "group_b": "dup"},
		{"group_a": "", "group_b": "x"}
	]`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	hints, err := LoadHints(path)
	if err != nil {
		t.Fatalf("LoadHints failed: %v", err)
	}
	if len(hints) != 1 {
		t.Fatalf("expected 1 usable hint, got %d", len(hints))
	}
	if hints[0].A != "aaa" || hints[0].B != "zzz" {
		t.Fatalf("hint not normalized: %+v", hints[0])
	}
}

func TestLoadHintsErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadHints(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "broken.json")
	if err := os.WriteFile(path, []byte(`{`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadHints(path); err == nil {
		t.Fatalf("expected error for broken JSON")
	}
}
