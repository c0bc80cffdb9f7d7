package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, file := range files {
		fullPath := filepath.Join(root, file)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", file, err)
		}
		if err := os.WriteFile(fullPath, []byte("# spec"), 0644); err != nil {
			t.Fatalf("failed to create file %s: %v", file, err)
		}
	}
}

func TestScanner_Scan(t *testing.T) {
	tmpDir := t.TempDir()

	writeFiles(t, tmpDir,
		"shard.yml",
		"spec/spec_helper.cr",
		"spec/math_spec.cr",
		"spec/ops/div_spec.cr",
		"spec/ops/deep/mul_spec.cr",
		"spec/fixtures/data.json",
		"spec/.cache/stale_spec.cr",
		"src/math.cr",
	)

	scanner := NewScanner([]string{"fixtures"}, NewFilter("spec/**/*_spec.cr"))

	t.Run("scans spec files and directories", func(t *testing.T) {
		result, err := scanner.Scan(tmpDir, "spec")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(result.Files) != 3 {
			t.Errorf("expected 3 spec files, got %d: %v", len(result.Files), result.Files)
		}
		// spec, spec/ops, spec/ops/deep
		if len(result.Dirs) != 3 {
			t.Errorf("expected 3 directories, got %d: %v", len(result.Dirs), result.Dirs)
		}
		if result.Dirs[0] != filepath.Join(tmpDir, "spec") {
			t.Errorf("expected spec dir first, got %s", result.Dirs[0])
		}
	})

	t.Run("returns error for missing spec directory", func(t *testing.T) {
		_, err := scanner.Scan(tmpDir, "test")
		if err == nil {
			t.Error("expected error for non-existent directory")
		}
	})

	t.Run("returns error for file instead of directory", func(t *testing.T) {
		_, err := scanner.Scan(tmpDir, "shard.yml")
		if err == nil {
			t.Error("expected error for file path")
		}
	})
}

func TestRecognize(t *testing.T) {
	tmpDir := t.TempDir()
	app := filepath.Join(tmpDir, "app")
	lib := filepath.Join(tmpDir, "lib")
	noSpec := filepath.Join(tmpDir, "nospec")

	writeFiles(t, app, "shard.yml", "spec/a_spec.cr")
	writeFiles(t, lib, "spec/a_spec.cr")
	writeFiles(t, noSpec, "shard.yml")

	got := Recognize([]string{lib, app, noSpec, filepath.Join(tmpDir, "missing")}, "shard.yml", "spec")
	if len(got) != 1 || got[0] != app {
		t.Errorf("expected only %s, got %v", app, got)
	}

	if IsWorkspace(lib, "shard.yml", "spec") {
		t.Error("a spec dir without manifest is not a workspace")
	}
}
