package preflight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"dandiprep/internal/config"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckDirectoryReadable(t *testing.T) {
	dir := t.TempDir()
	if result := CheckDirectoryReadable("input", dir); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func writeStub(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	if results := RunAll(context.Background(), nil, ""); results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_AllPresent(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "dandi")
	writeStub(t, binDir, "python3")
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	cfg.Paths.ScratchRoot = t.TempDir()
	cfg.Paths.ResultsRoot = t.TempDir()

	results := RunAll(context.Background(), &cfg, t.TempDir())
	if len(results) != 5 {
		t.Fatalf("expected 5 results, got %d: %+v", len(results), results)
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("expected all checks to pass, got %+v", failed)
	}
}

func TestRunAll_ReportsMissingConverter(t *testing.T) {
	binDir := t.TempDir()
	writeStub(t, binDir, "dandi")
	t.Setenv("PATH", binDir)

	cfg := config.Default()
	cfg.Paths.ScratchRoot = t.TempDir()
	cfg.Paths.ResultsRoot = t.TempDir()

	failed := Failed(RunAll(context.Background(), &cfg, ""))
	if len(failed) != 1 || failed[0].Name != "Converter" {
		t.Fatalf("expected converter failure only, got %+v", failed)
	}
}
