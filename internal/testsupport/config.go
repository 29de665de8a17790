package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"dandiprep/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The input, results, and scratch roots exist; the log directory and history
// database live under the results root.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputRoot = filepath.Join(base, "data")
	cfgVal.Paths.ResultsRoot = filepath.Join(base, "results")
	cfgVal.Paths.ScratchRoot = filepath.Join(base, "scratch")
	cfgVal.Paths.LogDir = filepath.Join(base, "results", "logs")
	cfgVal.History.Path = filepath.Join(base, "results", "history.db")

	for _, dir := range []string{cfgVal.Paths.InputRoot, cfgVal.Paths.ResultsRoot, cfgVal.Paths.ScratchRoot} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithBestEffort enables lenient handling of failing dandi calls.
func WithBestEffort() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Workflow.BestEffort = true
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the dandi client and the default
// converter are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.Dandi.Binary, b.cfg.Convert.Command}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}
