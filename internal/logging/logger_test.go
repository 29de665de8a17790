package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dandiprep/internal/config"
	"dandiprep/internal/logging"
	"dandiprep/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")

	logger, err := logging.NewFromConfig(&cfg, "")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("pipeline ready")

	if got := readLog(t, cfg.LogPath()); !strings.Contains(got, "pipeline ready") {
		t.Fatalf("expected message in log file, got %q", got)
	}
}

func TestNewFromConfigLevelOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, "error")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Warn("suppressed warning")
	logger.Error("visible error")

	got := readLog(t, cfg.LogPath())
	if strings.Contains(got, "suppressed warning") {
		t.Fatalf("expected warn to be filtered, got %q", got)
	}
	if !strings.Contains(got, "visible error") {
		t.Fatalf("expected error line, got %q", got)
	}
}

func TestConsoleLoggerFormatsComponentAndStep(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithStep(services.WithRunID(context.Background(), "run-1"), "rename")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "renamer"))
	logger.Info("renamed file", logging.String("to", "sub-1_ses-2023+05+01_001.nwb"), logging.Error(errors.New("none")))

	got := readLog(t, logPath)
	for _, fragment := range []string{"INFO", "[rename] renamer: renamed file", "run_id=run-1", "to=sub-1_ses-2023+05+01_001.nwb", "error=none"} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %q in %q", fragment, got)
		}
	}
	if strings.Contains(got, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", got)
	}
}

func TestConsoleLoggerQuotesValuesWithSpaces(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "quoted.log")
	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("captured", logging.String("stderr", "no such dandiset"))

	if got := readLog(t, logPath); !strings.Contains(got, `stderr="no such dandiset"`) {
		t.Fatalf("expected quoted value, got %q", got)
	}
}

func TestJSONLoggerUsesShortKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("collision", logging.String(logging.FieldEventType, "rename_collision"))

	line := strings.TrimSpace(readLog(t, logPath))
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, line)
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload["event_type"] != "rename_collision" {
		t.Fatalf("expected event_type, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected unsupported format error")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "download failed", "dandi_download_failed", logging.String(logging.FieldErrorHint, "check dandiset id"))

	got := readLog(t, logPath)
	for _, fragment := range []string{"event_type=dandi_download_failed", `error_hint="check dandiset id"`, "impact="} {
		if !strings.Contains(got, fragment) {
			t.Fatalf("expected %q in %q", fragment, got)
		}
	}
}
