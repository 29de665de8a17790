package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dandiprep/internal/logging"
)

// CleanResult contains the outcome of a scratch cleanup operation.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// Err joins all cleanup errors, or returns nil when every entry was removed.
func (r CleanResult) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, fmt.Errorf("remove %s: %w", e.Path, e.Error))
	}
	return errors.Join(errs...)
}

// ClearScratch removes every entry directly inside scratchDir, files and
// directories alike. The scratch root itself is kept. A missing scratch root
// is created.
func ClearScratch(ctx context.Context, scratchDir string, logger *slog.Logger) CleanResult {
	result := CleanResult{}

	scratchDir = strings.TrimSpace(scratchDir)
	if scratchDir == "" {
		result.Errors = append(result.Errors, CleanupError{Path: scratchDir, Error: errors.New("scratch directory not configured")})
		return result
	}

	entries, err := os.ReadDir(scratchDir)
	if err != nil {
		if os.IsNotExist(err) {
			if mkErr := os.MkdirAll(scratchDir, 0o755); mkErr != nil {
				result.Errors = append(result.Errors, CleanupError{Path: scratchDir, Error: mkErr})
			}
			return result
		}
		result.Errors = append(result.Errors, CleanupError{Path: scratchDir, Error: err})
		return result
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: scratchDir, Error: err})
			return result
		}
		path := filepath.Join(scratchDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove scratch entry",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "scratch_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check scratch_root permissions"),
					logging.String(logging.FieldImpact, "run cannot start from a clean scratch tree"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Debug("removed scratch entry",
				logging.String("path", path),
				logging.String(logging.FieldEventType, "scratch_cleanup"),
			)
		}
	}

	return result
}
