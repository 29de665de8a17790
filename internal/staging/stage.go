package staging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"dandiprep/internal/fileutil"
	"dandiprep/internal/logging"
	"dandiprep/internal/services"
)

// StageInput copies the input recording tree into dandisetDir, merging with
// whatever the metadata download already placed there.
func StageInput(ctx context.Context, inputDir, dandisetDir string, logger *slog.Logger) (fileutil.TreeStats, error) {
	if err := ctx.Err(); err != nil {
		return fileutil.TreeStats{}, err
	}
	info, err := os.Stat(inputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fileutil.TreeStats{}, services.Wrap(services.ErrNotFound, "stage", "stat input", inputDir, err)
		}
		return fileutil.TreeStats{}, services.Wrap(services.ErrValidation, "stage", "stat input", inputDir, err)
	}
	if !info.IsDir() {
		return fileutil.TreeStats{}, services.Wrap(services.ErrValidation, "stage", "stat input", inputDir+" is not a directory", nil)
	}

	stats, err := fileutil.CopyTree(inputDir, dandisetDir)
	if err != nil {
		return stats, fmt.Errorf("copy input into %s: %w", dandisetDir, err)
	}
	if logger != nil {
		logger.Info("staged input recordings",
			logging.String("from", inputDir),
			logging.String("to", dandisetDir),
			logging.Int("files", stats.Files),
			logging.Int64("bytes", stats.Bytes),
			logging.String(logging.FieldEventType, "stage_complete"),
		)
	}
	return stats, nil
}
