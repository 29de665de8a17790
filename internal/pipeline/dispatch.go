package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dandiprep/internal/logging"
	"dandiprep/internal/nwb"
	"dandiprep/internal/services"
	"dandiprep/internal/services/nwbconvert"
)

// convert dispatches each staged entry to the converter. Directories are Zarr
// stores and become HDF5 files when the target is hdf5; .nwb files become Zarr
// stores when the target is zarr. Everything else is left untouched.
func (p *Pipeline) convert(ctx context.Context, r *run, logger *slog.Logger) (string, error) {
	dir := r.summary.DandisetDir
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read staged directory: %w", err)
	}

	skipped := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", entry.Name(), err)
		}

		var (
			out    string
			target = r.opts.Filetype
		)
		switch {
		case info.IsDir() && target == nwbconvert.FormatHDF5:
			if err := nwb.ValidateZarrStore(path); err != nil {
				return "", services.Wrap(services.ErrValidation, StepConvert, "validate zarr store", "", err)
			}
			logger.Info("converting zarr store to hdf5", logging.String("source", entry.Name()))
			out, err = p.converter.ZarrToHDF5(ctx, path)
		case !info.IsDir() && nwb.IsRecording(entry.Name()) && target == nwbconvert.FormatZarr:
			logger.Info("converting hdf5 file to zarr", logging.String("source", entry.Name()))
			out, err = p.converter.HDF5ToZarr(ctx, path)
		default:
			skipped++
			continue
		}
		if err != nil {
			return "", err
		}

		conversion := Conversion{From: entry.Name(), To: filepath.Base(out), Target: target}
		r.summary.Conversions = append(r.summary.Conversions, conversion)
		logger.Info("conversion complete",
			logging.String(logging.FieldEventType, "conversion_complete"),
			logging.String("source", conversion.From),
			logging.String("output", conversion.To),
			logging.String("target", string(target)),
		)
	}
	return fmt.Sprintf("%d converted, %d untouched", len(r.summary.Conversions), skipped), nil
}
