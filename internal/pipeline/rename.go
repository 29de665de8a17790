package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"dandiprep/internal/logging"
	"dandiprep/internal/nwb"
	"dandiprep/internal/services"
)

// rename inserts the session field into every recording of the organized
// subject directory.
func (p *Pipeline) rename(_ context.Context, r *run, logger *slog.Logger) (string, error) {
	subject, err := nwb.FindSubjectDir(r.summary.DandisetDir)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, StepRename, "locate organized directory", "", err)
	}
	if len(subject.Others) > 0 {
		warning := fmt.Sprintf("renaming only %s; ignored %s", filepath.Base(subject.Path), strings.Join(subject.Others, ", "))
		r.summary.Warnings = append(r.summary.Warnings, warning)
		logging.WarnWithContext(logger, "multiple organized directories", "multiple_subject_dirs",
			logging.String("renamed", filepath.Base(subject.Path)),
			logging.Strings("ignored", subject.Others),
			logging.String(logging.FieldErrorHint, "stage one subject per run"),
			logging.String(logging.FieldImpact, "recordings in ignored directories upload without a session field"),
		)
	}

	renames, err := nwb.RenameSessions(subject.Path, r.summary.SessionDate, r.opts.RawMoviesSuffix())
	r.summary.Renames = append(r.summary.Renames, renames...)
	for _, rn := range renames {
		logger.Info("renamed recording",
			logging.String(logging.FieldEventType, "rename"),
			logging.String("from", rn.From),
			logging.String("to", rn.To),
		)
	}
	if err != nil {
		if errors.Is(err, nwb.ErrMalformedName) || errors.Is(err, nwb.ErrAlreadyRenamed) || errors.Is(err, nwb.ErrNameCollision) {
			return "", services.Wrap(services.ErrValidation, StepRename, "rename recordings", "", err)
		}
		return "", fmt.Errorf("rename recordings: %w", err)
	}
	return fmt.Sprintf("%d renamed in %s", len(renames), filepath.Base(subject.Path)), nil
}
