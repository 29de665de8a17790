package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"dandiprep/internal/history"
	"dandiprep/internal/logging"
	"dandiprep/internal/nwb"
	"dandiprep/internal/preflight"
	"dandiprep/internal/services"
	"dandiprep/internal/services/command"
	"dandiprep/internal/staging"
)

// toleratedError marks a step failure the run continues past.
type toleratedError struct {
	err error
}

func (e *toleratedError) Error() string { return e.err.Error() }

func (e *toleratedError) Unwrap() error { return e.err }

// run carries per-run state between steps.
type run struct {
	opts     Options
	summary  *Summary
	recorder *recorder
	logger   *slog.Logger
}

// Run executes every step for opts. The returned Summary is populated as far
// as the run progressed, including when an error is returned.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Summary, error) {
	opts.BestEffort = opts.BestEffort || p.cfg.Workflow.BestEffort
	summary := &Summary{DandisetID: opts.DandisetID, Filetype: opts.Filetype}
	if err := opts.Validate(); err != nil {
		return summary, err
	}

	if err := p.cfg.EnsureDirectories(); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, "", "prepare directories", "", err)
	}
	lock, err := acquireLock(p.cfg.LockPath())
	if err != nil {
		return summary, err
	}
	defer func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			p.logger.Warn("failed to release run lock", logging.Error(unlockErr))
		}
	}()

	summary.RunID = uuid.NewString()
	summary.InputDir = p.cfg.ResolveInput(opts.InputPath)
	summary.DandisetDir = filepath.Join(p.cfg.Paths.ScratchRoot, opts.DandisetID)

	ctx = services.WithRunID(ctx, summary.RunID)
	r := &run{
		opts:    opts,
		summary: summary,
		logger:  logging.WithContext(ctx, p.logger),
	}
	r.recorder = &recorder{store: p.store, runID: summary.RunID, logger: r.logger}

	r.logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("dandiset_id", opts.DandisetID),
		logging.String("input_dir", summary.InputDir),
		logging.String("dandiset_dir", summary.DandisetDir),
		logging.String("filetype", string(opts.Filetype)),
		logging.Bool("raw_movies", opts.RawMoviesSuffix()),
		logging.Bool("best_effort", opts.BestEffort),
	)
	r.recorder.start(ctx, history.Run{
		ID:         summary.RunID,
		DandisetID: opts.DandisetID,
		Filetype:   string(opts.Filetype),
		RawMovies:  opts.RawMoviesSuffix(),
		InputPath:  summary.InputDir,
	})

	start := time.Now()
	runErr := p.execute(ctx, r)

	// The ledger must record the outcome even when ctx was cancelled.
	finishCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		status := services.FailureStatus(runErr)
		r.recorder.finish(finishCtx, status, summary.SessionDate.String(), runErr.Error())
		logging.ErrorWithContext(r.logger, "run failed", "run_failed",
			logging.String("status", string(status)),
			logging.Duration("elapsed", time.Since(start)),
			logging.Error(runErr),
		)
		return summary, runErr
	}

	r.recorder.finish(finishCtx, history.StatusSucceeded, summary.SessionDate.String(), strings.Join(summary.Warnings, "; "))
	r.logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("elapsed", time.Since(start)),
		logging.Int("conversions", len(summary.Conversions)),
		logging.Int("renames", len(summary.Renames)),
		logging.Int("warnings", len(summary.Warnings)),
	)
	return summary, nil
}

func (p *Pipeline) execute(ctx context.Context, r *run) error {
	steps := []struct {
		name string
		fn   func(context.Context, *run, *slog.Logger) (string, error)
		skip bool
	}{
		{name: StepPreflight, fn: p.preflight, skip: !r.opts.Preflight},
		{name: StepClearScratch, fn: p.clearScratch},
		{name: StepDownload, fn: p.download},
		{name: StepStage, fn: p.stage},
		{name: StepExtractDate, fn: p.extractDate},
		{name: StepConvert, fn: p.convert},
		{name: StepOrganize, fn: p.organize},
		{name: StepRename, fn: p.rename},
		{name: StepUpload, fn: p.upload},
	}
	for _, step := range steps {
		if step.skip {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.runStep(ctx, r, step.name, step.fn); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) runStep(ctx context.Context, r *run, name string, fn func(context.Context, *run, *slog.Logger) (string, error)) error {
	stepCtx := services.WithStep(ctx, name)
	logger := logging.WithContext(stepCtx, p.logger)
	logger.Info("step started", logging.String(logging.FieldEventType, "step_start"))

	start := time.Now()
	detail, err := fn(stepCtx, r, logger)
	outcome := StepOutcome{Name: name, Status: history.StatusSucceeded, Detail: detail, Duration: time.Since(start)}

	var tolerated *toleratedError
	switch {
	case err == nil:
		logger.Info("step completed",
			logging.String(logging.FieldEventType, "step_complete"),
			logging.String("detail", detail),
			logging.Duration("elapsed", outcome.Duration),
		)
	case errors.As(err, &tolerated):
		outcome.Status = history.StatusSkipped
		outcome.Detail = tolerated.err.Error()
		r.summary.Warnings = append(r.summary.Warnings, fmt.Sprintf("%s: %s", name, tolerated.err.Error()))
		logging.WarnWithContext(logger, "step failed, continuing in best-effort mode", "step_tolerated",
			logging.Error(tolerated.err),
			logging.String(logging.FieldErrorHint, "inspect the captured dandi output in the log"),
			logging.String(logging.FieldImpact, "later steps may operate on incomplete data"),
		)
		err = nil
	default:
		outcome.Status = services.FailureStatus(err)
		outcome.Detail = err.Error()
		logging.ErrorWithContext(logger, "step failed", "step_failure",
			logging.String("status", string(outcome.Status)),
			logging.Error(err),
		)
	}

	r.summary.Steps = append(r.summary.Steps, outcome)
	r.recorder.step(context.WithoutCancel(stepCtx), history.Step{
		Name:       name,
		Status:     outcome.Status,
		Detail:     outcome.Detail,
		StartedAt:  start,
		FinishedAt: start.Add(outcome.Duration),
	})
	return err
}

func (p *Pipeline) preflight(ctx context.Context, r *run, _ *slog.Logger) (string, error) {
	results := preflight.RunAll(ctx, p.cfg, r.summary.InputDir)
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return fmt.Sprintf("%d checks passed", len(results)), nil
	}
	parts := make([]string, 0, len(failed))
	for _, f := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Name, f.Detail))
	}
	return "", services.Wrap(services.ErrValidation, StepPreflight, "check dependencies", strings.Join(parts, "; "), nil)
}

func (p *Pipeline) clearScratch(ctx context.Context, _ *run, logger *slog.Logger) (string, error) {
	result := staging.ClearScratch(ctx, p.cfg.Paths.ScratchRoot, logger)
	if err := result.Err(); err != nil {
		return "", services.Wrap(services.ErrConfiguration, StepClearScratch, "clear scratch", p.cfg.Paths.ScratchRoot, err)
	}
	return fmt.Sprintf("removed %d entries", len(result.Removed)), nil
}

func (p *Pipeline) download(ctx context.Context, r *run, logger *slog.Logger) (string, error) {
	result, err := p.dandi.Download(ctx, r.opts.DandisetID, p.cfg.Paths.ScratchRoot)
	detail, err := p.external(r, logger, result, err)
	if err != nil {
		return detail, err
	}

	info, statErr := os.Stat(r.summary.DandisetDir)
	if statErr == nil && info.IsDir() {
		return detail, nil
	}
	missing := services.Wrap(services.ErrNotFound, StepDownload, "locate dandiset directory",
		r.summary.DandisetDir+" missing after download", statErr)
	if r.opts.BestEffort {
		return detail, &toleratedError{err: missing}
	}
	return detail, missing
}

func (p *Pipeline) stage(ctx context.Context, r *run, logger *slog.Logger) (string, error) {
	stats, err := staging.StageInput(ctx, r.summary.InputDir, r.summary.DandisetDir, logger)
	r.summary.Staged = stats
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d files, %d bytes", stats.Files, stats.Bytes), nil
}

func (p *Pipeline) extractDate(_ context.Context, r *run, logger *slog.Logger) (string, error) {
	scan, err := nwb.ExtractSessionDate(r.summary.DandisetDir)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, StepExtractDate, "extract session date", "", err)
	}
	if scan.Conflicting() {
		warning := fmt.Sprintf("recordings disagree on session date (%s); using %s from %s",
			strings.Join(scan.Distinct, ", "), scan.Date, scan.Source)
		r.summary.Warnings = append(r.summary.Warnings, warning)
		logging.WarnWithContext(logger, "conflicting session dates", "session_date_conflict",
			logging.Strings("dates", scan.Distinct),
			logging.String("chosen", scan.Date.String()),
			logging.String("source", scan.Source),
			logging.String(logging.FieldErrorHint, "stage one session per run"),
			logging.String(logging.FieldImpact, "all recordings are renamed with the chosen date"),
		)
	}
	r.summary.SessionDate = scan.Date
	return fmt.Sprintf("%s from %s (%d recordings)", scan.Date, scan.Source, len(scan.Recordings)), nil
}

func (p *Pipeline) organize(ctx context.Context, r *run, logger *slog.Logger) (string, error) {
	result, err := p.dandi.Organize(ctx, r.summary.DandisetDir)
	return p.external(r, logger, result, err)
}

func (p *Pipeline) upload(ctx context.Context, r *run, logger *slog.Logger) (string, error) {
	result, err := p.dandi.Upload(ctx, r.summary.DandisetDir)
	return p.external(r, logger, result, err)
}

// external logs a dandi invocation and applies the strict or best-effort
// failure policy.
func (p *Pipeline) external(r *run, logger *slog.Logger, result command.Result, err error) (string, error) {
	if result.Binary != "" {
		r.summary.Commands = append(r.summary.Commands, result)
	}
	attrs := []logging.Attr{
		logging.String("command", result.CommandLine()),
		logging.Int("exit_code", result.ExitCode),
		logging.Duration("elapsed", result.Duration),
	}
	if err == nil {
		logger.Info("command finished", logging.Args(attrs...)...)
		if out := result.Diagnostic(20); out != "" {
			logger.Debug("command output", logging.String("output", out))
		}
		return fmt.Sprintf("exit %d", result.ExitCode), nil
	}

	attrs = append(attrs,
		logging.String("stderr", result.Diagnostic(20)),
		logging.String(logging.FieldErrorHint, "rerun the command shown to reproduce"),
	)
	logging.WarnWithContext(logger, "command failed", "command_failed", attrs...)
	if r.opts.BestEffort && !errors.Is(err, context.Canceled) {
		return "", &toleratedError{err: err}
	}
	return "", err
}
