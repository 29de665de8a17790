package pipeline

import (
	"context"
	"log/slog"

	"dandiprep/internal/history"
	"dandiprep/internal/logging"
)

// recorder writes run progress to the history store. Ledger failures are
// logged and never fail the run.
type recorder struct {
	store  *history.Store
	runID  string
	logger *slog.Logger
}

func (r *recorder) start(ctx context.Context, run history.Run) {
	if r.store == nil {
		return
	}
	if err := r.store.StartRun(ctx, run); err != nil {
		r.warn("failed to record run start", err)
	}
}

func (r *recorder) step(ctx context.Context, step history.Step) {
	if r.store == nil {
		return
	}
	step.RunID = r.runID
	if err := r.store.RecordStep(ctx, step); err != nil {
		r.warn("failed to record step", err, logging.String("step_name", step.Name))
	}
}

func (r *recorder) finish(ctx context.Context, status history.Status, sessionDate, errMsg string) {
	if r.store == nil {
		return
	}
	if err := r.store.FinishRun(ctx, r.runID, status, sessionDate, errMsg); err != nil {
		r.warn("failed to record run result", err)
	}
}

func (r *recorder) warn(msg string, err error, attrs ...logging.Attr) {
	attrs = append(attrs,
		logging.Error(err),
		logging.String("history_path", r.store.Path()),
		logging.String(logging.FieldErrorHint, "check results_root permissions and free space"),
		logging.String(logging.FieldImpact, "run history incomplete"),
	)
	logging.WarnWithContext(r.logger, msg, "history_write_failed", attrs...)
}
