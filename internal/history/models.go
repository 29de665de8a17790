package history

import "time"

// Status is the lifecycle state of a run or step.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	// StatusInvalid marks runs stopped by bad inputs or configuration.
	StatusInvalid Status = "invalid"
	// StatusSkipped marks steps that failed but were tolerated in best-effort mode.
	StatusSkipped Status = "skipped"
)

// Run is one pipeline invocation.
type Run struct {
	ID          string
	DandisetID  string
	Filetype    string
	RawMovies   bool
	InputPath   string
	SessionDate string
	Status      Status
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Step is the outcome of a single pipeline step within a run.
type Step struct {
	RunID      string
	Name       string
	Status     Status
	Detail     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration reports how long the run took; zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
