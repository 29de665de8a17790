package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"dandiprep/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "results", "history.db"))
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRunLifecycle(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	run := history.Run{ID: "run-1", DandisetID: "000123", Filetype: "zarr", RawMovies: true, InputPath: "/data/nwb"}
	if err := store.StartRun(ctx, run); err != nil {
		t.Fatalf("StartRun: %v", err)
	}

	fetched, err := store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if fetched.Status != history.StatusRunning {
		t.Fatalf("expected running status, got %s", fetched.Status)
	}
	if !fetched.RawMovies || fetched.Filetype != "zarr" || fetched.DandisetID != "000123" {
		t.Fatalf("unexpected run: %+v", fetched)
	}
	if fetched.Duration() != 0 {
		t.Fatalf("expected zero duration while running, got %v", fetched.Duration())
	}

	for _, name := range []string{"clear_scratch", "download", "stage"} {
		if err := store.RecordStep(ctx, history.Step{RunID: "run-1", Name: name, Status: history.StatusSucceeded}); err != nil {
			t.Fatalf("RecordStep %s: %v", name, err)
		}
	}
	if err := store.FinishRun(ctx, "run-1", history.StatusSucceeded, "2023-05-01", ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	fetched, err = store.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if fetched.Status != history.StatusSucceeded || fetched.SessionDate != "2023-05-01" {
		t.Fatalf("unexpected finished run: %+v", fetched)
	}
	if fetched.FinishedAt.IsZero() {
		t.Fatal("expected finished_at to be recorded")
	}

	steps, err := store.Steps(ctx, "run-1")
	if err != nil {
		t.Fatalf("Steps: %v", err)
	}
	if len(steps) != 3 || steps[0].Name != "clear_scratch" || steps[2].Name != "stage" {
		t.Fatalf("unexpected steps: %+v", steps)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		run := history.Run{ID: id, DandisetID: "000001", Filetype: "hdf5", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := store.StartRun(ctx, run); err != nil {
			t.Fatalf("StartRun %s: %v", id, err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected all runs, got %d", len(all))
	}
}

func TestUnknownRun(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if _, err := store.GetRun(ctx, "missing"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun(ctx, "missing", history.StatusFailed, "", "boom"); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.StartRun(ctx, history.Run{}); err == nil {
		t.Fatal("expected error for empty run id")
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.StartRun(context.Background(), history.Run{ID: "persisted", DandisetID: "1", Filetype: "hdf5"}); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if _, err := reopened.GetRun(context.Background(), "persisted"); err != nil {
		t.Fatalf("expected persisted run: %v", err)
	}
}
