package nwb_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dandiprep/internal/nwb"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func mustDate(t *testing.T, s string) nwb.SessionDate {
	t.Helper()
	date, ok := nwb.ParseSessionDate(s)
	if !ok {
		t.Fatalf("no date in %q", s)
	}
	return date
}

func TestExtractSessionDate(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "movie_2023-05-01.nwb"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "dandiset.yaml"))

	scan, err := nwb.ExtractSessionDate(dir)
	if err != nil {
		t.Fatalf("ExtractSessionDate returned error: %v", err)
	}
	if scan.Date.String() != "2023-05-01" {
		t.Fatalf("expected 2023-05-01, got %q", scan.Date)
	}
	if scan.Date.Encoded() != "2023+05+01" {
		t.Fatalf("unexpected encoding %q", scan.Date.Encoded())
	}
	if scan.Source != "movie_2023-05-01.nwb" || len(scan.Recordings) != 1 {
		t.Fatalf("unexpected scan: %+v", scan)
	}
	if scan.Conflicting() {
		t.Fatal("single recording cannot conflict")
	}
}

func TestExtractSessionDateIncludesZarrDirectories(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ecephys_2024-01-09.nwb", ".zattrs"))

	scan, err := nwb.ExtractSessionDate(dir)
	if err != nil {
		t.Fatalf("ExtractSessionDate returned error: %v", err)
	}
	if scan.Date.String() != "2024-01-09" {
		t.Fatalf("unexpected date %q", scan.Date)
	}
}

func TestExtractSessionDateLastWins(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a_2023-05-01.nwb"))
	touch(t, filepath.Join(dir, "b_2023-05-02.nwb"))
	touch(t, filepath.Join(dir, "c_2023-05-01.nwb"))

	scan, err := nwb.ExtractSessionDate(dir)
	if err != nil {
		t.Fatalf("ExtractSessionDate returned error: %v", err)
	}
	if scan.Date.String() != "2023-05-01" || scan.Source != "c_2023-05-01.nwb" {
		t.Fatalf("expected last entry to win, got %+v", scan)
	}
	if !scan.Conflicting() || len(scan.Distinct) != 2 {
		t.Fatalf("expected two distinct dates, got %v", scan.Distinct)
	}
}

func TestExtractSessionDateFailures(t *testing.T) {
	tests := []struct {
		name  string
		files []string
		want  error
		names string
	}{
		{name: "empty", files: nil, want: nwb.ErrNoRecordings},
		{name: "only other files", files: []string{"readme.md", "data.h5"}, want: nwb.ErrNoRecordings},
		{name: "undated recording", files: []string{"a_2023-05-01.nwb", "b_undated.nwb"}, want: nwb.ErrNoSessionDate, names: "b_undated.nwb"},
		{name: "partial date", files: []string{"a_2023-5-01.nwb"}, want: nwb.ErrNoSessionDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.files {
				touch(t, filepath.Join(dir, name))
			}
			_, err := nwb.ExtractSessionDate(dir)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if tt.names != "" && !strings.Contains(err.Error(), tt.names) {
				t.Fatalf("expected error to name %q, got %v", tt.names, err)
			}
		})
	}
}

func TestInsertSession(t *testing.T) {
	date := mustDate(t, "2023-05-01")
	tests := []struct {
		name string
		in   string
		raw  bool
		want string
		err  error
	}{
		{name: "raw movies", in: "sub-1_001.nwb", raw: true, want: "sub-1_ses-2023+05+01-raw-movies_001.nwb"},
		{name: "plain", in: "sub-1_001.nwb", want: "sub-1_ses-2023+05+01_001.nwb"},
		{name: "many fields", in: "sub-mouse_behavior+ophys.nwb", want: "sub-mouse_ses-2023+05+01_behavior+ophys.nwb"},
		{name: "single field", in: "sub-1.nwb", want: "sub-1_ses-2023+05+01.nwb"},
		{name: "single field raw", in: "sub-1.nwb", raw: true, want: "sub-1_ses-2023+05+01-raw-movies.nwb"},
		{name: "empty leading field", in: "_001.nwb", err: nwb.ErrMalformedName},
		{name: "wrong suffix", in: "sub-1_001.h5", err: nwb.ErrMalformedName},
		{name: "already renamed", in: "sub-1_ses-2023+05+01_001.nwb", err: nwb.ErrAlreadyRenamed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := nwb.InsertSession(tt.in, date, tt.raw)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("InsertSession returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestInsertSessionNormalizesToNFC(t *testing.T) {
	date := mustDate(t, "2023-05-01")
	got, err := nwb.InsertSession("sub-Jose\u0301_001.nwb", date, false)
	if err != nil {
		t.Fatalf("InsertSession returned error: %v", err)
	}
	if got != "sub-Jos\u00e9_ses-2023+05+01_001.nwb" {
		t.Fatalf("expected composed form, got %q", got)
	}
}

func TestRenameSessions(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "sub-1_001.nwb"))
	touch(t, filepath.Join(dir, "sub-1_002.nwb", ".zattrs"))
	touch(t, filepath.Join(dir, "sub-1.json"))

	renames, err := nwb.RenameSessions(dir, mustDate(t, "2023-05-01"), true)
	if err != nil {
		t.Fatalf("RenameSessions returned error: %v", err)
	}
	if len(renames) != 2 {
		t.Fatalf("expected two renames, got %+v", renames)
	}
	for _, name := range []string{
		"sub-1_ses-2023+05+01-raw-movies_001.nwb",
		"sub-1_ses-2023+05+01-raw-movies_002.nwb",
		"sub-1.json",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	if _, err := nwb.RenameSessions(dir, mustDate(t, "2023-05-01"), true); !errors.Is(err, nwb.ErrAlreadyRenamed) {
		t.Fatalf("expected second pass to be rejected, got %v", err)
	}
}

func TestRenameSessionsCollisionLeavesDirectoryUntouched(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "sub-1_001.nwb"))
	touch(t, filepath.Join(dir, "sub-2_001.nwb"))
	if err := os.Mkdir(filepath.Join(dir, "sub-2_ses-2023+05+01_001.nwb"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	_, err := nwb.RenameSessions(dir, mustDate(t, "2023-05-01"), false)
	if !errors.Is(err, nwb.ErrNameCollision) {
		t.Fatalf("expected ErrNameCollision, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "sub-1_001.nwb")); statErr != nil {
		t.Fatalf("expected source to remain after aborted plan: %v", statErr)
	}
}

func TestValidateZarrStore(t *testing.T) {
	root := t.TempDir()
	valid := filepath.Join(root, "valid.nwb.zarr")
	touch(t, filepath.Join(valid, ".zattrs"))
	missing := filepath.Join(root, "missing")
	if err := os.Mkdir(missing, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	dirAttrs := filepath.Join(root, "dir-attrs")
	if err := os.MkdirAll(filepath.Join(dirAttrs, ".zattrs"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file := filepath.Join(root, "plain.nwb")
	touch(t, file)

	if err := nwb.ValidateZarrStore(valid); err != nil {
		t.Fatalf("expected valid store, got %v", err)
	}
	for _, path := range []string{missing, dirAttrs, file} {
		err := nwb.ValidateZarrStore(path)
		if !errors.Is(err, nwb.ErrInvalidZarr) {
			t.Fatalf("expected ErrInvalidZarr for %s, got %v", path, err)
		}
		if !strings.Contains(err.Error(), filepath.Base(path)) {
			t.Fatalf("expected error to name %s, got %v", filepath.Base(path), err)
		}
	}
}

func TestFindSubjectDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "dandiset.yaml"))
	for _, name := range []string{".dandi", "sub-2", "sub-1"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	subject, err := nwb.FindSubjectDir(dir)
	if err != nil {
		t.Fatalf("FindSubjectDir returned error: %v", err)
	}
	if filepath.Base(subject.Path) != "sub-1" {
		t.Fatalf("expected sub-1, got %s", subject.Path)
	}
	if len(subject.Others) != 1 || subject.Others[0] != "sub-2" {
		t.Fatalf("expected sub-2 reported as extra, got %v", subject.Others)
	}

	empty := t.TempDir()
	touch(t, filepath.Join(empty, "dandiset.yaml"))
	if _, err := nwb.FindSubjectDir(empty); !errors.Is(err, nwb.ErrNoSubjectDir) {
		t.Fatalf("expected ErrNoSubjectDir, got %v", err)
	}
}
