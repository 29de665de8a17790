package nwbconvert_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dandiprep/internal/nwb"
	"dandiprep/internal/services"
	"dandiprep/internal/services/command"
	"dandiprep/internal/services/nwbconvert"
)

var defaultArgs = []string{"-c", "{script}", "{from}", "{to}", "{src}", "{dst}"}

const payloadChunk = "0"

// copyingRunner behaves like a lossless converter: an HDF5 file becomes a
// Zarr directory holding the same bytes as one chunk, and back again.
type copyingRunner struct {
	calls [][]string
	fail  bool
}

func (r *copyingRunner) Run(_ context.Context, req command.Request) (command.Result, error) {
	r.calls = append(r.calls, append([]string(nil), req.Args...))
	result := command.Result{Binary: req.Binary, Args: req.Args}
	n := len(req.Args)
	from, to, src, dst := req.Args[n-4], req.Args[n-3], req.Args[n-2], req.Args[n-1]

	if r.fail {
		_ = os.MkdirAll(dst, 0o755)
		result.ExitCode = 1
		result.Stderr = "export failed"
		return result, &command.ExitError{Result: result}
	}

	var payload []byte
	var err error
	switch from {
	case "hdf5":
		payload, err = os.ReadFile(src)
	case "zarr":
		payload, err = os.ReadFile(filepath.Join(src, payloadChunk))
	}
	if err != nil {
		return result, err
	}
	switch to {
	case "zarr":
		if err := os.MkdirAll(dst, 0o755); err != nil {
			return result, err
		}
		if err := os.WriteFile(filepath.Join(dst, nwb.ZarrAttrsFile), []byte("{}"), 0o644); err != nil {
			return result, err
		}
		err = os.WriteFile(filepath.Join(dst, payloadChunk), payload, 0o644)
	case "hdf5":
		err = os.WriteFile(dst, payload, 0o644)
	}
	return result, err
}

func newClient(t *testing.T, runner command.Runner) *nwbconvert.Client {
	t.Helper()
	client, err := nwbconvert.New(nwbconvert.Settings{Command: "python3", Args: defaultArgs}, nwbconvert.WithRunner(runner))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewValidatesTemplate(t *testing.T) {
	if _, err := nwbconvert.New(nwbconvert.Settings{Command: "", Args: defaultArgs}); err == nil {
		t.Fatal("expected error for empty command")
	}
	if _, err := nwbconvert.New(nwbconvert.Settings{Command: "python3", Args: []string{"{src}"}}); err == nil {
		t.Fatal("expected error for template without {dst}")
	}
}

func TestExportScriptCopiesData(t *testing.T) {
	for _, fragment := range []string{"NWBHDF5IO", "NWBZarrIO", "link_data=False", "sys.argv[1:]"} {
		if !strings.Contains(nwbconvert.ExportScript, fragment) {
			t.Fatalf("expected %q in bundled exporter", fragment)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for input, want := range map[string]nwbconvert.Format{"hdf5": nwbconvert.FormatHDF5, " ZARR ": nwbconvert.FormatZarr} {
		got, err := nwbconvert.ParseFormat(input)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", input, got, err)
		}
	}
	if _, err := nwbconvert.ParseFormat("nwb"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestHDF5ToZarrKeepsName(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie_2023-05-01.nwb")
	if err := os.WriteFile(src, []byte("hdf5 payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runner := &copyingRunner{}
	client := newClient(t, runner)

	dst, err := client.HDF5ToZarr(context.Background(), src)
	if err != nil {
		t.Fatalf("HDF5ToZarr returned error: %v", err)
	}
	if dst != src {
		t.Fatalf("expected destination %s, got %s", src, dst)
	}
	info, err := os.Stat(dst)
	if err != nil || !info.IsDir() {
		t.Fatalf("expected zarr directory at %s: %v", dst, err)
	}
	if err := nwb.ValidateZarrStore(dst); err != nil {
		t.Fatalf("expected valid store: %v", err)
	}

	args := runner.calls[0]
	if args[0] != "-c" || args[1] != nwbconvert.ExportScript || args[2] != "hdf5" || args[3] != "zarr" {
		t.Fatalf("unexpected converter args: %v", args)
	}
	if args[4] != src || !strings.HasSuffix(args[5], ".movie_2023-05-01.nwb.partial") {
		t.Fatalf("expected export into partial sibling, got %v", args)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".*.partial"))
	if len(leftovers) != 0 {
		t.Fatalf("expected no partial output left, got %v", leftovers)
	}
}

func TestZarrToHDF5DropsLastExtension(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "session.nwb.zarr")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(src, payloadChunk), []byte("zarr payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	client := newClient(t, &copyingRunner{})

	dst, err := client.ZarrToHDF5(context.Background(), src)
	if err != nil {
		t.Fatalf("ZarrToHDF5 returned error: %v", err)
	}
	if dst != filepath.Join(dir, "session.nwb") {
		t.Fatalf("unexpected destination %s", dst)
	}
	if _, err := os.Stat(src); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected source store removed, got %v", err)
	}

	if _, err := client.ZarrToHDF5(context.Background(), src); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected second call to fail with not found, got %v", err)
	}
}

func TestRoundTripPreservesBytes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie_2023-05-01.nwb")
	original := bytes.Repeat([]byte{0x89, 'H', 'D', 'F', 0x00, 0xff}, 512)
	if err := os.WriteFile(src, original, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	client := newClient(t, &copyingRunner{})
	ctx := context.Background()

	zarrPath, err := client.HDF5ToZarr(ctx, src)
	if err != nil {
		t.Fatalf("HDF5ToZarr: %v", err)
	}
	zarrStore := zarrPath + ".zarr"
	if err := os.Rename(zarrPath, zarrStore); err != nil {
		t.Fatalf("rename store: %v", err)
	}
	hdf5Path, err := client.ZarrToHDF5(ctx, zarrStore)
	if err != nil {
		t.Fatalf("ZarrToHDF5: %v", err)
	}
	if hdf5Path != src {
		t.Fatalf("expected round trip back to %s, got %s", src, hdf5Path)
	}
	got, err := os.ReadFile(hdf5Path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, original) {
		t.Fatal("round trip changed recording bytes")
	}
}

func TestFailedExportKeepsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "movie_2023-05-01.nwb")
	if err := os.WriteFile(src, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	client := newClient(t, &copyingRunner{fail: true})

	_, err := client.HDF5ToZarr(context.Background(), src)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	if content, readErr := os.ReadFile(src); readErr != nil || string(content) != "payload" {
		t.Fatalf("expected source untouched, got %q, %v", content, readErr)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".*.partial"))
	if len(leftovers) != 0 {
		t.Fatalf("expected partial output removed, got %v", leftovers)
	}
}

func TestCollisionWithExistingDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "session.nwb.zarr")
	if err := os.MkdirAll(src, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "session.nwb"), []byte("existing"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	runner := &copyingRunner{}
	client := newClient(t, runner)

	if _, err := client.ZarrToHDF5(context.Background(), src); !errors.Is(err, nwb.ErrNameCollision) {
		t.Fatalf("expected collision, got %v", err)
	}
	if len(runner.calls) != 0 {
		t.Fatal("converter must not run on collision")
	}
}
