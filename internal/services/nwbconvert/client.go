package nwbconvert

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dandiprep/internal/nwb"
	"dandiprep/internal/services"
	"dandiprep/internal/services/command"
)

// Format names a container representation.
type Format string

const (
	FormatHDF5 Format = "hdf5"
	FormatZarr Format = "zarr"
)

// ParseFormat accepts the CLI spelling of a target format.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatHDF5:
		return FormatHDF5, nil
	case FormatZarr:
		return FormatZarr, nil
	default:
		return "", fmt.Errorf("unsupported filetype %q (want hdf5 or zarr)", value)
	}
}

// Template placeholders substituted into converter arguments.
const (
	PlaceholderFrom   = "{from}"
	PlaceholderTo     = "{to}"
	PlaceholderSrc    = "{src}"
	PlaceholderDst    = "{dst}"
	// PlaceholderScript expands to the bundled pynwb/hdmf-zarr exporter source,
	// for use as the argument of python3 -c.
	PlaceholderScript = "{script}"
)

// ExportScript is the bundled exporter. It takes <from> <to> <src> <dst>.
//
//go:embed export.py
var ExportScript string

const partialSuffix = ".partial"

// Converter defines the conversions the pipeline dispatches.
type Converter interface {
	ZarrToHDF5(ctx context.Context, path string) (string, error)
	HDF5ToZarr(ctx context.Context, path string) (string, error)
}

// Settings configures a Client.
type Settings struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Option configures the client.
type Option func(*Client)

// WithRunner injects a custom command runner (primarily for tests).
func WithRunner(runner command.Runner) Option {
	return func(c *Client) {
		if runner != nil {
			c.runner = runner
		}
	}
}

// WithOutput forwards each output line of the converter.
func WithOutput(fn func(stream command.Stream, line string)) Option {
	return func(c *Client) {
		c.onLine = fn
	}
}

// Client runs the external converter.
type Client struct {
	settings Settings
	runner   command.Runner
	onLine   func(command.Stream, string)
}

var _ Converter = (*Client)(nil)

// New constructs a converter client. The argument template must reference
// both {src} and {dst}.
func New(settings Settings, opts ...Option) (*Client, error) {
	settings.Command = strings.TrimSpace(settings.Command)
	if settings.Command == "" {
		return nil, errors.New("converter command required")
	}
	if !containsPlaceholder(settings.Args, PlaceholderSrc) || !containsPlaceholder(settings.Args, PlaceholderDst) {
		return nil, fmt.Errorf("converter args must reference %s and %s", PlaceholderSrc, PlaceholderDst)
	}
	client := &Client{settings: settings, runner: command.ExecRunner{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// ZarrToHDF5 exports the Zarr store at path into an HDF5 file named after the
// store with its last extension dropped, then removes the store.
func (c *Client) ZarrToHDF5(ctx context.Context, path string) (string, error) {
	return c.convert(ctx, path, hdf5Destination(path), FormatZarr, FormatHDF5)
}

// HDF5ToZarr exports the HDF5 file at path into a Zarr store of the same
// name, then removes the file.
func (c *Client) HDF5ToZarr(ctx context.Context, path string) (string, error) {
	return c.convert(ctx, path, filepath.Clean(path), FormatHDF5, FormatZarr)
}

func hdf5Destination(path string) string {
	path = filepath.Clean(path)
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(filepath.Dir(path), stem)
}

func (c *Client) convert(ctx context.Context, src, dst string, from, to Format) (string, error) {
	src = filepath.Clean(src)
	operation := fmt.Sprintf("%s to %s", from, to)
	if _, err := os.Lstat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "convert", operation, filepath.Base(src), err)
		}
		return "", fmt.Errorf("stat %s: %w", src, err)
	}
	if dst != src {
		if _, err := os.Lstat(dst); err == nil {
			return "", fmt.Errorf("%w: %s", nwb.ErrNameCollision, filepath.Base(dst))
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", dst, err)
		}
	}

	partial := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+partialSuffix)
	if err := os.RemoveAll(partial); err != nil {
		return "", fmt.Errorf("clear stale output: %w", err)
	}

	_, err := c.runner.Run(ctx, command.Request{
		Binary:  c.settings.Command,
		Args:    c.expandArgs(src, partial, from, to),
		Timeout: c.settings.Timeout,
		OnLine:  c.onLine,
	})
	if err != nil {
		_ = os.RemoveAll(partial)
		return "", services.Wrap(nil, "convert", operation, filepath.Base(src), err)
	}
	if _, err := os.Lstat(partial); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "convert", operation, "converter produced no output for "+filepath.Base(src), err)
	}

	if err := os.RemoveAll(src); err != nil {
		return "", fmt.Errorf("remove source %s: %w", src, err)
	}
	if err := os.Rename(partial, dst); err != nil {
		return "", fmt.Errorf("move %s into place: %w", filepath.Base(dst), err)
	}
	return dst, nil
}

func (c *Client) expandArgs(src, dst string, from, to Format) []string {
	replacer := strings.NewReplacer(
		PlaceholderFrom, string(from),
		PlaceholderTo, string(to),
		PlaceholderSrc, src,
		PlaceholderDst, dst,
		PlaceholderScript, ExportScript,
	)
	args := make([]string, len(c.settings.Args))
	for i, arg := range c.settings.Args {
		args[i] = replacer.Replace(arg)
	}
	return args
}

func containsPlaceholder(args []string, placeholder string) bool {
	for _, arg := range args {
		if strings.Contains(arg, placeholder) {
			return true
		}
	}
	return false
}
