package dandi

import (
	"context"
	"errors"
	"strings"
	"time"

	"dandiprep/internal/services"
	"dandiprep/internal/services/command"
)

// MetadataFile is the only asset requested from the archive during download.
const MetadataFile = "dandiset.yaml"

// APIKeyEnv is the environment variable the dandi client reads credentials from.
const APIKeyEnv = "DANDI_API_KEY"

// Settings configures a Client.
type Settings struct {
	Binary          string
	FilesMode       string
	APIKey          string
	DownloadTimeout time.Duration
	OrganizeTimeout time.Duration
	UploadTimeout   time.Duration
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

// WithOutput forwards each output line of the child process.
func WithOutput(fn func(stream command.Stream, line string)) Option {
	return func(c *Client) {
		c.onLine = fn
	}
}

// Client runs dandi subcommands.
type Client struct {
	settings Settings
	runner   command.Runner
	onLine   func(command.Stream, string)
}

// New constructs a dandi client.
func New(settings Settings, opts ...Option) (*Client, error) {
	settings.Binary = strings.TrimSpace(settings.Binary)
	if settings.Binary == "" {
		return nil, errors.New("dandi binary required")
	}
	if strings.TrimSpace(settings.FilesMode) == "" {
		settings.FilesMode = "move"
	}
	client := &Client{settings: settings, runner: command.ExecRunner{}}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Download fetches the dandiset metadata file into outputDir. On success the
// archive client creates outputDir/<dandisetID>.
func (c *Client) Download(ctx context.Context, dandisetID, outputDir string) (command.Result, error) {
	dandisetID = strings.TrimSpace(dandisetID)
	if dandisetID == "" {
		return command.Result{}, services.Wrap(services.ErrValidation, "download", "dandi download", "dandiset id required", nil)
	}
	args := []string{"download", "DANDI:" + dandisetID, "--download", MetadataFile, "--output-dir", outputDir}
	return c.run(ctx, "download", args, "", c.settings.DownloadTimeout)
}

// Organize renames and moves the recordings in dandisetDir into the archive layout.
func (c *Client) Organize(ctx context.Context, dandisetDir string) (command.Result, error) {
	args := []string{"organize", "--files-mode", c.settings.FilesMode, "--dandiset-path", dandisetDir}
	return c.run(ctx, "organize", args, "", c.settings.OrganizeTimeout)
}

// Upload publishes dandisetDir. The client discovers the dandiset from its
// working directory.
func (c *Client) Upload(ctx context.Context, dandisetDir string) (command.Result, error) {
	return c.run(ctx, "upload", []string{"upload"}, dandisetDir, c.settings.UploadTimeout)
}

func (c *Client) run(ctx context.Context, step string, args []string, dir string, timeout time.Duration) (command.Result, error) {
	req := command.Request{
		Binary:  c.settings.Binary,
		Args:    args,
		Dir:     dir,
		Timeout: timeout,
		OnLine:  c.onLine,
	}
	if key := strings.TrimSpace(c.settings.APIKey); key != "" {
		req.Env = []string{APIKeyEnv + "=" + key}
	}
	result, err := c.runner.Run(ctx, req)
	if err != nil {
		var exitErr *command.ExitError
		if errors.As(err, &exitErr) || errors.Is(err, services.ErrTimeout) || errors.Is(err, services.ErrExternalTool) {
			return result, services.Wrap(nil, step, "dandi "+step, "", err)
		}
		return result, err
	}
	return result, nil
}
