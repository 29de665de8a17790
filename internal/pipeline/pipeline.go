package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"dandiprep/internal/config"
	"dandiprep/internal/history"
	"dandiprep/internal/logging"
	"dandiprep/internal/services/command"
	"dandiprep/internal/services/dandi"
	"dandiprep/internal/services/nwbconvert"
)

// Dandi is the subset of the dandi client the pipeline drives.
type Dandi interface {
	Download(ctx context.Context, dandisetID, outputDir string) (command.Result, error)
	Organize(ctx context.Context, dandisetDir string) (command.Result, error)
	Upload(ctx context.Context, dandisetDir string) (command.Result, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithDandi injects the dandi client (primarily for tests).
func WithDandi(client Dandi) Option {
	return func(p *Pipeline) {
		if client != nil {
			p.dandi = client
		}
	}
}

// WithConverter injects the container converter (primarily for tests).
func WithConverter(converter nwbconvert.Converter) Option {
	return func(p *Pipeline) {
		if converter != nil {
			p.converter = converter
		}
	}
}

// WithHistory records runs and steps in store. The pipeline does not close it.
func WithHistory(store *history.Store) Option {
	return func(p *Pipeline) {
		p.store = store
	}
}

// WithRunner routes every external invocation through runner.
func WithRunner(runner command.Runner) Option {
	return func(p *Pipeline) {
		p.runner = runner
	}
}

// Pipeline runs the dandiprep workflow against one configuration.
type Pipeline struct {
	cfg       *config.Config
	logger    *slog.Logger
	dandi     Dandi
	converter nwbconvert.Converter
	store     *history.Store
	runner    command.Runner
}

// New constructs a pipeline. Clients not injected through options are built
// from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires configuration")
	}
	p := &Pipeline{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.dandi == nil {
		download, organize, upload := cfg.DandiTimeouts()
		client, err := dandi.New(dandi.Settings{
			Binary:          cfg.Dandi.Binary,
			FilesMode:       cfg.Dandi.FilesMode,
			APIKey:          cfg.Dandi.APIKey,
			DownloadTimeout: download,
			OrganizeTimeout: organize,
			UploadTimeout:   upload,
		}, dandi.WithRunner(p.runner), dandi.WithOutput(outputLogger(logger, "dandi")))
		if err != nil {
			return nil, err
		}
		p.dandi = client
	}
	if p.converter == nil {
		converter, err := nwbconvert.New(nwbconvert.Settings{
			Command: cfg.Convert.Command,
			Args:    cfg.Convert.Args,
			Timeout: cfg.ConvertTimeout(),
		}, nwbconvert.WithRunner(p.runner), nwbconvert.WithOutput(outputLogger(logger, "converter")))
		if err != nil {
			return nil, err
		}
		p.converter = converter
	}
	return p, nil
}

// outputLogger forwards child process output at debug level.
func outputLogger(logger *slog.Logger, component string) func(command.Stream, string) {
	componentLogger := logging.NewComponentLogger(logger, component)
	return func(stream command.Stream, line string) {
		componentLogger.Debug(line, logging.String("stream", string(stream)))
	}
}
