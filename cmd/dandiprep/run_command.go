package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"dandiprep/internal/history"
	"dandiprep/internal/logging"
	"dandiprep/internal/pipeline"
	"dandiprep/internal/services/nwbconvert"
)

type runFlags struct {
	dandisetID string
	rawMovies  string
	inputPath  string
	filetype   string
	bestEffort bool
	preflight  bool
	logLevel   string
}

func (f runFlags) options() (pipeline.Options, error) {
	format, err := nwbconvert.ParseFormat(f.filetype)
	if err != nil {
		return pipeline.Options{}, err
	}
	switch strings.ToLower(strings.TrimSpace(f.logLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		return pipeline.Options{}, fmt.Errorf("--log-level %q must be one of debug, info, warn, error", f.logLevel)
	}
	return pipeline.Options{
		DandisetID: strings.TrimSpace(f.dandisetID),
		RawMovies:  f.rawMovies,
		InputPath:  f.inputPath,
		Filetype:   format,
		BestEffort: f.bestEffort,
		Preflight:  f.preflight,
	}, nil
}

func runPipeline(cmd *cobra.Command, ctx *commandContext, flags runFlags) error {
	opts, err := flags.options()
	if err != nil {
		return err
	}
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg, flags.logLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	var pipelineOpts []pipeline.Option
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()
		pipelineOpts = append(pipelineOpts, pipeline.WithHistory(store))
	}

	p, err := pipeline.New(cfg, logger, pipelineOpts...)
	if err != nil {
		return err
	}

	base := cmd.Context()
	if base == nil {
		base = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	summary, runErr := p.Run(signalCtx, opts)
	if summary != nil && summary.RunID != "" {
		fmt.Fprintln(cmd.OutOrStdout(), renderSummary(summary, shouldColorize(cmd.OutOrStdout())))
	}
	return runErr
}
