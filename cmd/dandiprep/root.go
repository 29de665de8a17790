package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var opts runFlags

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:   "dandiprep",
		Short: "Stage, convert, rename, and upload NWB recordings to DANDI",
		Long: "dandiprep clears the scratch tree, downloads the dandiset metadata, copies the input\n" +
			"recordings into place, converts them to the requested container format, runs\n" +
			"dandi organize, inserts the session field into each organized file name, and\n" +
			"uploads the dandiset.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, ctx, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	flags := rootCmd.Flags()
	flags.StringVar(&opts.dandisetID, "dandiset_id", "", "DANDI dandiset identifier, e.g. 000123")
	flags.StringVar(&opts.rawMovies, "raw_movies", "", `"True" appends -raw-movies to the session field`)
	flags.StringVar(&opts.inputPath, "input_nwb_path", "nwb", "Recording directory, relative to paths.input_root unless absolute")
	flags.StringVar(&opts.filetype, "filetype", "hdf5", "Target container format: hdf5 or zarr")
	flags.BoolVar(&opts.bestEffort, "best-effort", false, "Continue past failing dandi calls")
	flags.BoolVar(&opts.preflight, "preflight", false, "Check binaries and directory access before clearing scratch")
	flags.StringVar(&opts.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("dandiset_id")
	_ = rootCmd.MarkFlagRequired("raw_movies")

	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
