package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dandiprep/internal/deps"
	"dandiprep/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check external binaries and directory access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			statuses := preflight.CheckSystemDeps(cmd.Context(), cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				location := status.Path
				if !status.Available {
					location = status.Detail
				}
				rows = append(rows, []string{status.Name, status.Command, availabilityLabel(status.Available, colorize), location})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Command", "Available", "Location"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			inputDir := ""
			if inputPath != "" {
				inputDir = cfg.ResolveInput(inputPath)
			}
			checks := preflight.RunAll(cmd.Context(), cfg, inputDir)
			checkRows := make([][]string, 0, len(checks))
			for _, check := range checks {
				checkRows = append(checkRows, []string{check.Name, availabilityLabel(check.Passed, colorize), check.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Check", "Passed", "Detail"},
				checkRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return errors.New("required dependencies are missing")
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				return fmt.Errorf("%d preflight check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input_nwb_path", "", "Also check that this recording directory is readable")
	return cmd
}
