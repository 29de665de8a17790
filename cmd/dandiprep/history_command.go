package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"dandiprep/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var runID string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.History.Enabled {
				return errors.New("run history is disabled (history.enabled = false)")
			}
			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			if runID != "" {
				run, err := store.GetRun(cmd.Context(), runID)
				if err != nil {
					return err
				}
				steps, err := store.Steps(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Run %s (dandiset %s): %s\n", run.ID, run.DandisetID, statusLabel(run.Status, colorize))
				if run.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", run.Error)
				}
				rows := make([][]string, 0, len(steps))
				for _, step := range steps {
					rows = append(rows, []string{step.Name, statusLabel(step.Status, colorize), formatDuration(step.FinishedAt.Sub(step.StartedAt)), step.Detail})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Step", "Status", "Duration", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.DandisetID,
					run.Filetype,
					run.SessionDate,
					statusLabel(run.Status, colorize),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					formatDuration(run.Duration()),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Dandiset", "Filetype", "Session", "Status", "Started", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d run(s) shown\n", len(runs))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the steps of a single run")
	return cmd
}
