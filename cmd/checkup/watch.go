package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/checkup/report"
	"github.com/c360studio/checkup/watch"
)

func watchCmd(newApp func() (*appContext, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <project-id>",
		Short: "Re-check files in a project as they change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			project, err := app.registry.Get(args[0])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := watch.New(app.engine, app.overrides, watch.Config{
				Project: project,
				Include: app.config.Audit.Include,
				Ignore:  app.config.Audit.Ignore,
				Logger:  app.logger,
			})
			if err != nil {
				return err
			}
			if err := w.Start(ctx); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (%s)\n", project.ID, project.Root)
			threshold := app.config.Scoring.Threshold
			for result := range w.Results() {
				if result.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", result.Path, result.Err)
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), report.Summarize(result.Report, threshold))
			}
			return nil
		},
	}
	return cmd
}
