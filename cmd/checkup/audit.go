package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/checkup/audit"
	"github.com/c360studio/checkup/report"
)

func auditCmd(newApp func() (*appContext, error)) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "audit [project-id]",
		Short: "Audit a whole project, or all registered projects",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}

			projectID := ""
			if len(args) == 1 {
				projectID = args[0]
			}

			auditor := audit.New(app.engine, app.registry, app.overrides, audit.Options{
				Include:   app.config.Audit.Include,
				Ignore:    app.config.Audit.Ignore,
				Workers:   app.config.Audit.Workers,
				Threshold: app.config.Scoring.Threshold,
				Logger:    app.logger,
				Metrics:   app.metrics,
			})

			r, err := auditor.Audit(cmd.Context(), projectID)
			if err != nil {
				return err
			}

			if err := report.RenderAudit(cmd.OutOrStdout(), r, f); err != nil {
				return err
			}
			if !r.Passed() {
				os.Exit(exitFail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	return cmd
}
