package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/checkup/report"
)

func checkCmd(newApp func() (*appContext, error)) *cobra.Command {
	var (
		format    string
		threshold float64
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check one file against the rule catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = app.config.Scoring.Threshold
			}

			r, err := app.engine.Check(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if err := report.RenderChecklist(cmd.OutOrStdout(), r, f, threshold, verbose); err != nil {
				return err
			}
			if !r.Passed(threshold) {
				os.Exit(exitFail)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "Passing score threshold (default from config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show passing check items too")
	return cmd
}
