package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/c360studio/checkup/override"
	"github.com/c360studio/checkup/registry"
)

func lintOverridesCmd(newApp func() (*appContext, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint-overrides [project-id]",
		Short: "Report override file hygiene problems",
		Long: `Reports duplicate, shadowed, or underdocumented override entries.
Warnings never change excusal behavior: the first matching entry always
wins. They exist so conflicting duplicates get cleaned up instead of
silently losing.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			var projects []*registry.Project
			if len(args) == 1 {
				p, err := app.registry.Get(args[0])
				if err != nil {
					return err
				}
				projects = []*registry.Project{p}
			} else {
				projects = app.registry.All()
			}

			total := 0
			for _, p := range projects {
				set, err := app.overrides.LoadOrCreate(p.Root)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", p.ID, err)
					continue
				}
				for _, w := range override.Lint(set) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", p.ID, w)
					total++
				}
			}

			if total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no override hygiene problems found")
			}
			return nil
		},
	}
	return cmd
}
