package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "release",
		Short:         "release orchestrates a repository's release pipeline from a declarative plugin configuration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCmd(app))
	cmd.AddCommand(newValidateCmd(app))

	return cmd
}
