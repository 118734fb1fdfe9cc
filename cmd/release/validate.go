package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newValidateCmd(app *AppContext) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a release pipeline configuration without running it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := app.ConfigLoader.Validate(ctx, configPath); err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, "configuration is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "release.yaml", "Path to the release pipeline configuration")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}
