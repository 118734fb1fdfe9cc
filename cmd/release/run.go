package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	release "github.com/release-kit/releaseflow/internal/domain/release"
)

func newRunCmd(app *AppContext) *cobra.Command {
	var configPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute the release pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			result, err := app.RunUseCase.Run(ctx, configPath, dryRun)
			if result != nil {
				fmt.Fprintln(os.Stdout, renderSummary(result))
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "release.yaml", "Path to the release pipeline configuration")
	cmd.Flags().BoolVar(&dryRun, "dry", false, "Preview the plan without invoking effectful steps")

	return cmd
}

// exitCodeFor maps the error taxonomy in release.Error onto the process exit
// codes the pipeline contract publishes.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	derr, ok := err.(*release.Error)
	if !ok {
		return 1
	}
	switch derr.Code {
	case release.ErrCodeConfig:
		return 2
	case release.ErrCodeResolution:
		return 3
	case release.ErrCodePlan:
		return 4
	case release.ErrCodeCancellation:
		return 130
	default:
		return 1
	}
}
