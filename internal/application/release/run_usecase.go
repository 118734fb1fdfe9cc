package release

import (
	"context"

	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// RunnerFactory builds a Runner bound to the plugin instances a single
// prepared run constructed. A Runner can't be built once at startup because
// its plugin map only exists after PrepareUseCase.Prepare has run.
type RunnerFactory func(plugins map[string]ports.Plugin) ports.Runner

// RunUseCase drives a full pipeline execution: prepare, then hand the plan
// and live plugin instances to a freshly built runner.
type RunUseCase struct {
	prepare       *PrepareUseCase
	runnerFactory RunnerFactory
	events        ports.EventPublisher
	logger        ports.Logger
}

// NewRunUseCase constructs a RunUseCase.
func NewRunUseCase(prepare *PrepareUseCase, runnerFactory RunnerFactory, events ports.EventPublisher, logger ports.Logger) *RunUseCase {
	return &RunUseCase{prepare: prepare, runnerFactory: runnerFactory, events: events, logger: logger}
}

// Run prepares configPath and executes the resulting plan.
func (u *RunUseCase) Run(ctx context.Context, configPath string, dryRun bool) (*release.PipelineResult, error) {
	prepared, err := u.prepare.Prepare(ctx, configPath)
	if err != nil {
		publishEvent(ctx, u.events, u.logger, ports.EventPipelineAborted, map[string]interface{}{
			"phase": "prepare", "error": err.Error(),
		})
		return nil, err
	}

	publishEvent(ctx, u.events, u.logger, ports.EventPipelineStarted, map[string]interface{}{
		"dry_run": dryRun, "plan_hash": prepared.Plan.Hash,
	})

	runner := u.runnerFactory(prepared.Plugins)
	result, rerr := runner.Run(ctx, prepared.Config, prepared.Plan, dryRun)
	if rerr != nil {
		publishEvent(ctx, u.events, u.logger, ports.EventPipelineAborted, map[string]interface{}{
			"error": rerr.Error(),
		})
		return result, rerr
	}

	publishEvent(ctx, u.events, u.logger, ports.EventPipelineCompleted, map[string]interface{}{
		"plan_hash": result.PlanHash,
	})
	return result, nil
}
