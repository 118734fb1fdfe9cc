package runner

import (
	"context"
	"fmt"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/infrastructure/logging"
	"github.com/release-kit/releaseflow/internal/ports"
)

// nonFatalSteps lists the steps whose plugin failures are, by default,
// recorded but do not abort the run or trigger a rollback unwind: a failed
// changelog generation shouldn't block a release any more than a failed
// notification should unwind one that already committed and published
// successfully. A plugin can still force a fatal failure on either step by
// returning an error wrapped in rplugin.Fatal.
var nonFatalSteps = map[release.Step]bool{
	release.StepGenerateNotes: true,
	release.StepNotify:        true,
}

// isFatal reports whether err should abort the run: either the step isn't
// on the non-fatal list, or the plugin explicitly overrode that default.
func isFatal(step release.Step, err error) bool {
	return !nonFatalSteps[step] || rplugin.IsFatal(err)
}

// Runner implements the pipeline runner state machine: it walks the fixed
// step order, invokes each step's planned plugin instances against a shared
// state store, skips effectful steps under dry run, and unwinds recorded
// rollbacks when a fatal step fails.
type Runner struct {
	plugins map[string]ports.Plugin
	logger  ports.Logger
	events  ports.EventPublisher
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger injects a logger.
func WithLogger(logger ports.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithEvents injects an event publisher.
func WithEvents(events ports.EventPublisher) Option {
	return func(r *Runner) { r.events = events }
}

// New constructs a Runner over the given id→plugin-instance map, built by
// the CLI wiring from the configured plugin table.
func New(plugins map[string]ports.Plugin, opts ...Option) *Runner {
	r := &Runner{plugins: plugins, logger: logging.NewNoOpLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the plan's steps in the fixed pipeline order.
func (r *Runner) Run(ctx context.Context, cfg *release.Configuration, plan *ports.Plan, dryRun bool) (*release.PipelineResult, *release.Error) {
	store := release.NewStateStore()
	result := &release.PipelineResult{Status: release.RunCompleted, PlanHash: plan.Hash}

	r.publish(ctx, ports.EventPipelineStarted, map[string]interface{}{"dry_run": dryRun, "plan_hash": plan.Hash})

	for _, step := range release.Steps {
		if err := ctx.Err(); err != nil {
			result.Status = release.RunAborted
			r.unwind(ctx, store)
			r.publish(ctx, ports.EventPipelineAborted, map[string]interface{}{"reason": "cancelled"})
			return result, release.NewCancellationError("run cancelled", map[string]interface{}{"step": string(step)})
		}

		ids := plan.Order[step]
		if len(ids) == 0 {
			continue
		}

		if dryRun && step.IsEffectful() {
			result.Steps = append(result.Steps, release.StepReport{Step: step, Skipped: true})
			r.publish(ctx, ports.EventStepSkipped, map[string]interface{}{"step": string(step), "dry_run": true})
			r.logger.Info(ctx, "skipping effectful step under dry run", "step", string(step))
			continue
		}

		report := release.StepReport{Step: step}
		r.publish(ctx, ports.EventStepStarted, map[string]interface{}{"step": string(step), "plugins": ids})
		r.logger.Info(ctx, fmt.Sprintf("Running step '%s'", step), "step", string(step))

		var stepFatal *release.Error
		for _, id := range ids {
			plugin, ok := r.plugins[id]
			if !ok {
				stepFatal = release.NewPluginError("plugin instance not wired", nil, map[string]interface{}{
					"plugin": id, "step": string(step),
				})
				report.Invocations = append(report.Invocations, release.PluginInvocationResult{
					PluginID: rplugin.Id(id), Outcome: rplugin.OutcomeFailed, Err: stepFatal,
				})
				break
			}

			store.SetInvocationKey(step, id, idempotencyKey(plan.Hash, step, id))
			r.publish(ctx, ports.EventPluginInvoked, map[string]interface{}{"step": string(step), "plugin": id})
			r.logger.Info(ctx, fmt.Sprintf("Invoking plugin '%s'", id), "step", string(step), "plugin", id)

			outcome, err := plugin.RunStep(ctx, step, store)
			if err != nil {
				derr := toDomainError(err)
				report.Invocations = append(report.Invocations, release.PluginInvocationResult{
					PluginID: rplugin.Id(id), Outcome: rplugin.OutcomeFailed, Err: derr,
				})
				r.logger.Error(ctx, "plugin invocation failed", "step", string(step), "plugin", id, "error", err)
				if isFatal(step, err) {
					stepFatal = derr
					break
				}
				continue
			}
			report.Invocations = append(report.Invocations, release.PluginInvocationResult{
				PluginID: rplugin.Id(id), Outcome: outcome,
			})
		}

		result.Steps = append(result.Steps, report)

		if stepFatal != nil {
			result.Status = release.RunAborted
			r.publish(ctx, ports.EventStepFailed, map[string]interface{}{"step": string(step), "error": stepFatal.Error()})
			r.unwind(ctx, store)
			r.publish(ctx, ports.EventPipelineAborted, map[string]interface{}{"step": string(step), "error": stepFatal.Error()})
			return result, stepFatal
		}

		if report.Failed() {
			r.publish(ctx, ports.EventStepFailed, map[string]interface{}{"step": string(step)})
		} else {
			r.publish(ctx, ports.EventStepCompleted, map[string]interface{}{"step": string(step)})
		}
	}

	// A dry run never commits to anything real: every rollback token
	// recorded by a step that still executes during dry run (Prepare, for
	// instance) must be restored even on a clean finish, so no on-disk
	// mutation survives a dry run that reported success. Only a clean
	// real-mode success discards the recorded rollbacks instead.
	if dryRun {
		r.unwind(ctx, store)
	}

	r.publish(ctx, ports.EventPipelineCompleted, map[string]interface{}{"plan_hash": plan.Hash})
	return result, nil
}

func (r *Runner) unwind(ctx context.Context, store *release.StateStore) {
	for _, err := range store.UnwindRollbacks() {
		r.logger.Warn(ctx, "rollback operation failed", "error", err)
	}
}

func (r *Runner) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if r.events == nil {
		return
	}
	if err := r.events.Publish(ctx, pipelineEvent{eventType: eventType, payload: payload}); err != nil {
		r.logger.Warn(ctx, "failed to publish runner event", "event_type", eventType, "error", err)
	}
}

type pipelineEvent struct {
	eventType string
	payload   interface{}
}

func (e pipelineEvent) EventType() string    { return e.eventType }
func (e pipelineEvent) Payload() interface{} { return e.payload }

func toDomainError(err error) *release.Error {
	if derr, ok := err.(*release.Error); ok {
		return derr
	}
	return release.NewPluginError(err.Error(), err, nil)
}

func idempotencyKey(planHash string, step release.Step, pluginID string) string {
	return fmt.Sprintf("%s:%s:%s", planHash, step, pluginID)
}

var _ ports.Runner = (*Runner)(nil)
