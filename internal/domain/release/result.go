package release

import rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"

// RunStatus is the terminal classification of a full pipeline run.
type RunStatus string

const (
	RunCompleted RunStatus = "completed"
	RunAborted   RunStatus = "aborted"
)

// PluginInvocationResult captures the outcome of a single plugin's
// run_step call within a step.
type PluginInvocationResult struct {
	PluginID rplugin.Id
	Outcome  rplugin.Outcome
	Err      *Error
}

// StepReport summarizes one step's execution: which plugins ran, their
// individual outcomes, and whether the step as a whole was skipped (dry
// run).
type StepReport struct {
	Step        Step
	Skipped     bool
	Invocations []PluginInvocationResult
}

// Failed reports whether any plugin invocation in this step failed.
func (r StepReport) Failed() bool {
	for _, inv := range r.Invocations {
		if inv.Outcome == rplugin.OutcomeFailed {
			return true
		}
	}
	return false
}

// PipelineResult is the final report returned by the Pipeline Runner.
type PipelineResult struct {
	Status   RunStatus
	Steps    []StepReport
	PlanHash string
}
