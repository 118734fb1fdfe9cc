package ports

import (
	"context"

	release "github.com/release-kit/releaseflow/internal/domain/release"
)

// Resolver implements the Step/Plugin Resolver algorithm: for each fixed
// step, it consults the configuration's bindings and the capability
// registry to produce the ordered list of plugin instances that will run
// that step.
type Resolver interface {
	Resolve(ctx context.Context, cfg *release.Configuration, registry CapabilityRegistry) (map[release.Step][]string, *release.Error)
}

// Planner implements the Dependency Planner algorithm: given the resolver's
// per-step plugin lists, it builds the provision/consume graph, checks that
// every consumed key is provisioned at or before the consuming step,
// topologically sorts plugin instances within each step, and detects cycles.
type Planner interface {
	Plan(ctx context.Context, cfg *release.Configuration, resolved map[release.Step][]string, registry CapabilityRegistry) (*Plan, *release.Error)
}

// Plan is the ordered, validated execution plan the runner steps through.
type Plan struct {
	// Order lists, per fixed step in pipeline order, the plugin instance
	// ids that run during that step, already sorted to respect
	// provision/consume dependencies within the step.
	Order map[release.Step][]string
	// Hash is a stable fingerprint of the resolved plan plus the sorted
	// configured plugin ids, surfaced on the terminal PipelineResult for
	// audit logging.
	Hash string
}

// Runner implements the Pipeline Runner state machine: it walks Steps in
// fixed order, invokes each step's planned plugins against the shared
// StateStore, honors dry-run skip semantics, and unwinds rollbacks on fatal
// failure.
type Runner interface {
	Run(ctx context.Context, cfg *release.Configuration, plan *Plan, dryRun bool) (*release.PipelineResult, *release.Error)
}
