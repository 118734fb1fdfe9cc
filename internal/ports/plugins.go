package ports

import (
	"context"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
)

// Plugin is the contract every builtin release plugin implements. The
// capability registry and resolver operate purely on the static facts
// Declare() reports; RunStep is only ever invoked for a step the resolver
// has already bound this plugin instance to.
type Plugin interface {
	// Declare returns this instance's identity and the capabilities it
	// provisions and requires.
	Declare() rplugin.Declaration

	// Configure validates and stores this instance's configuration table.
	// Any returned error, a *rplugin.BadConfig included, makes
	// PrepareUseCase.Prepare fail with a release.ErrCodeConfig before
	// resolution and before any step runs.
	Configure(cfg map[string]interface{}) error

	// RunStep executes this plugin's contribution to step against the
	// shared state store. Implementations read required keys via
	// store.Get and write provisioned keys via store.Set; dry-run skip
	// decisions are made by the runner before RunStep is called, so a
	// plugin bound to an effectful step is never invoked during a dry run.
	RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error)
}

// Factory constructs a Plugin instance from its id and location; its config
// table is passed separately through Configure. Builtin plugins register a Factory under their
// location name at process startup (see cmd/release/plugins_import.go).
type Factory func(id rplugin.Id, loc rplugin.Location) (Plugin, error)
