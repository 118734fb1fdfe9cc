package resolver

import (
	"context"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// stepCapability is the capability name a plugin must provision in order to
// be discoverable for step: discover bindings look up providers of this
// capability in the registry rather than a capability dreamt up by the
// configuration author, keeping step→plugin discovery unambiguous.
func stepCapability(step release.Step) rplugin.Capability {
	return rplugin.Capability(string(step))
}

// Resolver implements the step/plugin resolution algorithm: for each fixed
// step it turns the configured StepBinding into a concrete, ordered list of
// plugin instance ids.
type Resolver struct{}

// New returns a Resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve walks the nine fixed steps in order and determines, for each, the
// plugin instances bound to it.
func (r *Resolver) Resolve(ctx context.Context, cfg *release.Configuration, registry ports.CapabilityRegistry) (map[release.Step][]string, *release.Error) {
	resolved := make(map[release.Step][]string, len(release.Steps))

	for _, step := range release.Steps {
		if err := ctx.Err(); err != nil {
			return nil, release.NewCancellationError("resolution cancelled", map[string]interface{}{"step": string(step)})
		}

		binding, configured := cfg.Steps[step]
		if !configured {
			// An omitted step defaults to Discover, unless the step only
			// ever accepts a Singleton binding (in which case there is no
			// plugin id to guess, so it stays unbound).
			if step.RequiresSingleton() {
				resolved[step] = nil
				continue
			}
			binding = release.StepBinding{Kind: release.BindingDiscover}
		}

		switch binding.Kind {
		case release.BindingSingleton:
			if rerr := requireCapability(registry, binding.Singleton, step); rerr != nil {
				return nil, rerr
			}
			resolved[step] = []string{string(binding.Singleton)}

		case release.BindingShared:
			ids := make([]string, len(binding.Shared))
			for i, id := range binding.Shared {
				if rerr := requireCapability(registry, id, step); rerr != nil {
					return nil, rerr
				}
				ids[i] = string(id)
			}
			resolved[step] = ids

		case release.BindingDiscover:
			if step.RequiresSingleton() {
				return nil, release.NewResolutionError("step requires a singleton binding, discover is not allowed", map[string]interface{}{
					"step": string(step),
				})
			}
			// ProvidersOf reports providers in registration order, which
			// the application layer registers in plugins-table order; that
			// is the order spec'd for discover resolution, so it is taken
			// as-is rather than re-sorted lexically.
			providers := registry.ProvidersOf(stepCapability(step))
			ids := make([]string, len(providers))
			for i, id := range providers {
				ids[i] = string(id)
			}
			resolved[step] = ids

		default:
			return nil, release.NewResolutionError("unknown step binding kind", map[string]interface{}{
				"step": string(step), "kind": string(binding.Kind),
			})
		}
	}

	return resolved, nil
}

// requireCapability fails resolution with a PluginMissingCapability-shaped
// ResolutionError if id is not registered, or is registered but never
// declared that it provisions step's capability.
func requireCapability(registry ports.CapabilityRegistry, id rplugin.Id, step release.Step) *release.Error {
	decl, err := registry.Declaration(id)
	if err != nil {
		return release.NewResolutionError("step bound to an unregistered plugin", map[string]interface{}{
			"plugin": string(id), "step": string(step),
		})
	}
	want := stepCapability(step)
	for _, c := range decl.ProvisionCapabilities {
		if c == want {
			return nil
		}
	}
	return release.NewResolutionError("plugin does not implement step", map[string]interface{}{
		"reason": "PluginMissingCapability", "plugin": string(id), "step": string(step),
	})
}

var _ ports.Resolver = (*Resolver)(nil)
