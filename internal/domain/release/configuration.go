package release

import (
	"sort"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
)

// PluginConfig is one entry of the configuration's plugin table: an instance
// id, where its implementation comes from, and its configuration table.
type PluginConfig struct {
	ID       rplugin.Id
	Location rplugin.Location
	Config   map[string]interface{}
}

// Configuration is the fully parsed, semantically validated pipeline
// configuration: the plugin table, the per-step bindings, and any
// repository-level settings plugins read but the core never interprets.
type Configuration struct {
	RepoPath string
	Plugins  map[rplugin.Id]PluginConfig
	// PluginOrder lists the configured plugin ids in the order they appear
	// in the plugins table. Discover bindings resolve providers in this
	// order (spec'd as table order, not registration or lexical order), so
	// callers that build Plugins from an ordered source must populate this
	// alongside it.
	PluginOrder []rplugin.Id
	Steps       map[Step]StepBinding
}

// Validate performs the semantic checks that remain after structural
// (struct-tag) validation: every referenced plugin id exists in the plugin
// table, every step name is one of the nine fixed steps, and singleton-only
// steps never carry a Shared or Discover binding.
func (c *Configuration) Validate() *Error {
	for step, binding := range c.Steps {
		if !step.Valid() {
			return NewConfigError("unknown step name", nil, map[string]interface{}{"step": string(step)})
		}
		if step.RequiresSingleton() && binding.Kind != BindingSingleton {
			return NewConfigError("step requires a singleton binding", nil, map[string]interface{}{
				"step":    string(step),
				"binding": string(binding.Kind),
			})
		}
		switch binding.Kind {
		case BindingSingleton:
			if binding.Singleton == "" {
				return NewConfigError("singleton binding missing plugin id", nil, map[string]interface{}{"step": string(step)})
			}
			if _, ok := c.Plugins[binding.Singleton]; !ok {
				return NewConfigError("singleton binding references unknown plugin", nil, map[string]interface{}{
					"step": string(step), "plugin": string(binding.Singleton),
				})
			}
		case BindingShared:
			if len(binding.Shared) == 0 {
				return NewConfigError("shared binding must list at least one plugin", nil, map[string]interface{}{"step": string(step)})
			}
			for _, id := range binding.Shared {
				if _, ok := c.Plugins[id]; !ok {
					return NewConfigError("shared binding references unknown plugin", nil, map[string]interface{}{
						"step": string(step), "plugin": string(id),
					})
				}
			}
		case BindingDiscover:
			// resolved later against the capability registry; nothing to
			// check structurally beyond the binding kind itself.
		default:
			return NewConfigError("unknown step binding kind", nil, map[string]interface{}{
				"step": string(step), "kind": string(binding.Kind),
			})
		}
	}
	return nil
}

// SortedPluginIDs returns the configured plugin ids in deterministic order,
// used for plan-hash computation and diagnostic listings.
func (c *Configuration) SortedPluginIDs() []string {
	ids := make([]string, 0, len(c.Plugins))
	for id := range c.Plugins {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return ids
}
