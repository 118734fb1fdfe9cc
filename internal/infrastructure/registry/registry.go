package registry

import (
	"sort"
	"sync"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// Registry implements ports.CapabilityRegistry with an in-memory map keyed
// by plugin id, plus a reverse index from capability to providers.
type Registry struct {
	mu           sync.RWMutex
	declarations map[rplugin.Id]rplugin.Declaration
	providers    map[rplugin.Capability][]rplugin.Id
}

// New creates an empty capability registry.
func New() *Registry {
	return &Registry{
		declarations: make(map[rplugin.Id]rplugin.Declaration),
		providers:    make(map[rplugin.Capability][]rplugin.Id),
	}
}

// Register records one plugin instance's declared capabilities.
func (r *Registry) Register(decl rplugin.Declaration) error {
	if err := decl.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.declarations[decl.ID]; exists {
		return &release.Error{
			Code:    release.ErrCodeResolution,
			Message: "duplicate plugin id",
			Context: map[string]interface{}{"plugin_id": string(decl.ID)},
		}
	}
	r.declarations[decl.ID] = decl
	for _, cap := range decl.ProvisionCapabilities {
		r.providers[cap] = append(r.providers[cap], decl.ID)
	}
	return nil
}

// ProvidersOf returns every plugin id that provisions cap, in registration
// order.
func (r *Registry) ProvidersOf(cap rplugin.Capability) []rplugin.Id {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.providers[cap]
	out := make([]rplugin.Id, len(ids))
	copy(out, ids)
	return out
}

// RequirementsOf returns the capabilities id requires.
func (r *Registry) RequirementsOf(id rplugin.Id) ([]rplugin.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, ok := r.declarations[id]
	if !ok {
		return nil, &release.Error{
			Code:    release.ErrCodeNotFound,
			Message: "plugin not registered",
			Context: map[string]interface{}{"plugin_id": string(id)},
		}
	}
	return decl.RequiredCapabilities, nil
}

// Declaration returns the full declaration for id.
func (r *Registry) Declaration(id rplugin.Id) (rplugin.Declaration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	decl, ok := r.declarations[id]
	if !ok {
		return rplugin.Declaration{}, &release.Error{
			Code:    release.ErrCodeNotFound,
			Message: "plugin not registered",
			Context: map[string]interface{}{"plugin_id": string(id)},
		}
	}
	return decl, nil
}

// All returns every registered declaration sorted by plugin id.
func (r *Registry) All() []rplugin.Declaration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.declarations))
	for id := range r.declarations {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	out := make([]rplugin.Declaration, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.declarations[rplugin.Id(id)])
	}
	return out
}

var _ ports.CapabilityRegistry = (*Registry)(nil)
