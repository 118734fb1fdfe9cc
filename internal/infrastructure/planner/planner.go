package planner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// Planner implements the dependency planner: it builds the provision/consume
// key graph across the resolved step→plugin lists, topologically sorts
// plugin instances within each step (cross-step order is already fixed by
// the nine steps themselves), and detects both cycles and keys consumed
// before anything provisions them.
type Planner struct{}

// New returns a Planner.
func New() *Planner {
	return &Planner{}
}

func (p *Planner) Plan(ctx context.Context, cfg *release.Configuration, resolved map[release.Step][]string, registry ports.CapabilityRegistry) (*ports.Plan, *release.Error) {
	// provisionedBy maps a key name to the plugin id that provisions it,
	// and provisionedAtStep to the index of the step it first becomes
	// available at, so a later consumer can be checked against it.
	provisionedBy := make(map[string]string)
	provisionedAtStep := make(map[string]int)

	for i, step := range release.Steps {
		for _, pluginID := range resolved[step] {
			decl, err := registry.Declaration(rplugin.Id(pluginID))
			if err != nil {
				return nil, release.NewPlanError("planned plugin is not registered", map[string]interface{}{
					"step": string(step), "plugin": pluginID,
				})
			}
			for _, key := range decl.ProvisionsKeys {
				if existing, ok := provisionedBy[key]; ok && existing != pluginID {
					return nil, release.NewPlanError("key provisioned by more than one plugin", map[string]interface{}{
						"key": key, "first_provider": existing, "second_provider": pluginID,
					})
				}
				provisionedBy[key] = pluginID
				if _, seen := provisionedAtStep[key]; !seen {
					provisionedAtStep[key] = i
				}
			}
		}
	}

	order := make(map[release.Step][]string, len(release.Steps))

	for i, step := range release.Steps {
		if err := ctx.Err(); err != nil {
			return nil, release.NewPlanError("planning cancelled", map[string]interface{}{"step": string(step)})
		}

		instances := resolved[step]
		if len(instances) == 0 {
			order[step] = nil
			continue
		}

		// Validate cross-step availability: every consumed key must be
		// provisioned at this step or an earlier one.
		declByID := make(map[string]bool, len(instances))
		for _, id := range instances {
			declByID[id] = true
		}
		for _, pluginID := range instances {
			decl, _ := registry.Declaration(rplugin.Id(pluginID))
			for _, key := range decl.ConsumesKeys {
				providerStep, ok := provisionedAtStep[key]
				if !ok {
					return nil, release.NewPlanError("consumed key is never provisioned", map[string]interface{}{
						"key": key, "step": string(step), "plugin": pluginID,
					})
				}
				if providerStep > i {
					return nil, release.NewPlanError("consumed key is provisioned by a later step", map[string]interface{}{
						"key": key, "consuming_step": string(step), "provider_step": string(release.Steps[providerStep]),
					})
				}
			}
		}

		sorted, perr := topoSortStep(instances, registry, provisionedBy, declByID)
		if perr != nil {
			return nil, release.NewPlanError("circular dependency within step", map[string]interface{}{
				"step": string(step), "cycle": perr.Error(),
			})
		}
		order[step] = sorted
	}

	hash := fingerprint(cfg, order)
	return &ports.Plan{Order: order, Hash: hash}, nil
}

// topoSortStep orders the plugin instances bound to a single step so that,
// for any two instances in the same step where one consumes a key the other
// provisions, the provisioner runs first. Kahn's algorithm; ties are broken
// by each instance's position in instances (the resolver's baseline order —
// the Shared binding's configured order, or discover order), not by id, so
// an unrelated pair of plugins keeps the order the configuration implied.
func topoSortStep(instances []string, registry ports.CapabilityRegistry, provisionedBy map[string]string, inStep map[string]bool) ([]string, *cycleErr) {
	position := make(map[string]int, len(instances))
	for i, id := range instances {
		position[id] = i
	}
	byPosition := func(ids []string) {
		sort.Slice(ids, func(i, j int) bool { return position[ids[i]] < position[ids[j]] })
	}

	indegree := make(map[string]int, len(instances))
	adjacency := make(map[string][]string, len(instances))
	for _, id := range instances {
		indegree[id] = 0
	}
	for _, id := range instances {
		decl, _ := registry.Declaration(rplugin.Id(id))
		for _, key := range decl.ConsumesKeys {
			provider, ok := provisionedBy[key]
			if !ok || !inStep[provider] || provider == id {
				continue
			}
			adjacency[provider] = append(adjacency[provider], id)
			indegree[id]++
		}
	}

	var queue []string
	for _, id := range instances {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	byPosition(queue)

	var out []string
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, cur)

		next := adjacency[cur]
		byPosition(next)
		for _, n := range next {
			indegree[n]--
			if indegree[n] == 0 {
				queue = append(queue, n)
				byPosition(queue)
			}
		}
	}

	if len(out) != len(instances) {
		return nil, &cycleErr{msg: "cycle detected among plugins bound to the same step"}
	}
	return out, nil
}

type cycleErr struct{ msg string }

func (e *cycleErr) Error() string { return e.msg }

// fingerprint computes a stable hash over the resolved plan and the
// configuration's plugin set, surfaced on the terminal result for audit
// logging.
func fingerprint(cfg *release.Configuration, order map[release.Step][]string) string {
	h := sha256.New()
	h.Write([]byte(strings.Join(cfg.SortedPluginIDs(), ",")))
	for _, step := range release.Steps {
		h.Write([]byte("|"))
		h.Write([]byte(step))
		h.Write([]byte(":"))
		h.Write([]byte(strings.Join(order[step], ",")))
	}
	return hex.EncodeToString(h.Sum(nil))
}

var _ ports.Planner = (*Planner)(nil)
