package release

import (
	"context"
	"fmt"

	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// Prepared bundles everything a run needs once configuration has been
// loaded, plugins instantiated, and the plan computed: the parsed
// configuration, the fully ordered plan, and the live plugin instances the
// runner will invoke.
type Prepared struct {
	Config  *release.Configuration
	Plan    *ports.Plan
	Plugins map[string]ports.Plugin
}

// PrepareUseCase loads configuration, instantiates the configured plugins,
// registers their declarations, and resolves + plans the run. It backs
// `release run`; `release validate` only calls ConfigLoader.Validate.
type PrepareUseCase struct {
	configLoader ports.ConfigLoader
	registry     ports.CapabilityRegistry
	factories    map[string]ports.Factory
	resolver     ports.Resolver
	planner      ports.Planner
	logger       ports.Logger
}

// NewPrepareUseCase constructs a PrepareUseCase.
func NewPrepareUseCase(
	configLoader ports.ConfigLoader,
	registry ports.CapabilityRegistry,
	factories map[string]ports.Factory,
	resolver ports.Resolver,
	planner ports.Planner,
	logger ports.Logger,
) *PrepareUseCase {
	return &PrepareUseCase{
		configLoader: configLoader,
		registry:     registry,
		factories:    factories,
		resolver:     resolver,
		planner:      planner,
		logger:       logger,
	}
}

// Prepare loads configPath end to end into a Prepared run.
func (u *PrepareUseCase) Prepare(ctx context.Context, configPath string) (*Prepared, error) {
	cfg, err := u.configLoader.Load(ctx, configPath)
	if err != nil {
		return nil, err
	}

	plugins := make(map[string]ports.Plugin, len(cfg.Plugins))
	for _, id := range cfg.PluginOrder {
		pc := cfg.Plugins[id]
		factory, ok := u.factories[pc.Location.Builtin]
		if !ok {
			return nil, release.NewConfigError("unknown plugin location", nil, map[string]interface{}{
				"plugin": string(id), "location": pc.Location.Builtin,
			})
		}
		instance, err := factory(id, pc.Location)
		if err != nil {
			return nil, release.NewConfigError("failed to construct plugin", err, map[string]interface{}{"plugin": string(id)})
		}
		if err := instance.Configure(pc.Config); err != nil {
			return nil, release.NewConfigError(fmt.Sprintf("plugin %s rejected its configuration", id), err, map[string]interface{}{
				"plugin": string(id),
			})
		}
		if err := u.registry.Register(instance.Declare()); err != nil {
			return nil, err
		}
		plugins[string(id)] = instance
	}

	resolved, rerr := u.resolver.Resolve(ctx, cfg, u.registry)
	if rerr != nil {
		return nil, rerr
	}

	plan, perr := u.planner.Plan(ctx, cfg, resolved, u.registry)
	if perr != nil {
		return nil, perr
	}

	u.logger.Info(ctx, "pipeline prepared", "plan_hash", plan.Hash, "plugins", len(plugins))
	return &Prepared{Config: cfg, Plan: plan, Plugins: plugins}, nil
}
