package release

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/infrastructure/logging"
	"github.com/release-kit/releaseflow/internal/infrastructure/planner"
	"github.com/release-kit/releaseflow/internal/infrastructure/registry"
	"github.com/release-kit/releaseflow/internal/infrastructure/resolver"
	"github.com/release-kit/releaseflow/internal/ports"
)

type fakeRunner struct {
	result *release.PipelineResult
	err    *release.Error
}

func (f *fakeRunner) Run(ctx context.Context, cfg *release.Configuration, plan *ports.Plan, dryRun bool) (*release.PipelineResult, *release.Error) {
	return f.result, f.err
}

func TestRunUseCaseRunPublishesLifecycleEvents(t *testing.T) {
	cfg := &release.Configuration{
		Plugins: map[rplugin.Id]release.PluginConfig{
			"git": {ID: "git", Location: rplugin.Location{Builtin: "git"}},
		},
		PluginOrder: []rplugin.Id{"git"},
		Steps: map[release.Step]release.StepBinding{
			release.StepGetLastRelease: {Kind: release.BindingSingleton, Singleton: "git"},
		},
	}
	factories := map[string]ports.Factory{
		"git": func(id rplugin.Id, loc rplugin.Location) (ports.Plugin, error) {
			return &stubPlugin{decl: rplugin.Declaration{
				ID:                    id,
				ProvisionCapabilities: []rplugin.Capability{rplugin.Capability(release.StepGetLastRelease)},
				ProvisionsKeys:        []string{"last_version"},
			}}, nil
		},
	}

	prepare := NewPrepareUseCase(&stubLoader{cfg: cfg}, registry.New(), factories, resolver.New(), planner.New(), logging.NewNoOpLogger())

	wantResult := &release.PipelineResult{Status: release.RunCompleted}
	factory := func(plugins map[string]ports.Plugin) ports.Runner {
		require.Contains(t, plugins, "git")
		return &fakeRunner{result: wantResult}
	}

	uc := NewRunUseCase(prepare, factory, nil, logging.NewNoOpLogger())

	got, err := uc.Run(context.Background(), "release.yaml", false)
	require.NoError(t, err)
	require.Same(t, wantResult, got)
}

func TestRunUseCaseSurfacesPrepareFailure(t *testing.T) {
	cfg := &release.Configuration{
		Plugins: map[rplugin.Id]release.PluginConfig{
			"git": {ID: "git", Location: rplugin.Location{Builtin: "nope"}},
		},
		PluginOrder: []rplugin.Id{"git"},
	}
	prepare := NewPrepareUseCase(&stubLoader{cfg: cfg}, registry.New(), map[string]ports.Factory{}, resolver.New(), planner.New(), logging.NewNoOpLogger())

	uc := NewRunUseCase(prepare, func(map[string]ports.Plugin) ports.Runner { t.Fatal("runner should not be built"); return nil }, nil, logging.NewNoOpLogger())

	_, err := uc.Run(context.Background(), "release.yaml", false)
	require.Error(t, err)
}
