package release

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/infrastructure/logging"
	"github.com/release-kit/releaseflow/internal/infrastructure/planner"
	"github.com/release-kit/releaseflow/internal/infrastructure/registry"
	"github.com/release-kit/releaseflow/internal/infrastructure/resolver"
	"github.com/release-kit/releaseflow/internal/ports"
)

type stubLoader struct {
	cfg *release.Configuration
}

func (s *stubLoader) Load(ctx context.Context, path string) (*release.Configuration, error) {
	return s.cfg, nil
}
func (s *stubLoader) Validate(ctx context.Context, path string) error { return nil }

type stubPlugin struct {
	decl rplugin.Declaration
}

func (p *stubPlugin) Declare() rplugin.Declaration                  { return p.decl }
func (p *stubPlugin) Configure(map[string]interface{}) error        { return nil }
func (p *stubPlugin) RunStep(context.Context, release.Step, *release.StateStore) (rplugin.Outcome, error) {
	return rplugin.OutcomeOk, nil
}

func TestPrepareUseCasePreparesPlan(t *testing.T) {
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

	uc := NewPrepareUseCase(&stubLoader{cfg: cfg}, registry.New(), factories, resolver.New(), planner.New(), logging.NewNoOpLogger())

	prepared, err := uc.Prepare(context.Background(), "release.yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"git"}, prepared.Plan.Order[release.StepGetLastRelease])
	assert.Contains(t, prepared.Plugins, "git")
}

func TestPrepareUseCaseRejectsUnknownLocation(t *testing.T) {
	cfg := &release.Configuration{
		Plugins: map[rplugin.Id]release.PluginConfig{
			"git": {ID: "git", Location: rplugin.Location{Builtin: "nope"}},
		},
		PluginOrder: []rplugin.Id{"git"},
	}
	uc := NewPrepareUseCase(&stubLoader{cfg: cfg}, registry.New(), map[string]ports.Factory{}, resolver.New(), planner.New(), logging.NewNoOpLogger())

	_, err := uc.Prepare(context.Background(), "release.yaml")
	require.Error(t, err)
}
