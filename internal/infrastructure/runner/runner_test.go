package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

type fakePlugin struct {
	outcome rplugin.Outcome
	err     error
	ran     bool
	setKey  release.KeyName
	setVal  release.Value
}

func (f *fakePlugin) Declare() rplugin.Declaration { return rplugin.Declaration{ID: "fake"} }
func (f *fakePlugin) Configure(map[string]interface{}) error { return nil }
func (f *fakePlugin) RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error) {
	f.ran = true
	if f.setKey != "" {
		store.Set(f.setKey, f.setVal)
	}
	return f.outcome, f.err
}

func planFor(steps map[release.Step][]string) *ports.Plan {
	order := make(map[release.Step][]string, len(release.Steps))
	for _, s := range release.Steps {
		order[s] = steps[s]
	}
	return &ports.Plan{Order: order, Hash: "testhash"}
}

func TestRunnerRunsPlannedPlugins(t *testing.T) {
	p := &fakePlugin{outcome: rplugin.OutcomeOk, setKey: "next_version", setVal: release.StringValue("1.2.0")}
	r := New(map[string]ports.Plugin{"fake": p})

	result, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepDeriveNextVersion: {"fake"},
	}), false)

	require.Nil(t, err)
	assert.Equal(t, release.RunCompleted, result.Status)
	assert.True(t, p.ran)
}

func TestRunnerSkipsEffectfulStepsUnderDryRun(t *testing.T) {
	p := &fakePlugin{outcome: rplugin.OutcomeOk}
	r := New(map[string]ports.Plugin{"fake": p})

	result, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepCommit: {"fake"},
	}), true)

	require.Nil(t, err)
	assert.False(t, p.ran)
	found := false
	for _, step := range result.Steps {
		if step.Step == release.StepCommit {
			found = true
			assert.True(t, step.Skipped)
		}
	}
	assert.True(t, found)
}

func TestRunnerFatalFailureAbortsAndUnwinds(t *testing.T) {
	reverted := false
	revertible := &revertiblePlugin{op: revertFunc(func() error { reverted = true; return nil })}
	failing := &fakePlugin{err: errors.New("boom")}

	r := New(map[string]ports.Plugin{"ok": revertible, "bad": failing})

	_, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepPrepare:       {"ok"},
		release.StepVerifyRelease: {"bad"},
	}), false)

	require.NotNil(t, err)
	assert.True(t, reverted)
}

func TestRunnerNotifyFailureIsNonFatal(t *testing.T) {
	failing := &fakePlugin{err: errors.New("webhook down")}
	r := New(map[string]ports.Plugin{"notify": failing})

	result, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepNotify: {"notify"},
	}), false)

	require.Nil(t, err)
	assert.Equal(t, release.RunCompleted, result.Status)
}

func TestRunnerGenerateNotesFailureIsNonFatal(t *testing.T) {
	failing := &fakePlugin{err: errors.New("changelog render failed")}
	r := New(map[string]ports.Plugin{"clog": failing})

	result, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepGenerateNotes: {"clog"},
	}), false)

	require.Nil(t, err)
	assert.Equal(t, release.RunCompleted, result.Status)
}

func TestRunnerFatalErrorOverridesNonFatalStep(t *testing.T) {
	failing := &fakePlugin{err: rplugin.Fatal(errors.New("webhook credentials rejected"))}
	r := New(map[string]ports.Plugin{"notify": failing})

	_, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepNotify: {"notify"},
	}), false)

	require.NotNil(t, err)
}

func TestRunnerUnwindsRollbacksOnCleanDryRunSuccess(t *testing.T) {
	reverted := false
	revertible := &revertiblePlugin{op: revertFunc(func() error { reverted = true; return nil })}
	r := New(map[string]ports.Plugin{"ok": revertible})

	result, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepPrepare: {"ok"},
	}), true)

	require.Nil(t, err)
	assert.Equal(t, release.RunCompleted, result.Status)
	assert.True(t, reverted)
}

func TestRunnerKeepsRollbacksOnCleanRealRunSuccess(t *testing.T) {
	reverted := false
	revertible := &revertiblePlugin{op: revertFunc(func() error { reverted = true; return nil })}
	r := New(map[string]ports.Plugin{"ok": revertible})

	result, err := r.Run(context.Background(), &release.Configuration{}, planFor(map[release.Step][]string{
		release.StepPrepare: {"ok"},
	}), false)

	require.Nil(t, err)
	assert.Equal(t, release.RunCompleted, result.Status)
	assert.False(t, reverted)
}

type revertFunc func() error

func (f revertFunc) Revert() error { return f() }

type revertiblePlugin struct {
	op release.RollbackOp
}

func (p *revertiblePlugin) Declare() rplugin.Declaration { return rplugin.Declaration{ID: "ok"} }
func (p *revertiblePlugin) Configure(map[string]interface{}) error { return nil }
func (p *revertiblePlugin) RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error) {
	store.RecordRollback("ok", p.op)
	return rplugin.OutcomeOk, nil
}
