package cargo

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
)

func writeManifest(t *testing.T, dir, version string) string {
	t.Helper()
	path := filepath.Join(dir, "Cargo.toml")
	contents := "[package]\nname = \"widget\"\nversion = \"" + version + "\"\nedition = \"2021\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestPrepareBumpsManifestVersion(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, "0.1.0")

	p := &Plugin{id: "rust", manifestPath: manifest}
	store := release.NewStateStore()
	store.Set("next_version", release.SemverValue(release.SemverTriple{Major: 0, Minor: 2, Patch: 0}))

	outcome, err := p.RunStep(context.Background(), release.StepPrepare, store)
	require.NoError(t, err)
	require.Equal(t, rplugin.OutcomeOk, outcome)

	contents, err := os.ReadFile(manifest)
	require.NoError(t, err)
	require.Contains(t, string(contents), `version = "0.2.0"`)
	require.Contains(t, string(contents), `name = "widget"`)
}

func TestPrepareRecordsRollbackThatRestoresOriginalManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, "0.1.0")
	original, err := os.ReadFile(manifest)
	require.NoError(t, err)

	p := &Plugin{id: "rust", manifestPath: manifest}
	store := release.NewStateStore()
	store.Set("next_version", release.SemverValue(release.SemverTriple{Major: 0, Minor: 2, Patch: 0}))

	_, err = p.RunStep(context.Background(), release.StepPrepare, store)
	require.NoError(t, err)

	bumped, err := os.ReadFile(manifest)
	require.NoError(t, err)
	require.NotEqual(t, original, bumped)

	errs := store.UnwindRollbacks()
	require.Empty(t, errs)

	restored, err := os.ReadFile(manifest)
	require.NoError(t, err)
	require.Equal(t, original, restored)
}

func TestPrepareFailsWithoutNextVersion(t *testing.T) {
	dir := t.TempDir()
	manifest := writeManifest(t, dir, "0.1.0")

	p := &Plugin{id: "rust", manifestPath: manifest}
	store := release.NewStateStore()

	_, err := p.RunStep(context.Background(), release.StepPrepare, store)
	require.Error(t, err)
}

func TestPrepareRejectsManifestWithoutVersionKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Cargo.toml")
	require.NoError(t, os.WriteFile(path, []byte("[package]\nname = \"widget\"\n"), 0o644))

	p := &Plugin{id: "rust", manifestPath: path}
	store := release.NewStateStore()
	store.Set("next_version", release.SemverValue(release.SemverTriple{Major: 1}))

	_, err := p.RunStep(context.Background(), release.StepPrepare, store)
	require.Error(t, err)
}

func TestDeclareReportsCapabilitiesAndConsumes(t *testing.T) {
	p := &Plugin{id: "rust"}
	decl := p.Declare()
	require.Equal(t, rplugin.Id("rust"), decl.ID)
	require.Contains(t, decl.ConsumesKeys, "next_version")
}
