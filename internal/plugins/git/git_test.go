package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
)

func initRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	wt, err := repo.Worktree()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("hello"), 0o644))
	_, err = wt.Add("README.md")
	require.NoError(t, err)

	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	hash, err := wt.Commit("initial", &gogit.CommitOptions{Author: sig})
	require.NoError(t, err)

	_, err = repo.CreateTag("v1.2.3", hash, &gogit.CreateTagOptions{Tagger: sig, Message: "v1.2.3"})
	require.NoError(t, err)

	return dir
}

func TestGetLastReleaseFindsHighestSemverTag(t *testing.T) {
	dir := initRepo(t)
	p := &Plugin{id: "git", repoPath: dir, tagPrefix: "v"}
	store := release.NewStateStore()

	outcome, err := p.RunStep(context.Background(), release.StepGetLastRelease, store)
	require.NoError(t, err)
	require.Equal(t, rplugin.OutcomeOk, outcome)

	lastVersion, ok := store.Get("last_version")
	require.True(t, ok)
	require.Equal(t, release.SemverTriple{Major: 1, Minor: 2, Patch: 3}, lastVersion.Semver)

	lastTag, ok := store.Get("last_tag")
	require.True(t, ok)
	require.Equal(t, "v1.2.3", lastTag.String)
}

func TestGetLastReleaseHandlesNoTagsYet(t *testing.T) {
	dir := t.TempDir()
	_, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	p := &Plugin{id: "git", repoPath: dir, tagPrefix: "v"}
	store := release.NewStateStore()

	outcome, err := p.RunStep(context.Background(), release.StepGetLastRelease, store)
	require.NoError(t, err)
	require.Equal(t, rplugin.OutcomeOk, outcome)

	lastVersion, ok := store.Get("last_version")
	require.True(t, ok)
	require.Equal(t, release.SemverTriple{}, lastVersion.Semver)
}

func TestCommitCreatesCommitAndTagFromStateStore(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "CHANGELOG.md"), []byte("## v1.3.0"), 0o644))

	p := &Plugin{id: "git", repoPath: dir, tagPrefix: "v"}
	store := release.NewStateStore()
	store.Set("next_version", release.SemverValue(release.SemverTriple{Major: 1, Minor: 3, Patch: 0}))
	store.Set("changelog", release.StringValue("## v1.3.0\n\n- added things"))

	outcome, err := p.RunStep(context.Background(), release.StepCommit, store)
	require.NoError(t, err)
	require.Equal(t, rplugin.OutcomeOk, outcome)

	sha, ok := store.Get("commit_sha")
	require.True(t, ok)
	require.NotEmpty(t, sha.String)

	repo, err := gogit.PlainOpen(dir)
	require.NoError(t, err)
	_, err = repo.Tag("v1.3.0")
	require.NoError(t, err)
}

func TestCommitFailsWithoutNextVersion(t *testing.T) {
	dir := initRepo(t)
	p := &Plugin{id: "git", repoPath: dir, tagPrefix: "v"}
	store := release.NewStateStore()

	_, err := p.RunStep(context.Background(), release.StepCommit, store)
	require.Error(t, err)
}

func TestDeclareReportsProvisionsAndConsumes(t *testing.T) {
	p := &Plugin{id: "git"}
	decl := p.Declare()
	require.Equal(t, rplugin.Id("git"), decl.ID)
	require.Contains(t, decl.ProvisionsKeys, "last_tag")
	require.Contains(t, decl.ConsumesKeys, "next_version")
}
