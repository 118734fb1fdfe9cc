package changelog

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

func commitFile(t *testing.T, repo *gogit.Repository, dir, name, message string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(message), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	_, err = wt.Commit(message, &gogit.CommitOptions{Author: sig})
	require.NoError(t, err)
}

func repoWithHistory(t *testing.T) (string, *gogit.Repository) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "a.txt", "chore: initial scaffold")
	head, err := repo.Head()
	require.NoError(t, err)
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()}
	_, err = repo.CreateTag("v1.0.0", head.Hash(), &gogit.CreateTagOptions{Tagger: sig, Message: "v1.0.0"})
	require.NoError(t, err)

	commitFile(t, repo, dir, "b.txt", "feat: add widget support")
	commitFile(t, repo, dir, "c.txt", "fix: correct widget sizing")

	return dir, repo
}

func TestDeriveNextVersionMinorBumpOnFeat(t *testing.T) {
	dir, _ := repoWithHistory(t)
	p := &Plugin{id: "clog", repoPath: dir}
	store := release.NewStateStore()
	store.Set("last_version", release.SemverValue(release.SemverTriple{Major: 1, Minor: 0, Patch: 0}))
	store.Set("last_tag", release.StringValue("v1.0.0"))

	outcome, err := p.RunStep(context.Background(), release.StepDeriveNextVersion, store)
	require.NoError(t, err)
	require.Equal(t, rplugin.OutcomeOk, outcome)

	next, ok := store.Get("next_version")
	require.True(t, ok)
	require.Equal(t, release.SemverTriple{Major: 1, Minor: 1, Patch: 0}, next.Semver)

	bumpKind, ok := store.Get("bump_kind")
	require.True(t, ok)
	require.Equal(t, "minor", bumpKind.String)
}

func TestDeriveNextVersionMajorBumpOnBreakingChange(t *testing.T) {
	dir := t.TempDir()
	repo, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "a.txt", "feat!: drop legacy API\n\nBREAKING CHANGE: removes old client")

	p := &Plugin{id: "clog", repoPath: dir}
	store := release.NewStateStore()
	store.Set("last_version", release.SemverValue(release.SemverTriple{Major: 1, Minor: 4, Patch: 2}))
	store.Set("last_tag", release.StringValue(""))

	_, err = p.RunStep(context.Background(), release.StepDeriveNextVersion, store)
	require.NoError(t, err)

	next, _ := store.Get("next_version")
	require.Equal(t, release.SemverTriple{Major: 2}, next.Semver)
}

func TestGenerateNotesGroupsByConventionalType(t *testing.T) {
	dir, _ := repoWithHistory(t)
	p := &Plugin{id: "clog", repoPath: dir}
	store := release.NewStateStore()
	store.Set("last_tag", release.StringValue("v1.0.0"))
	store.Set("next_version", release.SemverValue(release.SemverTriple{Major: 1, Minor: 1, Patch: 0}))

	outcome, err := p.RunStep(context.Background(), release.StepGenerateNotes, store)
	require.NoError(t, err)
	require.Equal(t, rplugin.OutcomeOk, outcome)

	changelog, ok := store.Get("changelog")
	require.True(t, ok)
	require.Contains(t, changelog.String, "Features")
	require.Contains(t, changelog.String, "add widget support")
	require.Contains(t, changelog.String, "Bug Fixes")
}

func TestGenerateNotesFailsWithoutNextVersion(t *testing.T) {
	dir, _ := repoWithHistory(t)
	p := &Plugin{id: "clog", repoPath: dir}
	store := release.NewStateStore()

	_, err := p.RunStep(context.Background(), release.StepGenerateNotes, store)
	require.Error(t, err)
}
