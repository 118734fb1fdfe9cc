package git

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// Plugin implements GetLastRelease (reads the highest semver tag in the
// repository; tags are not checked for reachability from HEAD) and Commit (stages generated files, commits, and tags). Both
// are the singleton-only steps, matching this plugin's exclusive ownership
// of the repository.
type Plugin struct {
	id       rplugin.Id
	repoPath string
	tagPrefix string
}

// New constructs the git plugin; satisfies ports.Factory.
func New(id rplugin.Id, loc rplugin.Location) (ports.Plugin, error) {
	return &Plugin{id: id, repoPath: ".", tagPrefix: "v"}, nil
}

func (p *Plugin) Declare() rplugin.Declaration {
	return rplugin.Declaration{
		ID:                    p.id,
		ProvisionCapabilities: []rplugin.Capability{rplugin.Capability(release.StepGetLastRelease), rplugin.Capability(release.StepCommit)},
		ProvisionsKeys:        []string{"last_version", "last_tag", "commit_sha"},
		ConsumesKeys:          []string{"next_version", "changelog"},
	}
}

func (p *Plugin) Configure(cfg map[string]interface{}) error {
	if v, ok := cfg["repo_path"].(string); ok && v != "" {
		p.repoPath = v
	}
	if v, ok := cfg["tag_prefix"].(string); ok {
		p.tagPrefix = v
	}
	return nil
}

func (p *Plugin) RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error) {
	switch step {
	case release.StepGetLastRelease:
		return p.getLastRelease(store)
	case release.StepCommit:
		return p.commit(store)
	default:
		return rplugin.OutcomeSkipped, nil
	}
}

func (p *Plugin) getLastRelease(store *release.StateStore) (rplugin.Outcome, error) {
	repo, err := gogit.PlainOpen(p.repoPath)
	if err != nil {
		if err == gogit.ErrRepositoryNotExists {
			store.Set("last_version", release.SemverValue(release.SemverTriple{}))
			store.Set("last_tag", release.StringValue(""))
			return rplugin.OutcomeOk, nil
		}
		return rplugin.OutcomeFailed, fmt.Errorf("open repository: %w", err)
	}

	tags, err := repo.Tags()
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("list tags: %w", err)
	}

	var best release.SemverTriple
	bestTag := ""
	found := false
	_ = tags.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		triple, ok := parseSemverTag(name, p.tagPrefix)
		if !ok {
			return nil
		}
		if !found || less(best, triple) {
			best = triple
			bestTag = name
			found = true
		}
		return nil
	})

	store.Set("last_version", release.SemverValue(best))
	store.Set("last_tag", release.StringValue(bestTag))
	return rplugin.OutcomeOk, nil
}

func (p *Plugin) commit(store *release.StateStore) (rplugin.Outcome, error) {
	nextVersion, ok := store.Get("next_version")
	if !ok {
		return rplugin.OutcomeFailed, fmt.Errorf("next_version not available in state store")
	}
	changelog, _ := store.Get("changelog")

	repo, err := gogit.PlainOpen(p.repoPath)
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("open repository: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("open worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&gogit.AddOptions{All: true}); err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("stage changes: %w", err)
	}

	message := fmt.Sprintf("release: %s\n\n%s", nextVersion.Semver.String(), changelog.String)
	commitHash, err := worktree.Commit(message, &gogit.CommitOptions{
		Author: &object.Signature{Name: "release-bot", Email: "release-bot@localhost", When: time.Now()},
	})
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("commit: %w", err)
	}

	tagName := p.tagPrefix + nextVersion.Semver.String()
	if _, err := repo.CreateTag(tagName, commitHash, &gogit.CreateTagOptions{
		Tagger:  &object.Signature{Name: "release-bot", Email: "release-bot@localhost", When: time.Now()},
		Message: message,
	}); err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("create tag: %w", err)
	}

	store.Set("commit_sha", release.StringValue(commitHash.String()))
	store.RecordRollback(string(p.id), rollbackTag{repo: repo, tag: tagName})
	return rplugin.OutcomeOk, nil
}

// rollbackTag deletes the tag created by Commit if a later step fails
// fatally; the commit object itself is left in history (git has no clean
// "uncommit" without rewriting refs other tooling may already have seen).
type rollbackTag struct {
	repo *gogit.Repository
	tag  string
}

func (r rollbackTag) Revert() error {
	return r.repo.DeleteTag(r.tag)
}

func parseSemverTag(name, prefix string) (release.SemverTriple, bool) {
	trimmed := strings.TrimPrefix(name, prefix)
	parts := strings.SplitN(trimmed, ".", 3)
	if len(parts) != 3 {
		return release.SemverTriple{}, false
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	patch, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return release.SemverTriple{}, false
	}
	return release.SemverTriple{Major: major, Minor: minor, Patch: patch}, true
}

func less(a, b release.SemverTriple) bool {
	if a.Major != b.Major {
		return a.Major < b.Major
	}
	if a.Minor != b.Minor {
		return a.Minor < b.Minor
	}
	return a.Patch < b.Patch
}

var _ ports.Plugin = (*Plugin)(nil)
