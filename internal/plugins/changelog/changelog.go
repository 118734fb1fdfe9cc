package changelog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// headerPattern matches a Conventional Commits subject line: "type(scope)!: subject".
var headerPattern = regexp.MustCompile(`^(\w+)(\([^)]+\))?(!)?:\s*(.+)$`)

var typeLabels = map[string]string{
	"feat":     "Features",
	"fix":      "Bug Fixes",
	"perf":     "Performance",
	"refactor": "Refactoring",
	"docs":     "Documentation",
}

// Plugin implements DeriveNextVersion and GenerateNotes by walking the
// commit log between the last release tag and HEAD and classifying each
// subject line as a Conventional Commits type.
type Plugin struct {
	id       rplugin.Id
	repoPath string
}

// New constructs the changelog plugin; satisfies ports.Factory.
func New(id rplugin.Id, loc rplugin.Location) (ports.Plugin, error) {
	return &Plugin{id: id, repoPath: "."}, nil
}

func (p *Plugin) Declare() rplugin.Declaration {
	return rplugin.Declaration{
		ID:                    p.id,
		ProvisionCapabilities: []rplugin.Capability{rplugin.Capability(release.StepDeriveNextVersion), rplugin.Capability(release.StepGenerateNotes)},
		ProvisionsKeys:        []string{"next_version", "bump_kind", "changelog"},
		ConsumesKeys:          []string{"last_version", "last_tag"},
	}
}

func (p *Plugin) Configure(cfg map[string]interface{}) error {
	if v, ok := cfg["repo_path"].(string); ok && v != "" {
		p.repoPath = v
	}
	return nil
}

func (p *Plugin) RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error) {
	switch step {
	case release.StepDeriveNextVersion:
		return p.deriveNextVersion(store)
	case release.StepGenerateNotes:
		return p.generateNotes(store)
	default:
		return rplugin.OutcomeSkipped, nil
	}
}

type commitEntry struct {
	commitType string
	breaking   bool
	subject    string
}

func (p *Plugin) commitsSinceLastTag(store *release.StateStore) ([]commitEntry, error) {
	repo, err := gogit.PlainOpen(p.repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	var since *plumbing.Hash
	if lastTag, ok := store.Get("last_tag"); ok && lastTag.String != "" {
		// ResolveRevision dereferences annotated tags to the commit they
		// point at; repo.Tag().Hash() would give the tag object's own hash
		// instead, which never matches a commit walked by repo.Log.
		hash, err := repo.ResolveRevision(plumbing.Revision(lastTag.String))
		if err == nil {
			since = hash
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}

	iter, err := repo.Log(&gogit.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("walk commit log: %w", err)
	}

	var entries []commitEntry
	_ = iter.ForEach(func(c *object.Commit) error {
		if since != nil && c.Hash == *since {
			return errStopIteration
		}
		entries = append(entries, classify(c.Message))
		return nil
	})
	return entries, nil
}

var errStopIteration = fmt.Errorf("stop")

func classify(message string) commitEntry {
	subject := strings.SplitN(message, "\n", 2)[0]
	breaking := strings.Contains(message, "BREAKING CHANGE")

	matches := headerPattern.FindStringSubmatch(subject)
	if matches == nil {
		return commitEntry{commitType: "other", breaking: breaking, subject: subject}
	}
	commitType := strings.ToLower(matches[1])
	if matches[3] == "!" {
		breaking = true
	}
	return commitEntry{commitType: commitType, breaking: breaking, subject: matches[4]}
}

func bumpKindFor(entries []commitEntry) string {
	minor, patch := false, false
	for _, e := range entries {
		if e.breaking {
			return "major"
		}
		switch e.commitType {
		case "feat":
			minor = true
		case "fix", "perf":
			patch = true
		}
	}
	switch {
	case minor:
		return "minor"
	case patch:
		return "patch"
	default:
		return "none"
	}
}

func bump(last release.SemverTriple, kind string) release.SemverTriple {
	switch kind {
	case "major":
		return release.SemverTriple{Major: last.Major + 1}
	case "minor":
		return release.SemverTriple{Major: last.Major, Minor: last.Minor + 1}
	case "patch":
		return release.SemverTriple{Major: last.Major, Minor: last.Minor, Patch: last.Patch + 1}
	default:
		return last
	}
}

func (p *Plugin) deriveNextVersion(store *release.StateStore) (rplugin.Outcome, error) {
	entries, err := p.commitsSinceLastTag(store)
	if err != nil {
		return rplugin.OutcomeFailed, err
	}

	lastVersion, _ := store.Get("last_version")
	kind := bumpKindFor(entries)
	next := bump(lastVersion.Semver, kind)
	if kind == "none" {
		next = release.SemverTriple{Major: lastVersion.Semver.Major, Minor: lastVersion.Semver.Minor, Patch: lastVersion.Semver.Patch + 1}
	}

	store.Set("next_version", release.SemverValue(next))
	store.Set("bump_kind", release.StringValue(kind))
	return rplugin.OutcomeOk, nil
}

func (p *Plugin) generateNotes(store *release.StateStore) (rplugin.Outcome, error) {
	nextVersion, ok := store.Get("next_version")
	if !ok {
		return rplugin.OutcomeFailed, fmt.Errorf("next_version not available in state store")
	}

	entries, err := p.commitsSinceLastTag(store)
	if err != nil {
		return rplugin.OutcomeFailed, err
	}

	grouped := make(map[string][]string)
	for _, e := range entries {
		label, ok := typeLabels[e.commitType]
		if !ok {
			continue
		}
		grouped[label] = append(grouped[label], e.subject)
	}

	var order []string
	for label := range grouped {
		order = append(order, label)
	}
	sort.Strings(order)

	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n", nextVersion.Semver.String())
	for _, label := range order {
		fmt.Fprintf(&b, "\n### %s\n", label)
		for _, subject := range grouped[label] {
			fmt.Fprintf(&b, "- %s\n", subject)
		}
	}

	store.Set("changelog", release.StringValue(b.String()))
	return rplugin.OutcomeOk, nil
}

var _ ports.Plugin = (*Plugin)(nil)
