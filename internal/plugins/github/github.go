package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

const defaultAPIBase = "https://api.github.com"

// Plugin implements Publish by creating a GitHub Release over the REST API.
// No generated client is used; the request is built and sent directly so the
// plugin's dependency surface stays to oauth2 (for the bearer token
// transport) and net/http.
type Plugin struct {
	id      rplugin.Id
	apiBase string
	owner   string
	repo    string
	token   string
	draft   bool
}

// New constructs the github plugin; satisfies ports.Factory.
func New(id rplugin.Id, loc rplugin.Location) (ports.Plugin, error) {
	return &Plugin{id: id, apiBase: defaultAPIBase}, nil
}

func (p *Plugin) Declare() rplugin.Declaration {
	return rplugin.Declaration{
		ID:                    p.id,
		ProvisionCapabilities: []rplugin.Capability{rplugin.Capability(release.StepPublish)},
		ProvisionsKeys:        []string{"github_release_id"},
		ConsumesKeys:          []string{"commit_sha", "changelog", "next_version"},
	}
}

func (p *Plugin) Configure(cfg map[string]interface{}) error {
	owner, _ := cfg["owner"].(string)
	repo, _ := cfg["repo"].(string)
	token, _ := cfg["token"].(string)
	if owner == "" || repo == "" || token == "" {
		return &rplugin.BadConfig{PluginID: p.id, Field: "owner/repo/token", Reason: "all three are required"}
	}
	p.owner, p.repo, p.token = owner, repo, token
	if v, ok := cfg["draft"].(bool); ok {
		p.draft = v
	}
	if v, ok := cfg["api_base"].(string); ok && v != "" {
		p.apiBase = v
	}
	return nil
}

func (p *Plugin) RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error) {
	if step != release.StepPublish {
		return rplugin.OutcomeSkipped, nil
	}

	commitSHA, ok := store.Get("commit_sha")
	if !ok {
		return rplugin.OutcomeFailed, fmt.Errorf("commit_sha not available in state store")
	}
	changelog, _ := store.Get("changelog")
	nextVersion, ok := store.Get("next_version")
	if !ok {
		return rplugin.OutcomeFailed, fmt.Errorf("next_version not available in state store")
	}

	tagName := "v" + nextVersion.Semver.String()
	releaseID, err := p.createRelease(ctx, tagName, commitSHA.String, changelog.String)
	if err != nil {
		return rplugin.OutcomeFailed, err
	}

	store.Set("github_release_id", release.IntValue(releaseID))
	return rplugin.OutcomeOk, nil
}

type createReleaseRequest struct {
	TagName         string `json:"tag_name"`
	TargetCommitish string `json:"target_commitish"`
	Name            string `json:"name"`
	Body            string `json:"body"`
	Draft           bool   `json:"draft"`
}

type createReleaseResponse struct {
	ID int `json:"id"`
}

func (p *Plugin) createRelease(ctx context.Context, tagName, commitSHA, body string) (int, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: p.token}))

	payload, err := json.Marshal(createReleaseRequest{
		TagName:         tagName,
		TargetCommitish: commitSHA,
		Name:            tagName,
		Body:            body,
		Draft:           p.draft,
	})
	if err != nil {
		return 0, fmt.Errorf("encode release request: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases", p.apiBase, p.owner, p.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("create github release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return 0, fmt.Errorf("github release API returned status %d", resp.StatusCode)
	}

	var decoded createReleaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode github release response: %w", err)
	}
	return decoded.ID, nil
}

var _ ports.Plugin = (*Plugin)(nil)
