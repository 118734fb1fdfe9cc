package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// Channel selects which transport a Plugin instance notifies over. Both
// channels implement the same Notify step; email is a stub since this
// module carries no SMTP dependency in the example pack, exercising the
// non-fatal failure path a shared Notify step is meant to demonstrate when
// one of several bound plugins can't actually deliver.
type Channel string

const (
	ChannelSlack Channel = "slack"
	ChannelEmail Channel = "email"
)

type Plugin struct {
	id         rplugin.Id
	channel    Channel
	webhookURL string
	recipient  string
	httpClient *http.Client
}

// New constructs a notify plugin. The channel is chosen from the plugin's
// configured location name so the same binary serves both "slack" and
// "email" builtin locations.
func New(id rplugin.Id, loc rplugin.Location) (ports.Plugin, error) {
	channel := Channel(loc.Builtin)
	if channel != ChannelSlack && channel != ChannelEmail {
		channel = ChannelSlack
	}
	return &Plugin{id: id, channel: channel, httpClient: http.DefaultClient}, nil
}

func (p *Plugin) Declare() rplugin.Declaration {
	return rplugin.Declaration{
		ID:                    p.id,
		ProvisionCapabilities: []rplugin.Capability{rplugin.Capability(release.StepNotify)},
		ConsumesKeys:          []string{"next_version", "changelog"},
	}
}

func (p *Plugin) Configure(cfg map[string]interface{}) error {
	switch p.channel {
	case ChannelSlack:
		url, _ := cfg["webhook_url"].(string)
		if url == "" {
			return &rplugin.BadConfig{PluginID: p.id, Field: "webhook_url", Reason: "required for the slack channel"}
		}
		p.webhookURL = url
	case ChannelEmail:
		recipient, _ := cfg["recipient"].(string)
		if recipient == "" {
			return &rplugin.BadConfig{PluginID: p.id, Field: "recipient", Reason: "required for the email channel"}
		}
		p.recipient = recipient
	}
	return nil
}

func (p *Plugin) RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error) {
	if step != release.StepNotify {
		return rplugin.OutcomeSkipped, nil
	}

	nextVersion, ok := store.Get("next_version")
	if !ok {
		return rplugin.OutcomeFailed, fmt.Errorf("next_version not available in state store")
	}
	changelog, _ := store.Get("changelog")

	switch p.channel {
	case ChannelSlack:
		return p.notifySlack(ctx, nextVersion.Semver.String(), changelog.String)
	case ChannelEmail:
		return p.notifyEmail(nextVersion.Semver.String())
	default:
		return rplugin.OutcomeFailed, fmt.Errorf("unknown notify channel %q", p.channel)
	}
}

type slackMessage struct {
	Text string `json:"text"`
}

func (p *Plugin) notifySlack(ctx context.Context, version, changelog string) (rplugin.Outcome, error) {
	payload, err := json.Marshal(slackMessage{Text: fmt.Sprintf("Released %s\n%s", version, changelog)})
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("encode slack message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("post to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return rplugin.OutcomeFailed, fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return rplugin.OutcomeOk, nil
}

// notifyEmail is intentionally unimplemented: no mail transport is wired
// into this module. It always fails, which is harmless for the pipeline as
// a whole since Notify failures are non-fatal unless wrapped in rplugin.Fatal.
func (p *Plugin) notifyEmail(version string) (rplugin.Outcome, error) {
	return rplugin.OutcomeFailed, fmt.Errorf("email channel has no transport configured; release %s not emailed to %s", version, p.recipient)
}

var _ ports.Plugin = (*Plugin)(nil)
