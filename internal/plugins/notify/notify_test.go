package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
)

func TestSlackNotifyPostsToWebhook(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := &Plugin{id: "slack", channel: ChannelSlack, webhookURL: server.URL, httpClient: http.DefaultClient}
	store := release.NewStateStore()
	store.Set("next_version", release.SemverValue(release.SemverTriple{Major: 1, Minor: 2, Patch: 0}))
	store.Set("changelog", release.StringValue("## v1.2.0"))

	outcome, err := p.RunStep(context.Background(), release.StepNotify, store)
	require.NoError(t, err)
	require.Equal(t, rplugin.OutcomeOk, outcome)
	require.Contains(t, gotBody, "1.2.0")
}

func TestEmailNotifyAlwaysFailsAndIsNonFatal(t *testing.T) {
	p := &Plugin{id: "email", channel: ChannelEmail, recipient: "team@example.com"}
	store := release.NewStateStore()
	store.Set("next_version", release.SemverValue(release.SemverTriple{Major: 1}))

	outcome, err := p.RunStep(context.Background(), release.StepNotify, store)
	require.Error(t, err)
	require.Equal(t, rplugin.OutcomeFailed, outcome)
	require.False(t, rplugin.IsFatal(err))
}

func TestConfigureRequiresWebhookForSlack(t *testing.T) {
	p := &Plugin{id: "slack", channel: ChannelSlack}
	err := p.Configure(map[string]interface{}{})
	require.Error(t, err)
}

func TestNewSelectsChannelFromLocation(t *testing.T) {
	instance, err := New("email", rplugin.Location{Builtin: "email"})
	require.NoError(t, err)
	p := instance.(*Plugin)
	require.Equal(t, ChannelEmail, p.channel)
}
