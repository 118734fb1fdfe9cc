package cargo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
	release "github.com/release-kit/releaseflow/internal/domain/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// versionLine matches the package table's version key in a Cargo.toml,
// tolerating both single and double quoting.
var versionLine = regexp.MustCompile(`(?m)^(\s*version\s*=\s*)(?:"[^"]*"|'[^']*')`)

// Plugin bumps a crate's Cargo.toml to the next version during Prepare and
// shells out to cargo to verify the package builds and packages cleanly
// during VerifyRelease.
type Plugin struct {
	id          rplugin.Id
	manifestPath string
	verifyArgs  []string
}

// New constructs the cargo plugin; satisfies ports.Factory.
func New(id rplugin.Id, loc rplugin.Location) (ports.Plugin, error) {
	return &Plugin{id: id, manifestPath: "Cargo.toml", verifyArgs: []string{"package", "--dry-run"}}, nil
}

func (p *Plugin) Declare() rplugin.Declaration {
	return rplugin.Declaration{
		ID:                    p.id,
		ProvisionCapabilities: []rplugin.Capability{rplugin.Capability(release.StepPrepare), rplugin.Capability(release.StepVerifyRelease)},
		ConsumesKeys:          []string{"next_version"},
	}
}

func (p *Plugin) Configure(cfg map[string]interface{}) error {
	if v, ok := cfg["manifest_path"].(string); ok && v != "" {
		p.manifestPath = v
	}
	if v, ok := cfg["verify_command"].([]interface{}); ok && len(v) > 0 {
		args := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return &rplugin.BadConfig{PluginID: p.id, Field: "verify_command", Reason: "entries must be strings"}
			}
			args = append(args, s)
		}
		p.verifyArgs = args
	}
	return nil
}

func (p *Plugin) RunStep(ctx context.Context, step release.Step, store *release.StateStore) (rplugin.Outcome, error) {
	switch step {
	case release.StepPrepare:
		return p.prepare(store)
	case release.StepVerifyRelease:
		return p.verifyRelease(ctx)
	default:
		return rplugin.OutcomeSkipped, nil
	}
}

func (p *Plugin) prepare(store *release.StateStore) (rplugin.Outcome, error) {
	nextVersion, ok := store.Get("next_version")
	if !ok {
		return rplugin.OutcomeFailed, fmt.Errorf("next_version not available in state store")
	}

	contents, err := os.ReadFile(p.manifestPath)
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("read %s: %w", p.manifestPath, err)
	}

	if !versionLine.Match(contents) {
		return rplugin.OutcomeFailed, fmt.Errorf("%s has no package version key to bump", p.manifestPath)
	}

	replacement := fmt.Sprintf(`${1}"%s"`, nextVersion.Semver.String())
	updated := versionLine.ReplaceAll(contents, []byte(replacement))

	info, err := os.Stat(p.manifestPath)
	if err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("stat %s: %w", p.manifestPath, err)
	}
	if err := os.WriteFile(p.manifestPath, updated, info.Mode()); err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("write %s: %w", p.manifestPath, err)
	}

	store.RecordRollback(string(p.id), rollbackManifest{path: p.manifestPath, original: contents, mode: info.Mode()})
	return rplugin.OutcomeOk, nil
}

// rollbackManifest restores a Cargo.toml to its pre-Prepare contents. Prepare
// runs even under dry run (it isn't in the effectful step set), so a dry run
// that completes cleanly still needs this to leave the manifest untouched.
type rollbackManifest struct {
	path     string
	original []byte
	mode     os.FileMode
}

func (r rollbackManifest) Revert() error {
	return os.WriteFile(r.path, r.original, r.mode)
}

func (p *Plugin) verifyRelease(ctx context.Context) (rplugin.Outcome, error) {
	dir := filepath.Dir(p.manifestPath)
	cmd := exec.CommandContext(ctx, "cargo", p.verifyArgs...)
	cmd.Dir = dir

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		return rplugin.OutcomeFailed, fmt.Errorf("cargo %v: %w: %s", p.verifyArgs, err, out.String())
	}
	return rplugin.OutcomeOk, nil
}

var _ ports.Plugin = (*Plugin)(nil)
