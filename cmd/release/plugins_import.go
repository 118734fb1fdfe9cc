package main

import (
	cargoplugin "github.com/release-kit/releaseflow/internal/plugins/cargo"
	changelogplugin "github.com/release-kit/releaseflow/internal/plugins/changelog"
	githubplugin "github.com/release-kit/releaseflow/internal/plugins/github"
	gitplugin "github.com/release-kit/releaseflow/internal/plugins/git"
	notifyplugin "github.com/release-kit/releaseflow/internal/plugins/notify"
	"github.com/release-kit/releaseflow/internal/ports"
)

// builtinFactories returns the location name → constructor map for every
// in-process plugin implementation this binary ships. There is no
// disk/network plugin loading: a configuration's plugin table may only
// reference one of these names as its `builtin` location.
func builtinFactories() map[string]ports.Factory {
	return map[string]ports.Factory{
		"git":     gitplugin.New,
		"clog":    changelogplugin.New,
		"rust":    cargoplugin.New,
		"github":  githubplugin.New,
		"slack":   notifyplugin.New,
		"email":   notifyplugin.New,
	}
}
