package release

import (
	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
)

// Step identifies one of the nine fixed, ordered pipeline steps. The
// sequence is fixed by the system and never reordered by configuration.
type Step string

const (
	StepPreFlight         Step = "PreFlight"
	StepGetLastRelease    Step = "GetLastRelease"
	StepDeriveNextVersion Step = "DeriveNextVersion"
	StepGenerateNotes     Step = "GenerateNotes"
	StepPrepare           Step = "Prepare"
	StepVerifyRelease     Step = "VerifyRelease"
	StepCommit            Step = "Commit"
	StepPublish           Step = "Publish"
	StepNotify            Step = "Notify"
)

// Steps is the fixed execution order of the pipeline.
var Steps = []Step{
	StepPreFlight,
	StepGetLastRelease,
	StepDeriveNextVersion,
	StepGenerateNotes,
	StepPrepare,
	StepVerifyRelease,
	StepCommit,
	StepPublish,
	StepNotify,
}

// effectfulSteps are skipped entirely in a dry run.
var effectfulSteps = map[Step]bool{
	StepCommit:  true,
	StepPublish: true,
	StepNotify:  true,
}

// IsEffectful reports whether a step mutates the outside world and is
// therefore skipped during a dry run.
func (s Step) IsEffectful() bool {
	return effectfulSteps[s]
}

// singletonOnlySteps may bind to exactly one plugin instance, never Shared
// or Discover.
var singletonOnlySteps = map[Step]bool{
	StepGetLastRelease: true,
	StepCommit:         true,
}

// RequiresSingleton reports whether a step only accepts a Singleton binding.
func (s Step) RequiresSingleton() bool {
	return singletonOnlySteps[s]
}

// Valid reports whether s is one of the nine fixed steps.
func (s Step) Valid() bool {
	for _, known := range Steps {
		if known == s {
			return true
		}
	}
	return false
}

// StepBinding selects how many plugin instances are attached to a step.
type StepBindingKind string

const (
	BindingSingleton StepBindingKind = "singleton"
	BindingShared    StepBindingKind = "shared"
	BindingDiscover  StepBindingKind = "discover"
)

// StepBinding describes, for one step, which plugin instances run it and
// how. Singleton carries exactly one PluginId; Shared carries an explicit,
// ordered list; Discover carries none (resolved from capability matches).
type StepBinding struct {
	Kind      StepBindingKind
	Singleton rplugin.Id
	Shared    []rplugin.Id
}
