package plugin

import (
	"errors"
	"fmt"
)

// Id identifies one configured plugin instance within a pipeline
// configuration. It is the string by which steps, capabilities, and state
// store keys refer to a concrete plugin.
type Id string

// Capability names a unit of work a plugin declares it can perform for a
// step, independent of the plugin's identity. The resolver and capability
// registry match steps to plugins on capability, not on type inheritance.
type Capability string

// Location identifies where a builtin plugin implementation comes from.
// Configuration accepts either a bare string (the short form, naming a
// builtin plugin directly) or a table with explicit fields (the long form),
// decoded by the config loader's rawLocation.UnmarshalYAML.
type Location struct {
	Builtin string
	Config  map[string]interface{}
}

// Outcome classifies how a single run_step invocation concluded.
type Outcome string

const (
	OutcomeOk      Outcome = "ok"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// BadConfig is returned by Configure when a plugin rejects its own
// configuration table; PrepareUseCase wraps it, like any Configure error, as
// a domain ConfigError.
type BadConfig struct {
	PluginID Id
	Field    string
	Reason   string
}

func (e *BadConfig) Error() string {
	return fmt.Sprintf("plugin %s: invalid config field %q: %s", e.PluginID, e.Field, e.Reason)
}

// FatalError wraps a RunStep error to force the runner to abort the pipeline
// even on a step whose failures are normally swallowed (GenerateNotes,
// Notify). Without it, a failure on one of those steps is always treated as
// non-fatal; a plugin that detects something worse than "the step just
// didn't work" (malformed webhook credentials, not just an unreachable
// endpoint) wraps its error in Fatal to override that default.
type FatalError struct {
	Err error
}

// Fatal wraps err so the runner treats it as fatal regardless of which step
// it failed on. Returns nil if err is nil.
func Fatal(err error) error {
	if err == nil {
		return nil
	}
	return &FatalError{Err: err}
}

func (e *FatalError) Error() string { return e.Err.Error() }
func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether an error explicitly forces a fatal failure,
// overriding a step's non-fatal default.
func IsFatal(err error) bool {
	var ferr *FatalError
	return errors.As(err, &ferr)
}
