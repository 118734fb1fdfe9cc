package ports

import (
	rplugin "github.com/release-kit/releaseflow/internal/domain/plugin"
)

// CapabilityRegistry is the authoritative map from capability name to the
// plugin instances that provision or require it, built once from the
// configuration's plugin table before resolution begins.
type CapabilityRegistry interface {
	// Register records one plugin instance's declared capabilities. Called
	// once per configured plugin during startup wiring.
	Register(decl rplugin.Declaration) error

	// ProvidersOf returns every registered plugin id that provisions the
	// given capability, in registration order.
	ProvidersOf(cap rplugin.Capability) []rplugin.Id

	// RequirementsOf returns the capabilities a given plugin id requires.
	RequirementsOf(id rplugin.Id) ([]rplugin.Capability, error)

	// Declaration returns the full declaration for a plugin id.
	Declaration(id rplugin.Id) (rplugin.Declaration, error)

	// All returns every registered declaration, sorted by plugin id.
	All() []rplugin.Declaration
}
