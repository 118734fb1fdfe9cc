package main

import (
	applicationrelease "github.com/release-kit/releaseflow/internal/application/release"
	"github.com/release-kit/releaseflow/internal/ports"
)

// AppContext bundles the long-lived services built once at startup and
// threaded into every cobra subcommand.
type AppContext struct {
	Logger         ports.Logger
	Events         ports.EventPublisher
	ConfigLoader   ports.ConfigLoader
	PrepareUseCase *applicationrelease.PrepareUseCase
	RunUseCase     *applicationrelease.RunUseCase
}

// LoggerFor derives a child logger scoped to component.
func (a *AppContext) LoggerFor(component string) ports.Logger {
	if a == nil || a.Logger == nil {
		return nil
	}
	return a.Logger.With("component", component)
}
