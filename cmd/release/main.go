package main

import (
	"context"
	"fmt"
	"os"

	applicationrelease "github.com/release-kit/releaseflow/internal/application/release"
	configinfra "github.com/release-kit/releaseflow/internal/infrastructure/config"
	eventsinfra "github.com/release-kit/releaseflow/internal/infrastructure/events"
	logginginfra "github.com/release-kit/releaseflow/internal/infrastructure/logging"
	plannerinfra "github.com/release-kit/releaseflow/internal/infrastructure/planner"
	registryinfra "github.com/release-kit/releaseflow/internal/infrastructure/registry"
	resolverinfra "github.com/release-kit/releaseflow/internal/infrastructure/resolver"
	runnerinfra "github.com/release-kit/releaseflow/internal/infrastructure/runner"
	"github.com/release-kit/releaseflow/internal/ports"
)

func main() {
	appLogger, err := logginginfra.New(logginginfra.Options{
		Level:     "info",
		Component: "cli",
		Layer:     "infrastructure",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create application logger: %v\n", err)
		os.Exit(1)
	}

	correlationID := ports.GenerateCorrelationID()
	ctx := ports.WithCorrelationID(context.Background(), correlationID)

	configLoader := configinfra.NewYAMLLoader(appLogger.With("component", "yaml_loader"))
	capabilityRegistry := registryinfra.New()
	stepResolver := resolverinfra.New()
	stepPlanner := plannerinfra.New()
	eventPublisher := eventsinfra.NewLoggingPublisher(appLogger.With("component", "event_publisher"))

	prepareUseCase := applicationrelease.NewPrepareUseCase(
		configLoader,
		capabilityRegistry,
		builtinFactories(),
		stepResolver,
		stepPlanner,
		appLogger.With("component", "prepare_usecase"),
	)

	runnerLogger := appLogger.With("component", "runner")
	runnerFactory := func(plugins map[string]ports.Plugin) ports.Runner {
		return runnerinfra.New(plugins, runnerinfra.WithLogger(runnerLogger), runnerinfra.WithEvents(eventPublisher))
	}

	runUseCase := applicationrelease.NewRunUseCase(
		prepareUseCase,
		runnerFactory,
		eventPublisher,
		appLogger.With("component", "run_usecase"),
	)

	app := &AppContext{
		Logger:         appLogger,
		Events:         eventPublisher,
		ConfigLoader:   configLoader,
		PrepareUseCase: prepareUseCase,
		RunUseCase:     runUseCase,
	}

	rootCmd := newRootCmd(app)
	appLogger.Info(ctx, "starting release command", "pid", os.Getpid())

	err = rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCodeFor(err))
}
