package ports

import (
	"context"

	release "github.com/release-kit/releaseflow/internal/domain/release"
)

// ConfigLoader loads and validates a pipeline configuration from the
// filesystem. Implementations must be deterministic, respect context
// cancellation, and translate infrastructure failures into
// release.ErrCodeConfig before returning.
type ConfigLoader interface {
	// Load materializes a fully structurally- and semantically-validated
	// Configuration from the YAML file at path.
	Load(ctx context.Context, path string) (*release.Configuration, error)

	// Validate performs the same checks as Load without returning the
	// parsed Configuration, for the `release validate` command.
	Validate(ctx context.Context, path string) error
}
