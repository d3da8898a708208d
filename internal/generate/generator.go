// Package generate defines the boundary to the image-generation collaborator.
// The service treats generation as an opaque asynchronous function; the real
// model pipeline lives behind the HTTP client, and the simulator stands in
// for it during development and tests.
package generate

import (
	"context"

	"ai-image-service/internal/models"
)

// ProgressFunc receives progress callbacks on the worker's call stack.
// Implementations must not block indefinitely.
type ProgressFunc func(percent int, message string)

// Generator produces one artifact per invocation. A failed generation is
// reported as an error; the caller records it and moves on.
type Generator interface {
	Generate(ctx context.Context, params models.GenerationParams, onProgress ProgressFunc) (models.GenerationResult, error)
}
