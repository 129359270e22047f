package adapter

import "context"

// ImageGeneratorAdapter illustrates a reflection. Best-effort: callers treat
// any error as "no image" and never fail the pipeline over it.
type ImageGeneratorAdapter interface {
	// GenerateImage returns a URL for the stored image, or "" when the
	// generator produced nothing.
	GenerateImage(ctx context.Context, content string) (string, error)
}
