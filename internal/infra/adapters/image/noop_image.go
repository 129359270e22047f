package image

import (
	"context"

	"commit-reflections/internal/domain/ports/adapter"
)

var _ adapter.ImageGeneratorAdapter = (*NoopImageAdapter)(nil)

// NoopImageAdapter produces no illustrations. Used when no image provider is
// configured; reflections simply ship without one.
type NoopImageAdapter struct{}

func NewNoopImageAdapter() *NoopImageAdapter { return &NoopImageAdapter{} }

func (n *NoopImageAdapter) GenerateImage(ctx context.Context, content string) (string, error) {
	return "", nil
}
