package ai

import (
	"context"
	"fmt"

	"commit-reflections/internal/domain/ports/adapter"
)

var _ adapter.ContentGeneratorAdapter = (*NoopGenerator)(nil)

// NoopGenerator implements the content-generator port for local/dev runs.
// It returns canned text instead of calling a real model.
type NoopGenerator struct{}

func NewNoopGenerator() *NoopGenerator { return &NoopGenerator{} }

func (n *NoopGenerator) Generate(ctx context.Context, rc adapter.ReflectionContext) (*adapter.GeneratedReflection, error) {
	content := fmt.Sprintf("You shipped %d commits to %s today. (noop generator)", len(rc.Commits), rc.RepoFullName)
	return &adapter.GeneratedReflection{Content: content, Summary: content}, nil
}

func (n *NoopGenerator) GenerateQuiet(ctx context.Context, rc adapter.ReflectionContext, quietStreak int) (*adapter.GeneratedReflection, error) {
	content := fmt.Sprintf("A quiet day on %s, streak %d. (noop generator)", rc.RepoFullName, quietStreak)
	return &adapter.GeneratedReflection{Content: content, Summary: content}, nil
}
