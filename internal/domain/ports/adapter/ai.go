package adapter

import (
	"context"
	"time"

	"commit-reflections/internal/domain/model"
)

// ReflectionContext carries everything the generator needs for one work date.
type ReflectionContext struct {
	RepoFullName string
	OwnerName    string
	WorkDate     time.Time
	Commits      []model.CommitDetail
}

// GeneratedReflection is the generator's output. Summary is optional.
type GeneratedReflection struct {
	Content string
	Summary string
}

// ContentGeneratorAdapter produces the reflection text.
type ContentGeneratorAdapter interface {
	// Generate writes a reflection on a day with commits.
	Generate(ctx context.Context, rc ReflectionContext) (*GeneratedReflection, error)

	// GenerateQuiet writes a check-in for a zero-commit day, varying its tone
	// by how many quiet days have accumulated. A nil result with nil error
	// signals the generator declined to produce anything.
	GenerateQuiet(ctx context.Context, rc ReflectionContext, quietStreak int) (*GeneratedReflection, error)
}
