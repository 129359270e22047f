package ai

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"commit-reflections/internal/domain/model"
)

const fallbackEncoding = "cl100k_base"

// commitDigest renders the day's commits as plain lines the model can read.
func commitDigest(commits []model.CommitDetail) string {
	var b strings.Builder
	for _, c := range commits {
		first := c.Message
		if i := strings.IndexByte(first, '\n'); i >= 0 {
			first = first[:i]
		}
		fmt.Fprintf(&b, "- %s (%s, +%d/-%d", first, c.Timestamp.Format("15:04"), c.Additions, c.Deletions)
		if len(c.FilesChanged) > 0 {
			fmt.Fprintf(&b, ", %d files", len(c.FilesChanged))
		}
		b.WriteString(")\n")
	}
	return b.String()
}

// countTokens counts prompt tokens for the model, falling back to a generic
// encoding for models tiktoken does not know.
func countTokens(modelName, text string) int {
	enc, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			// Worst case: rough per-4-chars estimate keeps budgeting sane.
			return len(text) / 4
		}
	}
	return len(enc.Encode(text, nil, nil))
}

// fitCommitBudget drops the oldest digest lines until the prompt fits the
// token budget. The newest commits carry the day's story; they stay.
func fitCommitBudget(modelName, digest string, maxTokens int) string {
	if maxTokens <= 0 || countTokens(modelName, digest) <= maxTokens {
		return digest
	}
	lines := strings.Split(strings.TrimRight(digest, "\n"), "\n")
	for len(lines) > 1 {
		lines = lines[1:]
		candidate := strings.Join(lines, "\n") + "\n"
		if countTokens(modelName, candidate) <= maxTokens {
			return candidate
		}
	}
	return lines[len(lines)-1] + "\n"
}
