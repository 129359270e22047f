package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"commit-reflections/internal/domain/ports/adapter"
	"commit-reflections/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.ContentGeneratorAdapter = (*OpenAIAdapter)(nil)

const reflectionSystemPrompt = `You are a thoughtful writing companion for a
software founder. Each night you read the day's commits and write a short,
warm, specific reflection on what they built. Write in second person, two to
four paragraphs, no bullet lists, no emoji. Mention concrete work from the
commits without quoting messages verbatim.`

const quietSystemPrompt = `You are a thoughtful writing companion for a
software founder. Today they shipped nothing. Write a short, kind check-in.
Never guilt-trip.`

// OpenAIAdapter generates reflection text via the OpenAI Chat Completions
// API, budgeting the commit digest to the configured prompt-token ceiling.
type OpenAIAdapter struct {
	client          openai.Client
	model           string
	maxPromptTokens int
	callTimeout     time.Duration
}

func NewOpenAIAdapter(apiKey, model string, maxPromptTokens int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIAdapter{
		client:          openai.NewClient(option.WithAPIKey(apiKey)),
		model:           model,
		maxPromptTokens: maxPromptTokens,
		callTimeout:     45 * time.Second,
	}, nil
}

func (o *OpenAIAdapter) Generate(ctx context.Context, rc adapter.ReflectionContext) (*adapter.GeneratedReflection, error) {
	digest := fitCommitBudget(o.model, commitDigest(rc.Commits), o.maxPromptTokens)

	user := fmt.Sprintf(
		"Repository: %s\nFounder: %s\nDate: %s\nCommits today:\n%s\nWrite tonight's reflection.",
		rc.RepoFullName, rc.OwnerName, rc.WorkDate.Format("Monday, January 2, 2006"), digest,
	)
	return o.complete(ctx, reflectionSystemPrompt, user)
}

func (o *OpenAIAdapter) GenerateQuiet(ctx context.Context, rc adapter.ReflectionContext, quietStreak int) (*adapter.GeneratedReflection, error) {
	var ask string
	switch {
	case quietStreak == 0:
		ask = "This is the first quiet day. Write a brief same-day check-in: ask how the day went away from the code."
	case quietStreak == 1:
		ask = "This is the second quiet day in a row. Write one or two gentle sentences; no pressure."
	default:
		ask = "Several quiet days have passed. Write one terse, warm line along the lines of seeing them when they're back."
	}

	user := fmt.Sprintf(
		"Repository: %s\nFounder: %s\nDate: %s\nQuiet days so far: %d\n%s",
		rc.RepoFullName, rc.OwnerName, rc.WorkDate.Format("Monday, January 2, 2006"), quietStreak, ask,
	)
	return o.complete(ctx, quietSystemPrompt, user)
}

func (o *OpenAIAdapter) complete(ctx context.Context, system, user string) (*adapter.GeneratedReflection, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(callCtx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(700),
		Temperature: openai.Float(0.8),
	})
	latencyMs := int(time.Since(start) / time.Millisecond)

	if err != nil {
		metrics.ObserveGeneration(o.model, 0, 0, latencyMs, false)
		return nil, fmt.Errorf("openai chat: %w", err)
	}
	metrics.ObserveGeneration(o.model, int(resp.Usage.PromptTokens), int(resp.Usage.CompletionTokens), latencyMs, true)

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, errors.New("openai chat: empty completion")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	return &adapter.GeneratedReflection{
		Content: content,
		Summary: firstSentence(content),
	}, nil
}

// firstSentence yields a short preview for subject lines and list views.
func firstSentence(s string) string {
	if i := strings.IndexAny(s, ".!?"); i >= 0 && i < 140 {
		return s[:i+1]
	}
	if len(s) > 140 {
		return s[:140]
	}
	return s
}
