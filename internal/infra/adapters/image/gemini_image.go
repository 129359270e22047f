package image

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"commit-reflections/internal/domain/ports/adapter"
	"commit-reflections/internal/infra/metrics"
)

var _ adapter.ImageGeneratorAdapter = (*GeminiImageAdapter)(nil)

// GeminiImageAdapter illustrates a reflection via the Imagen models on the
// Gemini API, stores the PNG locally, and returns its public URL.
type GeminiImageAdapter struct {
	client  *genai.Client
	model   string
	dir     string
	baseURL string
	log     *zerolog.Logger
}

func NewGeminiImageAdapter(ctx context.Context, apiKey, model, dir, baseURL string, logger *zerolog.Logger) (*GeminiImageAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	compLog := logger.With().Str("component", "GeminiImage").Logger()
	return &GeminiImageAdapter{
		client:  c,
		model:   model,
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     &compLog,
	}, nil
}

func (g *GeminiImageAdapter) GenerateImage(ctx context.Context, content string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	prompt := illustrationPrompt(content)
	resp, err := g.client.Models.GenerateImages(callCtx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		metrics.IncImageGenerated(false)
		return "", fmt.Errorf("gemini image: %w", err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		metrics.IncImageGenerated(false)
		return "", errors.New("gemini image: empty response")
	}

	name := ulid.MustNew(ulid.Now(), rand.Reader).String() + ".png"
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, resp.GeneratedImages[0].Image.ImageBytes, 0o644); err != nil {
		metrics.IncImageGenerated(false)
		return "", fmt.Errorf("store image: %w", err)
	}

	metrics.IncImageGenerated(true)
	g.log.Debug().Str("file", name).Msg("illustration stored")
	return g.baseURL + "/" + name, nil
}

// illustrationPrompt asks for abstract art, not a literal rendering of the
// reflection text.
func illustrationPrompt(content string) string {
	excerpt := content
	if len(excerpt) > 400 {
		excerpt = excerpt[:400]
	}
	return "A calm, minimal abstract illustration evoking the mood of this nightly note to a founder. " +
		"Soft shapes, muted night colors, no text, no people. Note: " + excerpt
}
