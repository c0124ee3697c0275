package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/xhad/pdfqa/internal/types"
)

// EmbedderConfig represents the configuration for an Embedder.
type EmbedderConfig struct {
	// MaxInputChars rejects text the provider would refuse anyway.
	MaxInputChars int
}

// Embedder turns text into vectors. The same instance must be used for
// chunks and questions so both live in the same vector space.
type Embedder struct {
	config EmbedderConfig
	embed  embeddings.Embedder
}

func NewEmbedderWithConfig(client embeddings.EmbedderClient, config EmbedderConfig) (*Embedder, error) {
	if config.MaxInputChars <= 0 {
		config.MaxInputChars = 32000
	}

	emb, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{
		config: config,
		embed:  emb,
	}, nil
}

// Embed returns the embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", types.ErrEmbedding)
	}
	if len(text) > e.config.MaxInputChars {
		return nil, fmt.Errorf("%w: text has %d characters, limit is %d", types.ErrEmbedding, len(text), e.config.MaxInputChars)
	}

	vector, err := e.embed.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEmbedding, err)
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", types.ErrEmbedding)
	}

	return vector, nil
}
