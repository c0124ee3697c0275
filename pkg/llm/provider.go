package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

const (
	ProviderOllama   = "ollama"
	ProviderGoogleAI = "googleai"
)

// ProviderConfig selects and configures the model backend.
type ProviderConfig struct {
	Provider       string
	BaseURL        string // Ollama server URL
	APIKey         string // Google AI API key
	Model          string
	EmbeddingModel string
}

// NewModels returns the generation model and the embedding client for the
// configured provider. Ollama serves embeddings from a separate model, so
// it gets its own client.
func NewModels(ctx context.Context, config ProviderConfig) (llms.Model, embeddings.EmbedderClient, error) {
	switch config.Provider {
	case "", ProviderOllama:
		if config.BaseURL == "" {
			config.BaseURL = "http://localhost:11434" // Default Ollama URL
		}
		if config.Model == "" {
			config.Model = "mistral"
		}
		if config.EmbeddingModel == "" {
			config.EmbeddingModel = "nomic-embed-text:latest"
		}

		chat, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize LLM: %w", err)
		}

		emb, err := ollama.New(ollama.WithModel(config.EmbeddingModel), ollama.WithServerURL(config.BaseURL))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize embedding model: %w", err)
		}

		return chat, emb, nil

	case ProviderGoogleAI:
		if config.APIKey == "" {
			return nil, nil, fmt.Errorf("googleai provider requires an API key")
		}
		if config.Model == "" {
			config.Model = "gemini-1.5-flash"
		}
		if config.EmbeddingModel == "" {
			config.EmbeddingModel = "text-embedding-004"
		}

		client, err := googleai.New(ctx,
			googleai.WithAPIKey(config.APIKey),
			googleai.WithDefaultModel(config.Model),
			googleai.WithDefaultEmbeddingModel(config.EmbeddingModel),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Google AI client: %w", err)
		}

		return client, client, nil
	}

	return nil, nil, fmt.Errorf("unknown llm provider %q", config.Provider)
}
