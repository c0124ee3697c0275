package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"github.com/xhad/pdfqa/internal/types"
)

const (
	DefaultSystemTemplate  = "You are a helpful assistant. Answer strictly from the text you are given. If the text does not contain the answer, say that you do not know."
	DefaultContextTemplate = "Answer the question based on the following text:\n\n%s\n\nQuestion: %s"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	Temperature     float64
	MaxTokens       int
	SystemTemplate  string
	ContextTemplate string // formatted with the context, then the question
}

// ChatEngine is an engine that uses an LLM to answer from retrieved text.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(model llms.Model, config ChatConfig) (*ChatEngine, error) {
	if model == nil {
		return nil, fmt.Errorf("chat model is required")
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = DefaultSystemTemplate
	}
	if config.ContextTemplate == "" {
		config.ContextTemplate = DefaultContextTemplate
	}

	return &ChatEngine{
		config: config,
		llm:    model,
	}, nil
}

// BuildPrompt embeds the retrieved context and the verbatim question into
// the context template.
func (ce *ChatEngine) BuildPrompt(context, question string) string {
	return fmt.Sprintf(ce.config.ContextTemplate, context, question)
}

// Generate sends the prompt and returns the trimmed response text.
func (ce *ChatEngine) Generate(ctx context.Context, prompt string) (string, error) {
	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}

	response, err := ce.llm.GenerateContent(ctx, content,
		llms.WithTemperature(ce.config.Temperature),
		llms.WithMaxTokens(ce.config.MaxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrGeneration, err)
	}

	if response == nil || len(response.Choices) == 0 || response.Choices[0] == nil {
		return "", fmt.Errorf("%w: no response from LLM", types.ErrGeneration)
	}

	return strings.TrimSpace(response.Choices[0].Content), nil
}
