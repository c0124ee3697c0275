package pipeline

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
)

// DefaultTopK is how many chunks are retrieved per question.
const DefaultTopK = 3

// PromptBuilder composes the generation prompt from retrieved context and
// the question.
type PromptBuilder interface {
	BuildPrompt(context, question string) string
}

type AnswererConfig struct {
	TopK int
	// RequireContext makes questions that retrieve nothing fail with
	// types.ErrNoContextFound instead of being answered from empty context.
	RequireContext   bool
	EmbedTimeout     time.Duration
	QueryTimeout     time.Duration
	GenerateTimeout  time.Duration
	ContextSeparator string
	Logger           *log.Logger
}

// Answerer answers questions about one upload from its nearest chunks.
type Answerer struct {
	config    AnswererConfig
	embedder  types.Embedder
	store     types.VectorStore
	generator types.Generator
	prompts   PromptBuilder
}

func NewAnswerer(embedder types.Embedder, store types.VectorStore, generator types.Generator, prompts PromptBuilder, config AnswererConfig) *Answerer {
	if config.TopK <= 0 {
		config.TopK = DefaultTopK
	}
	if config.EmbedTimeout == 0 {
		config.EmbedTimeout = 30 * time.Second
	}
	if config.QueryTimeout == 0 {
		config.QueryTimeout = 10 * time.Second
	}
	if config.GenerateTimeout == 0 {
		config.GenerateTimeout = 120 * time.Second
	}
	if config.ContextSeparator == "" {
		config.ContextSeparator = "\n"
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	return &Answerer{
		config:    config,
		embedder:  embedder,
		store:     store,
		generator: generator,
		prompts:   prompts,
	}
}

// Answer embeds the question, retrieves the closest chunks of uploadID and
// asks the model to answer from them.
func (a *Answerer) Answer(ctx context.Context, question, uploadID string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", types.ErrEmptyQuestion
	}
	if strings.TrimSpace(uploadID) == "" {
		return "", types.ErrMissingUploadID
	}

	matches, err := a.Retrieve(ctx, question, uploadID)
	if err != nil {
		return "", err
	}

	if len(matches) == 0 {
		if a.config.RequireContext {
			return "", fmt.Errorf("%w: %s", types.ErrNoContextFound, uploadID)
		}
		a.config.Logger.Printf("No chunks found for %s, answering without context", uploadID)
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	prompt := a.prompts.BuildPrompt(strings.Join(texts, a.config.ContextSeparator), question)

	genCtx, cancel := context.WithTimeout(ctx, a.config.GenerateTimeout)
	defer cancel()

	answer, err := a.generator.Generate(genCtx, prompt)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(answer), nil
}

// Retrieve returns the TopK chunks of uploadID nearest to the question, by
// decreasing similarity.
func (a *Answerer) Retrieve(ctx context.Context, question, uploadID string) ([]models.Match, error) {
	embedCtx, cancel := context.WithTimeout(ctx, a.config.EmbedTimeout)
	vector, err := a.embedder.Embed(embedCtx, question)
	cancel()
	if err != nil {
		return nil, err
	}

	queryCtx, cancel := context.WithTimeout(ctx, a.config.QueryTimeout)
	defer cancel()

	return a.store.Query(queryCtx, vector, a.config.TopK, models.Filter{UploadID: uploadID})
}
