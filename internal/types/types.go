package types

import (
	"context"

	"github.com/xhad/pdfqa/internal/models"
)

// Core interfaces
type VectorStore interface {
	Upsert(ctx context.Context, record models.ChunkRecord) error
	Query(ctx context.Context, vector []float32, topK int, filter models.Filter) ([]models.Match, error)
	Close()
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Chunker splits a document into the chunks that get embedded.
type Chunker interface {
	Process(doc models.Document) models.ProcessedDocument
}

type Extractor interface {
	Extract(ctx context.Context, name, contentType string, data []byte) (string, error)
}
