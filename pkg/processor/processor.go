package processor

import (
	"strings"

	"github.com/xhad/pdfqa/internal/models"
)

// DefaultChunkSize is the number of words per chunk.
const DefaultChunkSize = 1000

type ProcessorConfig struct {
	ChunkSize int // words per chunk
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize < 1 {
		config.ChunkSize = DefaultChunkSize
	}

	return Processor{
		config: config,
	}
}

func (p *Processor) ChunkSize() int {
	return p.config.ChunkSize
}

// Process splits the document content into chunks.
func (p *Processor) Process(doc models.Document) models.ProcessedDocument {
	return models.ProcessedDocument{
		Document: doc,
		Chunks:   p.Chunk(doc.Content),
	}
}

// Chunk partitions text into consecutive, non-overlapping windows of
// ChunkSize whitespace-delimited words joined by single spaces. The last
// window may be shorter. When no window is produced the input text is
// returned as the only chunk, so callers always get at least one.
func (p *Processor) Chunk(text string) []string {
	words := strings.Fields(text)

	var chunks []string
	for i := 0; i < len(words); i += p.config.ChunkSize {
		end := i + p.config.ChunkSize
		if end > len(words) {
			end = len(words)
		}

		chunk := strings.Join(words[i:end], " ")
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	if len(chunks) == 0 {
		return []string{text}
	}

	return chunks
}
