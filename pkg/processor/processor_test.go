package processor_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/pkg/processor"
)

func TestProcessor_Process(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: 2})

	doc := models.Document{Name: "greek.pdf", Content: "alpha beta gamma delta"}

	processed := p.Process(doc)

	assert.Equal(t, doc, processed.Document)
	assert.Equal(t, []string{"alpha beta", "gamma delta"}, processed.Chunks)
}

func TestProcessor_DefaultChunkSize(t *testing.T) {
	p := processor.NewWithConfig(processor.ProcessorConfig{})
	assert.Equal(t, processor.DefaultChunkSize, p.ChunkSize())

	p = processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: -4})
	assert.Equal(t, processor.DefaultChunkSize, p.ChunkSize())
}

func TestProcessor_Chunk(t *testing.T) {
	tests := []struct {
		name      string
		chunkSize int
		text      string
		want      []string
	}{
		{"exact windows", 2, "alpha beta gamma delta", []string{"alpha beta", "gamma delta"}},
		{"short tail", 3, "a b c d e", []string{"a b c", "d e"}},
		{"collapses whitespace", 2, "  a\n\nb\t c  ", []string{"a b", "c"}},
		{"one word per chunk", 1, "x y", []string{"x", "y"}},
		{"chunk larger than text", 10, "only three words", []string{"only three words"}},
		{"long token is not split", 1, strings.Repeat("z", 5000), []string{strings.Repeat("z", 5000)}},
		{"empty text", 5, "", []string{""}},
		{"whitespace only", 5, " \n\t ", []string{" \n\t "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: tt.chunkSize})
			assert.Equal(t, tt.want, p.Chunk(tt.text))
		})
	}
}

func TestProcessor_ChunkIsLossless(t *testing.T) {
	text := "The quick brown fox\njumps over\tthe lazy dog and keeps running far away"
	words := strings.Fields(text)

	for size := 1; size <= len(words)+1; size++ {
		p := processor.NewWithConfig(processor.ProcessorConfig{ChunkSize: size})
		chunks := p.Chunk(text)

		assert.Equal(t, strings.Join(words, " "), strings.Join(chunks, " "), "size %d", size)
		assert.Len(t, chunks, (len(words)+size-1)/size, "size %d", size)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(strings.Fields(c)), size)
		}
	}
}
