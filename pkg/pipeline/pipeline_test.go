package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"unicode"

	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
	"github.com/xhad/pdfqa/pkg/store"
)

var vocabulary = []string{"alpha", "beta", "gamma", "delta", "epsilon"}

var quiet = log.New(io.Discard, "", 0)

// keywordEmbedder counts vocabulary words. Texts containing "poison" fail.
type keywordEmbedder struct {
	mu    sync.Mutex
	calls int
}

func (e *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()

	if strings.Contains(text, "poison") {
		return nil, fmt.Errorf("%w: provider rejected input", types.ErrEmbedding)
	}

	vector := make([]float32, len(vocabulary))
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool { return !unicode.IsLetter(r) })
	for _, w := range words {
		for i, v := range vocabulary {
			if w == v {
				vector[i]++
			}
		}
	}
	return vector, nil
}

// flakyStore fails writes for the listed chunk indexes.
type flakyStore struct {
	*store.MemoryStore
	failIndexes map[int]bool
	queryErr    error
}

func newFlakyStore(failIndexes ...int) *flakyStore {
	fail := make(map[int]bool)
	for _, i := range failIndexes {
		fail[i] = true
	}
	return &flakyStore{MemoryStore: store.NewMemoryStore(), failIndexes: fail}
}

func (s *flakyStore) Upsert(ctx context.Context, record models.ChunkRecord) error {
	if s.failIndexes[record.ChunkIndex] {
		return fmt.Errorf("%w: connection reset", types.ErrIndexWrite)
	}
	return s.MemoryStore.Upsert(ctx, record)
}

func (s *flakyStore) Query(ctx context.Context, vector []float32, topK int, filter models.Filter) ([]models.Match, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	return s.MemoryStore.Query(ctx, vector, topK, filter)
}

type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

type templatePrompts struct{}

func (templatePrompts) BuildPrompt(context, question string) string {
	return "Answer the question based on the following text:\n\n" + context + "\n\nQuestion: " + question
}

var errQuota = errors.New("quota exceeded")
