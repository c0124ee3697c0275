package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
)

// MemoryStore is an in-process index using brute-force cosine similarity.
// Records are lost when the process exits.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.ChunkRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.ChunkRecord)}
}

func (s *MemoryStore) Upsert(ctx context.Context, record models.ChunkRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
	}
	if record.ID == "" {
		return fmt.Errorf("%w: record id is required", types.ErrIndexWrite)
	}

	vector := make([]float32, len(record.Vector))
	copy(vector, record.Vector)
	record.Vector = vector

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ID] = record
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, vector []float32, topK int, filter models.Filter) ([]models.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndexQuery, err)
	}
	if topK <= 0 {
		return []models.Match{}, nil
	}

	s.mu.RLock()
	matches := make([]models.Match, 0, len(s.records))
	for _, r := range s.records {
		if r.UploadID != filter.UploadID {
			continue
		}
		matches = append(matches, models.Match{
			ID:       r.ID,
			UploadID: r.UploadID,
			Text:     r.Text,
			Score:    cosine(vector, r.Vector),
		})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score == matches[j].Score {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count returns the number of records stored for an upload.
func (s *MemoryStore) Count(uploadID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.UploadID == uploadID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) Close() {}
