package store

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/xhad/pdfqa/internal/types"
)

const (
	BackendPGVector = "pgvector"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

type VectorStoreConfig struct {
	Backend   string
	VectorDim int

	// pgvector
	ConnString string
	TableName  string

	// redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	IndexName     string
}

// New opens the configured vector index backend.
func New(ctx context.Context, config VectorStoreConfig) (types.VectorStore, error) {
	switch config.Backend {
	case "", BackendPGVector:
		return NewWithConfig(ctx, config)
	case BackendRedis:
		return NewRedisStore(ctx, config)
	case BackendMemory:
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown vector store backend %q", config.Backend)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// sanitizeUTF8 drops invalid byte sequences and NUL bytes, which
// PostgreSQL TEXT columns reject.
func sanitizeUTF8(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
