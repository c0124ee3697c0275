package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type IngestorConfig struct {
	Workers      int     // concurrent chunks, 1 processes them in order
	RateLimit    float64 // embedding calls per second, 0 means unlimited
	EmbedTimeout time.Duration
	WriteTimeout time.Duration
	Logger       *log.Logger
	OnProgress   func(done, total int)
}

// Ingestor chunks a document, embeds every chunk and stores the records
// under a fresh upload id.
type Ingestor struct {
	config   IngestorConfig
	chunker  types.Chunker
	embedder types.Embedder
	store    types.VectorStore
	limiter  *rate.Limiter
}

func NewIngestor(chunker types.Chunker, embedder types.Embedder, store types.VectorStore, config IngestorConfig) *Ingestor {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.EmbedTimeout == 0 {
		config.EmbedTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = log.Default()
	}

	limit := rate.Inf
	if config.RateLimit > 0 {
		limit = rate.Limit(config.RateLimit)
	}

	return &Ingestor{
		config:   config,
		chunker:  chunker,
		embedder: embedder,
		store:    store,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Ingest stores text under a new upload id. A failing chunk is logged and
// reported but never stops the others; only when every chunk fails does
// Ingest return types.ErrIngestionFailed.
func (in *Ingestor) Ingest(ctx context.Context, name, text string) (models.IngestReport, error) {
	if strings.TrimSpace(text) == "" {
		return models.IngestReport{}, types.ErrEmptyDocument
	}

	uploadID := NewUploadID(name)
	chunks := in.chunker.Process(models.Document{Name: name, Content: text}).Chunks

	report := models.IngestReport{
		UploadID:       uploadID,
		Chunks:         len(chunks),
		FailedChunkIDs: []string{},
	}

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	g.SetLimit(in.config.Workers)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		id := ChunkID(uploadID, i)

		g.Go(func() error {
			err := in.storeChunk(ctx, models.ChunkRecord{
				ID:         id,
				UploadID:   uploadID,
				ChunkIndex: i,
				Text:       chunk,
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				in.config.Logger.Printf("Error processing chunk %d of %s: %v", i, uploadID, err)
				report.Failed++
				report.FailedChunkIDs = append(report.FailedChunkIDs, id)
			} else {
				report.Succeeded++
			}
			done++
			if in.config.OnProgress != nil {
				in.config.OnProgress(done, len(chunks))
			}
			return nil
		})
	}
	_ = g.Wait()

	if report.Succeeded == 0 {
		return report, fmt.Errorf("%w: %d of %d chunks failed for %s", types.ErrIngestionFailed, report.Failed, report.Chunks, name)
	}
	if report.Failed > 0 {
		in.config.Logger.Printf("Partially ingested %s as %s: %d of %d chunks stored", name, uploadID, report.Succeeded, report.Chunks)
	}

	return report, nil
}

func (in *Ingestor) storeChunk(ctx context.Context, record models.ChunkRecord) error {
	if err := in.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", types.ErrEmbedding, err)
	}

	embedCtx, cancel := context.WithTimeout(ctx, in.config.EmbedTimeout)
	vector, err := in.embedder.Embed(embedCtx, record.Text)
	cancel()
	if err != nil {
		return err
	}
	record.Vector = vector

	writeCtx, cancel := context.WithTimeout(ctx, in.config.WriteTimeout)
	defer cancel()
	return in.store.Upsert(writeCtx, record)
}

// NewUploadID derives an identifier from the file name plus a random uuid,
// so two uploads of the same file never share records.
func NewUploadID(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= 48 {
			break
		}
	}

	prefix := strings.Trim(b.String(), "_")
	if prefix == "" {
		prefix = "upload"
	}
	return prefix + "-" + uuid.NewString()
}

// ChunkID is the record id of the i-th chunk of an upload.
func ChunkID(uploadID string, i int) string {
	return fmt.Sprintf("%s-chunk-%d", uploadID, i)
}
