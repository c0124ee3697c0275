package store

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
)

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// VectorStore keeps chunk records in a PostgreSQL table with a pgvector
// column.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text and text-embedding-004
	}
	if !tableNameRe.MatchString(config.TableName) {
		return nil, fmt.Errorf("invalid table name %q", config.TableName)
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			upload_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, vs.config.TableName, vs.config.VectorDim)

	if _, err = vs.pool.Exec(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	// Queries rank one upload's rows exactly via the upload_id btree.
	// Tables from older versions carry an ivfflat index that is dropped.
	createIndexes := []string{
		fmt.Sprintf(`DROP INDEX IF EXISTS %s_embedding_idx`, vs.config.TableName),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_upload_id_idx ON %s (upload_id)`,
			vs.config.TableName, vs.config.TableName),
	}

	for _, stmt := range createIndexes {
		if _, err = vs.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Upsert writes one record. Writing the same id twice keeps a single row.
func (vs *VectorStore) Upsert(ctx context.Context, record models.ChunkRecord) error {
	if len(record.Vector) != vs.config.VectorDim {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			types.ErrIndexWrite, len(record.Vector), vs.config.VectorDim)
	}

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, upload_id, chunk_index, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			upload_id = EXCLUDED.upload_id,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	_, err := vs.pool.Exec(ctx, stmt,
		record.ID,
		record.UploadID,
		record.ChunkIndex,
		sanitizeUTF8(record.Text),
		pgvector.NewVector(record.Vector),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
	}

	return nil
}

// Query returns the topK records of the filtered upload closest to the
// query embedding by exact cosine distance.
func (vs *VectorStore) Query(ctx context.Context, queryEmbedding []float32, topK int, filter models.Filter) ([]models.Match, error) {
	if topK <= 0 {
		return []models.Match{}, nil
	}

	query := fmt.Sprintf(`
		SELECT id, upload_id, content, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE upload_id = $2
		ORDER BY embedding <=> $1
		LIMIT $3`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(queryEmbedding), filter.UploadID, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndexQuery, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0, topK)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(&m.ID, &m.UploadID, &m.Text, &m.Score); err != nil {
			return nil, fmt.Errorf("%w: failed to scan row: %v", types.ErrIndexQuery, err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndexQuery, err)
	}

	return matches, nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}
