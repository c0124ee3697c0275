package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/xhad/pdfqa/internal/models"
	"github.com/xhad/pdfqa/internal/types"
)

const (
	defaultEFConstruction = 200
	defaultM              = 16

	// Field names in the Redis hash
	fieldUploadID   = "upload_id"
	fieldChunkIndex = "chunk_index"
	fieldContent    = "content"
	fieldVector     = "vector"
	fieldScore      = "score"
)

// RedisStore keeps chunk records as hashes indexed by RediSearch with an
// HNSW vector field and a TAG field for the upload id.
type RedisStore struct {
	client    *redis.Client
	indexName string
	keyPrefix string
	vectorDim int
}

func NewRedisStore(ctx context.Context, config VectorStoreConfig) (*RedisStore, error) {
	if config.RedisAddr == "" {
		config.RedisAddr = "localhost:6379"
	}
	if config.IndexName == "" {
		config.IndexName = "pdfqa-chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}

	// RESP2 keeps FT.SEARCH replies as flat arrays.
	client := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
		Protocol: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	s := &RedisStore{
		client:    client,
		indexName: config.IndexName,
		keyPrefix: config.IndexName + ":chunk:",
		vectorDim: config.VectorDim,
	}

	if err := s.ensureIndex(ctx); err != nil {
		client.Close()
		return nil, err
	}

	return s, nil
}

func (s *RedisStore) ensureIndex(ctx context.Context) error {
	// FT.CREATE <index> ON HASH PREFIX 1 <prefix>
	//   SCHEMA upload_id TAG chunk_index NUMERIC content TEXT
	//          vector VECTOR HNSW 10 TYPE FLOAT32 DIM <dim> DISTANCE_METRIC COSINE EF_CONSTRUCTION 200 M 16
	_, err := s.client.Do(ctx, "FT.CREATE", s.indexName,
		"ON", "HASH",
		"PREFIX", "1", s.keyPrefix,
		"SCHEMA",
		fieldUploadID, "TAG",
		fieldChunkIndex, "NUMERIC",
		fieldContent, "TEXT",
		fieldVector, "VECTOR", "HNSW", "10",
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(s.vectorDim),
		"DISTANCE_METRIC", "COSINE",
		"EF_CONSTRUCTION", strconv.Itoa(defaultEFConstruction),
		"M", strconv.Itoa(defaultM),
	).Result()
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "index already exists") {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	return nil
}

func (s *RedisStore) Upsert(ctx context.Context, record models.ChunkRecord) error {
	if len(record.Vector) != s.vectorDim {
		return fmt.Errorf("%w: vector has %d dimensions, index expects %d",
			types.ErrIndexWrite, len(record.Vector), s.vectorDim)
	}

	err := s.client.HSet(ctx, s.keyPrefix+record.ID,
		fieldUploadID, record.UploadID,
		fieldChunkIndex, record.ChunkIndex,
		fieldContent, sanitizeUTF8(record.Text),
		fieldVector, encodeVector(record.Vector),
	).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrIndexWrite, err)
	}
	return nil
}

func (s *RedisStore) Query(ctx context.Context, vector []float32, topK int, filter models.Filter) ([]models.Match, error) {
	if topK <= 0 {
		return []models.Match{}, nil
	}

	queryStr := fmt.Sprintf("(@%s:{%s})=>[KNN %d @%s $query_vector AS %s]",
		fieldUploadID, escapeTagValue(filter.UploadID), topK, fieldVector, fieldScore)

	result, err := s.client.Do(ctx, "FT.SEARCH", s.indexName, queryStr,
		"PARAMS", "2", "query_vector", encodeVector(vector),
		"SORTBY", fieldScore,
		"RETURN", "3", fieldUploadID, fieldContent, fieldScore,
		"LIMIT", "0", strconv.Itoa(topK),
		"DIALECT", "2",
	).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndexQuery, err)
	}

	matches, err := parseSearchResults(result, s.keyPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrIndexQuery, err)
	}
	return matches, nil
}

func (s *RedisStore) Close() {
	s.client.Close()
}

// encodeVector packs the vector as little-endian FLOAT32, the layout
// RediSearch expects for vector fields and query parameters.
func encodeVector(vector []float32) []byte {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// escapeTagValue escapes every TAG query special character.
func escapeTagValue(value string) string {
	var b strings.Builder
	for _, r := range value {
		if !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r > 127) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// parseSearchResults reads a RESP2 FT.SEARCH reply:
// [total, key1, [field, value, ...], key2, [...], ...].
func parseSearchResults(result interface{}, keyPrefix string) ([]models.Match, error) {
	values, ok := result.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected result format %T", result)
	}

	matches := []models.Match{}
	for i := 1; i+1 < len(values); i += 2 {
		key, ok := values[i].(string)
		if !ok {
			continue
		}
		fields, ok := values[i+1].([]interface{})
		if !ok {
			continue
		}

		m := models.Match{ID: strings.TrimPrefix(key, keyPrefix)}
		for j := 0; j+1 < len(fields); j += 2 {
			name, _ := fields[j].(string)
			value, _ := fields[j+1].(string)
			switch name {
			case fieldUploadID:
				m.UploadID = value
			case fieldContent:
				m.Text = value
			case fieldScore:
				distance, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("invalid score %q: %w", value, err)
				}
				m.Score = 1 - distance
			}
		}
		matches = append(matches, m)
	}

	return matches, nil
}
