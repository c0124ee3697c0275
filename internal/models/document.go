package models

// Document is the extracted text of one uploaded file. It only lives for
// the duration of an ingestion call.
type Document struct {
	Name    string
	Content string
}

type ProcessedDocument struct {
	Document
	Chunks []string
}

// ChunkRecord is what the vector index stores for every chunk. Records are
// written once and never updated.
type ChunkRecord struct {
	ID         string
	UploadID   string
	ChunkIndex int
	Text       string
	Vector     []float32
}

// Match is a single query hit.
type Match struct {
	ID       string  `json:"id"`
	UploadID string  `json:"uploadId"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// Filter restricts a query to the records of one upload.
type Filter struct {
	UploadID string
}

// IngestReport describes the outcome of one ingestion call.
type IngestReport struct {
	UploadID       string   `json:"fileId"`
	Chunks         int      `json:"chunks"`
	Succeeded      int      `json:"succeeded"`
	Failed         int      `json:"failed"`
	FailedChunkIDs []string `json:"failedChunkIds"`
}
