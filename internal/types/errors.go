package types

import "errors"

// Pipeline errors. Callers match them with errors.Is; the concrete cause is
// wrapped behind them.
var (
	// ErrEmptyDocument indicates extraction produced no text.
	ErrEmptyDocument = errors.New("could not extract text from document")

	ErrEmptyQuestion   = errors.New("question is required")
	ErrMissingUploadID = errors.New("fileId is required")

	// ErrUnsupportedType indicates no extractor handles the uploaded file.
	ErrUnsupportedType = errors.New("unsupported document type")

	ErrEmbedding  = errors.New("embedding failed")
	ErrIndexWrite = errors.New("index write failed")
	ErrIndexQuery = errors.New("index query failed")
	ErrGeneration = errors.New("generation failed")

	// ErrIngestionFailed is returned when every chunk of a document failed.
	ErrIngestionFailed = errors.New("ingestion failed for every chunk")

	// ErrNoContextFound is only returned when the answerer is configured to
	// refuse questions that retrieve nothing.
	ErrNoContextFound = errors.New("no context found for upload")
)

// IsClientError reports whether err was caused by bad caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrEmptyQuestion) ||
		errors.Is(err, ErrMissingUploadID) ||
		errors.Is(err, ErrUnsupportedType)
}
