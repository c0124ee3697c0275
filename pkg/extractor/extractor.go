package extractor

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/xhad/pdfqa/internal/types"
)

// Kind is the document format an extractor understands.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindHTML Kind = "html"
	KindText Kind = "text"
)

type ExtractorConfig struct {
	// AllowedKinds limits which formats are accepted. Empty means all.
	AllowedKinds []Kind
}

// Extractor turns uploaded bytes into plain text.
type Extractor struct {
	config  ExtractorConfig
	allowed map[Kind]bool
}

func NewWithConfig(config ExtractorConfig) *Extractor {
	if len(config.AllowedKinds) == 0 {
		config.AllowedKinds = []Kind{KindPDF, KindHTML, KindText}
	}

	allowed := make(map[Kind]bool, len(config.AllowedKinds))
	for _, k := range config.AllowedKinds {
		allowed[k] = true
	}

	return &Extractor{
		config:  config,
		allowed: allowed,
	}
}

func New() *Extractor {
	return NewWithConfig(ExtractorConfig{})
}

// Extract returns the text content of data. Unreadable documents and
// documents without any text are reported as types.ErrEmptyDocument.
func (e *Extractor) Extract(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	kind, ok := Detect(name, contentType, data)
	if !ok || !e.allowed[kind] {
		return "", fmt.Errorf("%w: %s", types.ErrUnsupportedType, describe(name, contentType))
	}

	var (
		text string
		err  error
	)
	switch kind {
	case KindPDF:
		text, err = extractPDF(data)
	case KindHTML:
		text, err = extractHTML(data)
	case KindText:
		text = sanitizeUTF8(string(data))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", types.ErrEmptyDocument, name, err)
	}

	if strings.TrimSpace(text) == "" {
		return "", types.ErrEmptyDocument
	}

	return text, nil
}

// Detect picks the document kind from the file extension, the declared
// content type and finally the leading bytes.
func Detect(name, contentType string, data []byte) (Kind, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return KindPDF, true
	case ".html", ".htm", ".xhtml":
		return KindHTML, true
	case ".txt", ".text", ".md", ".markdown":
		return KindText, true
	}

	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/pdf":
			return KindPDF, true
		case "text/html", "application/xhtml+xml":
			return KindHTML, true
		case "text/plain", "text/markdown":
			return KindText, true
		}
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	switch {
	case bytes.HasPrefix(trimmed, []byte("%PDF-")):
		return KindPDF, true
	case hasPrefixFold(trimmed, "<!doctype html"), hasPrefixFold(trimmed, "<html"):
		return KindHTML, true
	}

	return "", false
}

func hasPrefixFold(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && strings.EqualFold(string(b[:len(prefix)]), prefix)
}

func describe(name, contentType string) string {
	if contentType == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, contentType)
}
