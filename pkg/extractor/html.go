package extractor

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var contentSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".documentation",
	"#documentation",
}

func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript").Remove()

	var content string
	for _, selector := range contentSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	if strings.TrimSpace(content) == "" {
		content = doc.Find("body").Text()
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	content = strings.Join(strings.Fields(content), " ")
	if title != "" && !strings.HasPrefix(content, title) {
		content = title + "\n" + content
	}

	return sanitizeUTF8(content), nil
}

// sanitizeUTF8 drops invalid byte sequences and NUL bytes so the text can
// be stored in UTF-8 columns and sent to the embedding API. PDFs without a
// ToUnicode map often yield NULs.
func sanitizeUTF8(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}
