// Package extract turns uploaded document bytes into page-segmented text.
// The pipeline only depends on the service.TextExtractor contract, so
// format-specific extractors (PDF, DOCX) can slot in beside this one.
package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/service"
)

// PlainText extracts UTF-8 text documents, treating form feeds as page
// breaks. Documents without form feeds come back as a single page.
type PlainText struct{}

// NewPlainText creates a PlainText extractor.
func NewPlainText() *PlainText {
	return &PlainText{}
}

// Extract implements service.TextExtractor.
func (e *PlainText) Extract(_ context.Context, data []byte) ([]service.DocumentPage, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if !utf8.Valid(data) {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "document is not valid UTF-8 text")
	}

	pages := make([]service.DocumentPage, 0, 1)
	for i, raw := range strings.Split(string(data), "\f") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		pages = append(pages, service.DocumentPage{
			Number: i + 1,
			Text:   text,
		})
	}

	if len(pages) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	return pages, nil
}
