package domain

import (
	"fmt"
	"time"
)

// ContentType classifies what kind of material a chunk holds.
type ContentType string

const (
	ContentTypePolicy  ContentType = "policy"
	ContentTypeConcept ContentType = "concept"
)

// Chunk represents a bounded segment of ingested course material with its
// embedding. Chunks are immutable once written; re-ingesting a document
// produces new chunks.
type Chunk struct {
	ID          string
	CourseID    string
	Source      string // title of the document the chunk came from
	Content     string
	ContentType ContentType
	PageNumber  *int
	WeekNumber  *int
	Topic       string
	Embedding   []float32
	CreatedAt   time.Time
}

// ValidateChunk validates a Chunk instance
func ValidateChunk(c *Chunk) error {
	if c == nil {
		return fmt.Errorf("chunk cannot be nil")
	}

	if c.ID == "" {
		return fmt.Errorf("chunk ID is required")
	}

	if c.CourseID == "" {
		return fmt.Errorf("chunk CourseID is required")
	}

	if c.Content == "" {
		return fmt.Errorf("chunk Content is required")
	}

	if !IsValidContentType(c.ContentType) {
		return fmt.Errorf("chunk ContentType is invalid: %s", c.ContentType)
	}

	if c.PageNumber != nil && *c.PageNumber < 1 {
		return fmt.Errorf("chunk PageNumber must be positive")
	}

	if c.WeekNumber != nil && *c.WeekNumber < 1 {
		return fmt.Errorf("chunk WeekNumber must be positive")
	}

	return nil
}

// IsValidContentType checks if a ContentType is valid
func IsValidContentType(t ContentType) bool {
	switch t {
	case ContentTypePolicy, ContentTypeConcept:
		return true
	}
	return false
}
