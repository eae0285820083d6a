package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/coursepilot/coursepilot/internal/domain"
)

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// CompletionClient defines the interface for text generation
type CompletionClient interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// SearchFilters restricts a nearest-neighbor query. CourseID is mandatory;
// ContentType narrows the search to one chunk category when set. MinScore
// excludes results below the similarity threshold.
type SearchFilters struct {
	CourseID    string
	ContentType domain.ContentType
	MinScore    float32
}

// ChunkSearchResult is one retrieved chunk with its similarity score.
type ChunkSearchResult struct {
	Chunk domain.Chunk
	Score float32
}

// ChunkSearchRepository answers course-scoped nearest-neighbor queries.
type ChunkSearchRepository interface {
	Search(ctx context.Context, embedding []float32, filters SearchFilters, limit int) ([]*ChunkSearchResult, error)
}

// RetrievalService embeds a query and fetches the nearest chunks.
type RetrievalService struct {
	embedder EmbeddingClient
	repo     ChunkSearchRepository
}

// NewRetrievalService creates a new RetrievalService instance
func NewRetrievalService(embedder EmbeddingClient, repo ChunkSearchRepository) *RetrievalService {
	return &RetrievalService{
		embedder: embedder,
		repo:     repo,
	}
}

// Search embeds the query text and returns up to limit chunks for the
// course, most similar first, each with a score. Results below
// filters.MinScore are excluded.
func (s *RetrievalService) Search(ctx context.Context, query string, filters SearchFilters, limit int) ([]*ChunkSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if filters.CourseID == "" {
		return nil, domain.ErrCourseIDRequired
	}
	if filters.ContentType != "" && !domain.IsValidContentType(filters.ContentType) {
		return nil, domain.ErrInvalidContentType
	}
	if limit <= 0 {
		limit = 5
	}

	embedding, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "failed to embed query", err)
	}

	results, err := s.repo.Search(ctx, embedding, filters, limit)
	if err != nil {
		return nil, fmt.Errorf("chunk search failed: %w", err)
	}

	return results, nil
}
