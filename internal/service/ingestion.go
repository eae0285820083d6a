package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// UUIDGenerator defines interface for UUID generation (for testing)
type UUIDGenerator interface {
	NewString() string
}

// DefaultUUIDGenerator is the default UUID generator using google/uuid
type DefaultUUIDGenerator struct{}

// NewString generates a new UUID string
func (g *DefaultUUIDGenerator) NewString() string {
	return uuid.NewString()
}

// DocumentPage is one page of extracted document text.
type DocumentPage struct {
	Number int
	Text   string
}

// TextExtractor turns raw document bytes into page-segmented text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) ([]DocumentPage, error)
}

// DocumentStore fetches uploaded document bytes by key.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ChunkWriteRepository persists a batch of chunks.
type ChunkWriteRepository interface {
	InsertChunks(ctx context.Context, chunks []domain.Chunk) error
}

// IngestionScheduleRepository supplies schedule entries for topic inference.
type IngestionScheduleRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]domain.ScheduleEntry, error)
}

// TxRepositories exposes transactional repositories to a WithTx callback.
type TxRepositories interface {
	Chunks() ChunkWriteRepository
}

// TxRunner executes a function inside a single database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

const defaultEmbedConcurrency = 4

// IngestionService turns uploaded documents into embedded, searchable
// chunks. Chunk persistence is all-or-nothing: every chunk of a document is
// written in one transaction, so a failed or cancelled ingestion writes
// nothing and says so.
type IngestionService struct {
	extractor    TextExtractor
	chunker      *Chunker
	embedder     EmbeddingClient
	txRunner     TxRunner
	scheduleRepo IngestionScheduleRepository
	store        DocumentStore
	uuidGen      UUIDGenerator
	concurrency  int
}

// NewIngestionService creates a new IngestionService instance
func NewIngestionService(
	extractor TextExtractor,
	chunker *Chunker,
	embedder EmbeddingClient,
	txRunner TxRunner,
	scheduleRepo IngestionScheduleRepository,
) *IngestionService {
	return &IngestionService{
		extractor:    extractor,
		chunker:      chunker,
		embedder:     embedder,
		txRunner:     txRunner,
		scheduleRepo: scheduleRepo,
		uuidGen:      &DefaultUUIDGenerator{},
		concurrency:  defaultEmbedConcurrency,
	}
}

// WithDocumentStore enables ingestion from object storage keys.
func (s *IngestionService) WithDocumentStore(store DocumentStore) *IngestionService {
	s.store = store
	return s
}

// WithUUIDGenerator overrides ID generation (for testing).
func (s *IngestionService) WithUUIDGenerator(gen UUIDGenerator) *IngestionService {
	s.uuidGen = gen
	return s
}

// IngestInput describes one document upload.
type IngestInput struct {
	CourseID   string
	Title      string
	Data       []byte
	WeekNumber *int
	Topic      string
}

// IngestResult reports what an ingestion wrote.
type IngestResult struct {
	Source        string
	Pages         int
	ChunksWritten int
	PolicyChunks  int
	ConceptChunks int
}

// Ingest extracts, chunks, categorizes, embeds, and persists a document.
// A document that yields zero non-empty chunks is a hard failure, never a
// silent empty success.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IngestionService.Ingest", telemetry.SpanAttributes{
		CourseID:  input.CourseID,
		Operation: "ingest",
	})
	defer span.End()

	if input.CourseID == "" {
		return nil, domain.ErrCourseIDRequired
	}
	if len(input.Data) == 0 {
		return nil, domain.ErrEmptyDocument
	}
	if input.WeekNumber != nil && *input.WeekNumber < 1 {
		return nil, domain.ErrInvalidWeekNumber
	}

	pages, err := s.extractor.Extract(ctx, input.Data)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "failed to extract document text", err)
	}

	schedule, err := s.scheduleRepo.ListByCourse(ctx, input.CourseID)
	if err != nil {
		// Topic inference degrades to in-text markers when the schedule
		// store is unreachable; ingestion itself still proceeds.
		telemetry.CaptureError(ctx, err)
		schedule = nil
	}

	var chunks []domain.Chunk
	for _, page := range pages {
		pageNum := page.Number
		chunks = append(chunks, s.chunker.Chunk(ChunkInput{
			CourseID:   input.CourseID,
			Source:     input.Title,
			PageNumber: &pageNum,
			WeekNumber: input.WeekNumber,
			Topic:      input.Topic,
			Text:       page.Text,
		}, schedule)...)
	}

	if len(chunks) == 0 {
		return nil, domain.ErrEmptyDocument
	}

	now := time.Now().UTC()
	for i := range chunks {
		chunks[i].ID = s.uuidGen.NewString()
		chunks[i].CreatedAt = now
	}

	if err := s.embedChunks(ctx, chunks); err != nil {
		return nil, err
	}

	err = s.txRunner.WithTx(ctx, func(repos TxRepositories) error {
		return repos.Chunks().InsertChunks(ctx, chunks)
	})
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeInternalError,
			fmt.Sprintf("failed to persist chunks, 0 of %d written", len(chunks)), err)
	}

	result := &IngestResult{
		Source:        input.Title,
		Pages:         len(pages),
		ChunksWritten: len(chunks),
	}
	for _, c := range chunks {
		switch c.ContentType {
		case domain.ContentTypePolicy:
			result.PolicyChunks++
		case domain.ContentTypeConcept:
			result.ConceptChunks++
		}
	}
	return result, nil
}

// IngestFromStorage fetches document bytes from object storage by key and
// ingests them.
func (s *IngestionService) IngestFromStorage(ctx context.Context, key string, input IngestInput) (*IngestResult, error) {
	if s.store == nil {
		return nil, domain.NewDomainError(domain.ErrCodeInvalidOperation, "document store not configured")
	}

	data, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, domain.ErrDocumentNotFound
	}

	input.Data = data
	if input.Title == "" {
		input.Title = key
	}
	return s.Ingest(ctx, input)
}

// embedChunks fills in embeddings concurrently. Chunks have no inter-chunk
// ordering dependency, so a bounded worker group embeds them in parallel.
// On failure or cancellation the error reports how many chunks had embedded.
func (s *IngestionService) embedChunks(ctx context.Context, chunks []domain.Chunk) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	done := make([]bool, len(chunks))
	for i := range chunks {
		g.Go(func() error {
			embedding, err := s.embedder.GenerateEmbedding(gctx, chunks[i].Content)
			if err != nil {
				return err
			}
			chunks[i].Embedding = embedding
			done[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		embedded := 0
		for _, ok := range done {
			if ok {
				embedded++
			}
		}
		return domain.NewDomainErrorWithCause(domain.ErrCodeUpstream,
			fmt.Sprintf("embedding failed after %d of %d chunks, nothing was written", embedded, len(chunks)), err)
	}
	return nil
}
