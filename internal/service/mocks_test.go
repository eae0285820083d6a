package service

import (
	"context"
	"fmt"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/pagination"
	"github.com/stretchr/testify/mock"
)

// MockCompletionClient is a mock implementation of CompletionClient
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	args := m.Called(ctx, system, prompt)
	return args.String(0), args.Error(1)
}

// MockEmbeddingClient is a mock implementation of EmbeddingClient
type MockEmbeddingClient struct {
	mock.Mock
}

func (m *MockEmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

// MockChunkSearchRepository is a mock implementation of ChunkSearchRepository
type MockChunkSearchRepository struct {
	mock.Mock
}

func (m *MockChunkSearchRepository) Search(ctx context.Context, embedding []float32, filters SearchFilters, limit int) ([]*ChunkSearchResult, error) {
	args := m.Called(ctx, embedding, filters, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*ChunkSearchResult), args.Error(1)
}

// MockEscalationRepository is a mock implementation of EscalationRepository
type MockEscalationRepository struct {
	mock.Mock
}

func (m *MockEscalationRepository) Create(ctx context.Context, e *domain.Escalation) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEscalationRepository) GetByID(ctx context.Context, id string) (*domain.Escalation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escalation), args.Error(1)
}

func (m *MockEscalationRepository) Update(ctx context.Context, e *domain.Escalation) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEscalationRepository) ListByCourse(ctx context.Context, courseID string, status domain.EscalationStatus, cursor *pagination.Cursor, limit int) (*EscalationPageResult, error) {
	args := m.Called(ctx, courseID, status, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*EscalationPageResult), args.Error(1)
}

// MockAnnouncementRepository is a mock implementation of AnnouncementRepository
type MockAnnouncementRepository struct {
	mock.Mock
}

func (m *MockAnnouncementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockAnnouncementRepository) GetByCourseWeek(ctx context.Context, courseID string, week int) (*domain.Announcement, error) {
	args := m.Called(ctx, courseID, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *MockAnnouncementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *MockAnnouncementRepository) ListByCourse(ctx context.Context, courseID string) ([]*domain.Announcement, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Announcement), args.Error(1)
}

func (m *MockAnnouncementRepository) Publish(ctx context.Context, id string, publishedAt time.Time) (*domain.Announcement, error) {
	args := m.Called(ctx, id, publishedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) GetByCourseWeek(ctx context.Context, courseID string, week int) (*domain.ScheduleEntry, error) {
	args := m.Called(ctx, courseID, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleEntry), args.Error(1)
}

func (m *MockScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.ScheduleEntry, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduleEntry), args.Error(1)
}

func (m *MockScheduleRepository) ListCourses(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockTextExtractor is a mock implementation of TextExtractor
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, data []byte) ([]DocumentPage, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]DocumentPage), args.Error(1)
}

// MockDocumentStore is a mock implementation of DocumentStore
type MockDocumentStore struct {
	mock.Mock
}

func (m *MockDocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// fakeTxRunner runs the callback against an in-memory chunk sink so tests
// can assert exactly what a transaction would have written.
type fakeTxRunner struct {
	inserted  []domain.Chunk
	beginErr  error
	insertErr error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(&fakeTxRepositories{runner: f})
}

type fakeTxRepositories struct {
	runner *fakeTxRunner
}

func (f *fakeTxRepositories) Chunks() ChunkWriteRepository {
	return &fakeChunkWriter{runner: f.runner}
}

type fakeChunkWriter struct {
	runner *fakeTxRunner
}

func (f *fakeChunkWriter) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if f.runner.insertErr != nil {
		return f.runner.insertErr
	}
	f.runner.inserted = append(f.runner.inserted, chunks...)
	return nil
}

// stubUUIDGenerator produces deterministic sequential IDs.
type stubUUIDGenerator struct {
	n int
}

func (g *stubUUIDGenerator) NewString() string {
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}
