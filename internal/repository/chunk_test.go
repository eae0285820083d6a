//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/coursepilot/coursepilot/internal/testutil"
)

// basisEmbedding returns a 1536-dim unit vector with a 1 at the given index.
// Two different basis vectors have cosine distance 1, so a query against its
// own basis scores 1.0 and against any other scores 0.5.
func basisEmbedding(index int) []float32 {
	v := make([]float32, 1536)
	v[index] = 1
	return v
}

func testChunk(courseID string, contentType domain.ContentType, content string, embedding []float32) domain.Chunk {
	page := 1
	return domain.Chunk{
		ID:          uuid.NewString(),
		CourseID:    courseID,
		Source:      "syllabus.txt",
		Content:     content,
		ContentType: contentType,
		PageNumber:  &page,
		Embedding:   embedding,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestChunkRepository_InsertAndCount(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	chunks := []domain.Chunk{
		testChunk("cs101", domain.ContentTypePolicy, "Late work loses 10% per day.", basisEmbedding(0)),
		testChunk("cs101", domain.ContentTypeConcept, "A hash table maps keys to buckets.", basisEmbedding(1)),
		testChunk("math200", domain.ContentTypeConcept, "Integration by parts.", basisEmbedding(2)),
	}
	require.NoError(t, repo.InsertChunks(ctx, chunks))

	count, err := repo.CountByCourse(ctx, "cs101")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountByCourse(ctx, "empty101")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestChunkRepository_InsertChunks_InvalidChunk(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	bad := testChunk("cs101", domain.ContentType("opinion"), "content", basisEmbedding(0))
	err := repo.InsertChunks(ctx, []domain.Chunk{bad})

	assert.Error(t, err)
}

func TestChunkRepository_Search(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	near := testChunk("cs101", domain.ContentTypePolicy, "Late work loses 10% per day.", basisEmbedding(0))
	far := testChunk("cs101", domain.ContentTypePolicy, "Attendance is not graded.", basisEmbedding(1))
	otherCourse := testChunk("math200", domain.ContentTypePolicy, "Exams are closed book.", basisEmbedding(0))
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{near, far, otherCourse}))

	results, err := repo.Search(ctx, basisEmbedding(0), service.SearchFilters{CourseID: "cs101"}, 5)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The aligned chunk comes first with a perfect score; the orthogonal
	// one scores 1/(1+1).
	assert.Equal(t, near.ID, results[0].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 0.001)
	assert.Equal(t, far.ID, results[1].Chunk.ID)
	assert.InDelta(t, 0.5, results[1].Score, 0.001)
}

func TestChunkRepository_Search_MinScore(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	near := testChunk("cs101", domain.ContentTypePolicy, "Late work loses 10% per day.", basisEmbedding(0))
	far := testChunk("cs101", domain.ContentTypePolicy, "Attendance is not graded.", basisEmbedding(1))
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{near, far}))

	results, err := repo.Search(ctx, basisEmbedding(0), service.SearchFilters{CourseID: "cs101", MinScore: 0.6}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, near.ID, results[0].Chunk.ID)
}

func TestChunkRepository_Search_ContentTypeFilter(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	policy := testChunk("cs101", domain.ContentTypePolicy, "Late work loses 10% per day.", basisEmbedding(0))
	concept := testChunk("cs101", domain.ContentTypeConcept, "A hash table maps keys to buckets.", basisEmbedding(0))
	require.NoError(t, repo.InsertChunks(ctx, []domain.Chunk{policy, concept}))

	results, err := repo.Search(ctx, basisEmbedding(0), service.SearchFilters{
		CourseID:    "cs101",
		ContentType: domain.ContentTypeConcept,
	}, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, concept.ID, results[0].Chunk.ID)
	assert.Equal(t, domain.ContentTypeConcept, results[0].Chunk.ContentType)
}

func TestChunkRepository_Search_NoMatches(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewChunkRepository(pool)

	results, err := repo.Search(ctx, basisEmbedding(0), service.SearchFilters{CourseID: "cs101"}, 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}
