package repository

import (
	"context"
	"strconv"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// ChunkRepository handles persistence and vector search of document chunks.
type ChunkRepository struct {
	db dbtx
}

func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{db: pool}
}

func NewChunkRepositoryWithTx(tx pgx.Tx) *ChunkRepository {
	return &ChunkRepository{db: tx}
}

// InsertChunks writes a batch of chunks. Callers wanting all-or-nothing
// semantics run this inside a transaction via TxRunner.
func (r *ChunkRepository) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if err := domain.ValidateChunk(&c); err != nil {
			return err
		}
		_, err := r.db.Exec(ctx,
			`INSERT INTO chunks
				(id, course_id, source, content, content_type, page_number, week_number, topic, embedding, created_at)
			 VALUES
				($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			c.ID,
			c.CourseID,
			c.Source,
			c.Content,
			c.ContentType,
			c.PageNumber,
			c.WeekNumber,
			nullableString(c.Topic),
			pgvector.NewVector(c.Embedding),
			c.CreatedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// Search returns the chunks nearest to the query embedding, scoped to one
// course, scored as 1/(1+distance) and filtered by the similarity floor.
func (r *ChunkRepository) Search(ctx context.Context, embedding []float32, filters service.SearchFilters, limit int) ([]*service.ChunkSearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT id, course_id, source, content, content_type, page_number, week_number, topic, created_at,
		       1.0 / (1.0 + (embedding <=> $1)) AS score
		FROM chunks
		WHERE course_id = $2`
	args := []interface{}{vec, filters.CourseID}

	if filters.ContentType != "" {
		args = append(args, filters.ContentType)
		query += ` AND content_type = $3`
	}

	query += `
		ORDER BY score DESC
		LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*service.ChunkSearchResult, 0)
	for rows.Next() {
		var result service.ChunkSearchResult
		var topic *string
		err := rows.Scan(
			&result.Chunk.ID,
			&result.Chunk.CourseID,
			&result.Chunk.Source,
			&result.Chunk.Content,
			&result.Chunk.ContentType,
			&result.Chunk.PageNumber,
			&result.Chunk.WeekNumber,
			&topic,
			&result.Chunk.CreatedAt,
			&result.Score,
		)
		if err != nil {
			return nil, err
		}
		if topic != nil {
			result.Chunk.Topic = *topic
		}
		if result.Score < filters.MinScore {
			continue
		}
		results = append(results, &result)
	}

	return results, rows.Err()
}

// CountByCourse reports how many chunks a course has.
func (r *ChunkRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM chunks WHERE course_id = $1`, courseID,
	).Scan(&count)
	return count, err
}
