package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/pagination"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EscalationRepository handles persistence of escalation records.
type EscalationRepository struct {
	db dbtx
}

func NewEscalationRepository(pool *pgxpool.Pool) *EscalationRepository {
	return &EscalationRepository{db: pool}
}

func (r *EscalationRepository) Create(ctx context.Context, e *domain.Escalation) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO escalations
			(id, course_id, student_id, query, category, status, response, created_at, responded_at, resolved_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.CourseID, e.StudentID, e.Query, e.Category, e.Status,
		nullableString(e.Response), e.CreatedAt, e.RespondedAt, e.ResolvedAt,
	)
	return err
}

func (r *EscalationRepository) GetByID(ctx context.Context, id string) (*domain.Escalation, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, course_id, student_id, query, category, status, response, created_at, responded_at, resolved_at
		 FROM escalations WHERE id = $1`,
		id,
	)

	escalation, err := scanEscalation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEscalationNotFound
		}
		return nil, err
	}
	return escalation, nil
}

func (r *EscalationRepository) Update(ctx context.Context, e *domain.Escalation) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE escalations
		 SET category = $1, status = $2, response = $3, responded_at = $4, resolved_at = $5
		 WHERE id = $6`,
		e.Category, e.Status, nullableString(e.Response), e.RespondedAt, e.ResolvedAt, e.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEscalationNotFound
	}
	return nil
}

// ListByCourse returns a page of escalations for a course in reverse
// creation order, optionally filtered by status.
func (r *EscalationRepository) ListByCourse(ctx context.Context, courseID string, status domain.EscalationStatus, cursor *pagination.Cursor, limit int) (*service.EscalationPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, course_id, student_id, query, category, status, response, created_at, responded_at, resolved_at
		FROM escalations
		WHERE course_id = $1`
	args := []interface{}{courseID}

	if status != "" {
		args = append(args, status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}

	if cursor != nil {
		args = append(args, cursor.Timestamp, cursor.LastID)
		n := len(args)
		query += ` AND (created_at, id) < ($` + strconv.Itoa(n-1) + `, $` + strconv.Itoa(n) + `)`
	}

	args = append(args, limit+1)
	query += `
		ORDER BY created_at DESC, id DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Escalation
	for rows.Next() {
		escalation, err := scanEscalation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, escalation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &service.EscalationPageResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		result.HasMore = true
		last := result.Items[limit-1]
		result.NextCursor = pagination.EncodeCursor(last.ID, last.CreatedAt)
	}
	return result, nil
}

func scanEscalation(row pgx.Row) (*domain.Escalation, error) {
	var e domain.Escalation
	var response *string
	err := row.Scan(
		&e.ID, &e.CourseID, &e.StudentID, &e.Query, &e.Category, &e.Status,
		&response, &e.CreatedAt, &e.RespondedAt, &e.ResolvedAt,
	)
	if err != nil {
		return nil, err
	}
	if response != nil {
		e.Response = *response
	}
	return &e, nil
}
