package repository

import (
	"context"
	"errors"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnnouncementRepository handles persistence of weekly announcement drafts.
// The announcements table carries UNIQUE (course_id, week_number); that
// constraint, not application logic, is what guarantees at most one
// announcement per course and week.
type AnnouncementRepository struct {
	db dbtx
}

func NewAnnouncementRepository(pool *pgxpool.Pool) *AnnouncementRepository {
	return &AnnouncementRepository{db: pool}
}

// Create inserts a new draft. A uniqueness violation on (course_id,
// week_number) surfaces as domain.ErrAnnouncementExists so callers can
// treat the race as "already exists, fetch it".
func (r *AnnouncementRepository) Create(ctx context.Context, a *domain.Announcement) error {
	if err := domain.ValidateAnnouncement(a); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid announcement", err)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO announcements
			(id, course_id, week_number, title, content, status, created_at, updated_at, published_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.CourseID, a.WeekNumber, a.Title, a.Content, a.Status,
		a.CreatedAt, a.UpdatedAt, a.PublishedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAnnouncementExists
		}
		return err
	}
	return nil
}

func (r *AnnouncementRepository) GetByID(ctx context.Context, id string) (*domain.Announcement, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, course_id, week_number, title, content, status, created_at, updated_at, published_at
		 FROM announcements WHERE id = $1`,
		id,
	)
	return scanAnnouncement(row)
}

func (r *AnnouncementRepository) GetByCourseWeek(ctx context.Context, courseID string, week int) (*domain.Announcement, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, course_id, week_number, title, content, status, created_at, updated_at, published_at
		 FROM announcements WHERE course_id = $1 AND week_number = $2`,
		courseID, week,
	)
	return scanAnnouncement(row)
}

func (r *AnnouncementRepository) ListByCourse(ctx context.Context, courseID string) ([]*domain.Announcement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, course_id, week_number, title, content, status, created_at, updated_at, published_at
		 FROM announcements WHERE course_id = $1
		 ORDER BY week_number`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	announcements := make([]*domain.Announcement, 0)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		announcements = append(announcements, a)
	}
	return announcements, rows.Err()
}

// Publish marks a draft published and stamps published_at.
func (r *AnnouncementRepository) Publish(ctx context.Context, id string, publishedAt time.Time) (*domain.Announcement, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE announcements
		 SET status = $1, published_at = $2, updated_at = $2
		 WHERE id = $3`,
		domain.AnnouncementStatusPublished, publishedAt.UTC(), id,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrAnnouncementNotFound
	}
	return r.GetByID(ctx, id)
}

func scanAnnouncement(row pgx.Row) (*domain.Announcement, error) {
	var a domain.Announcement
	err := row.Scan(
		&a.ID, &a.CourseID, &a.WeekNumber, &a.Title, &a.Content, &a.Status,
		&a.CreatedAt, &a.UpdatedAt, &a.PublishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAnnouncementNotFound
		}
		return nil, err
	}
	return &a, nil
}
