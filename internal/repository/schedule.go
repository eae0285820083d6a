package repository

import (
	"context"
	"errors"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ScheduleRepository reads course schedule entries. The schedule is
// maintained by course staff outside the pipeline; Create exists for
// seeding and administration.
type ScheduleRepository struct {
	db dbtx
}

func NewScheduleRepository(pool *pgxpool.Pool) *ScheduleRepository {
	return &ScheduleRepository{db: pool}
}

func (r *ScheduleRepository) Create(ctx context.Context, e *domain.ScheduleEntry) error {
	if err := domain.ValidateScheduleEntry(e); err != nil {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid schedule entry", err)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO schedule_entries
			(id, course_id, week_number, topic, assignments, readings, due_date, created_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.CourseID, e.WeekNumber, e.Topic, e.Assignments, e.Readings, e.DueDate, e.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrScheduleEntryExists
		}
		return err
	}
	return nil
}

func (r *ScheduleRepository) GetByCourseWeek(ctx context.Context, courseID string, week int) (*domain.ScheduleEntry, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, course_id, week_number, topic, assignments, readings, due_date, created_at
		 FROM schedule_entries WHERE course_id = $1 AND week_number = $2`,
		courseID, week,
	)

	entry, err := scanScheduleEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrScheduleEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

func (r *ScheduleRepository) ListByCourse(ctx context.Context, courseID string) ([]domain.ScheduleEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, course_id, week_number, topic, assignments, readings, due_date, created_at
		 FROM schedule_entries WHERE course_id = $1
		 ORDER BY week_number`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.ScheduleEntry, 0)
	for rows.Next() {
		entry, err := scanScheduleEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// ListCourses returns every course id that has at least one schedule entry.
func (r *ScheduleRepository) ListCourses(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT DISTINCT course_id FROM schedule_entries ORDER BY course_id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := make([]string, 0)
	for rows.Next() {
		var courseID string
		if err := rows.Scan(&courseID); err != nil {
			return nil, err
		}
		courses = append(courses, courseID)
	}
	return courses, rows.Err()
}

func scanScheduleEntry(row pgx.Row) (*domain.ScheduleEntry, error) {
	var e domain.ScheduleEntry
	err := row.Scan(
		&e.ID, &e.CourseID, &e.WeekNumber, &e.Topic,
		&e.Assignments, &e.Readings, &e.DueDate, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
