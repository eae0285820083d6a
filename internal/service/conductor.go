package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/telemetry"
)

const conductorSystemPrompt = `You write a short weekly course announcement for students from the week's schedule.
First line: the announcement title. Remaining lines: the body.
Mention the topic, any readings and assignments, and the due date when present. Friendly but concise; no greetings boilerplate.`

// AnnouncementRepository persists weekly announcement drafts. Create must
// surface a (course_id, week_number) uniqueness violation as
// domain.ErrAnnouncementExists.
type AnnouncementRepository interface {
	Create(ctx context.Context, a *domain.Announcement) error
	GetByCourseWeek(ctx context.Context, courseID string, week int) (*domain.Announcement, error)
	GetByID(ctx context.Context, id string) (*domain.Announcement, error)
	ListByCourse(ctx context.Context, courseID string) ([]*domain.Announcement, error)
	Publish(ctx context.Context, id string, publishedAt time.Time) (*domain.Announcement, error)
}

// ScheduleRepository reads the externally maintained course schedule.
type ScheduleRepository interface {
	GetByCourseWeek(ctx context.Context, courseID string, week int) (*domain.ScheduleEntry, error)
	ListByCourse(ctx context.Context, courseID string) ([]domain.ScheduleEntry, error)
	ListCourses(ctx context.Context) ([]string, error)
}

// ConductorService drafts one announcement per (course, week) from the
// schedule. It only performs absent→draft; publishing is a human action.
type ConductorService struct {
	announcements AnnouncementRepository
	schedules     ScheduleRepository
	llm           CompletionClient
	uuidGen       UUIDGenerator
	termStart     time.Time
	demoWeek      int
	now           func() time.Time
}

// NewConductorService creates a new ConductorService instance. llm may be
// nil, in which case drafts always use the deterministic template.
func NewConductorService(
	announcements AnnouncementRepository,
	schedules ScheduleRepository,
	llm CompletionClient,
	termStart time.Time,
) *ConductorService {
	return &ConductorService{
		announcements: announcements,
		schedules:     schedules,
		llm:           llm,
		uuidGen:       &DefaultUUIDGenerator{},
		termStart:     termStart,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithDemoWeek fixes the computed week for demo installs. Zero disables.
func (s *ConductorService) WithDemoWeek(week int) *ConductorService {
	s.demoWeek = week
	return s
}

// WithUUIDGenerator overrides ID generation (for testing).
func (s *ConductorService) WithUUIDGenerator(gen UUIDGenerator) *ConductorService {
	s.uuidGen = gen
	return s
}

// WithClock overrides the time source (for testing).
func (s *ConductorService) WithClock(now func() time.Time) *ConductorService {
	s.now = now
	return s
}

// CurrentWeek resolves the target week: demo override first, otherwise
// elapsed calendar weeks since term start, floored at 1.
func (s *ConductorService) CurrentWeek() int {
	if s.demoWeek > 0 {
		return s.demoWeek
	}

	elapsed := s.now().Sub(s.termStart)
	week := int(elapsed/(7*24*time.Hour)) + 1
	if week < 1 {
		week = 1
	}
	return week
}

// Generate drafts the announcement for (courseID, week), or returns the
// existing one untouched. week <= 0 means "current week". A missing
// schedule entry is an explicit failure; the conductor never fabricates.
func (s *ConductorService) Generate(ctx context.Context, courseID string, week int) (*domain.Announcement, error) {
	ctx, span := telemetry.StartSpan(ctx, "ConductorService.Generate", telemetry.SpanAttributes{
		CourseID:  courseID,
		Operation: "conduct",
	})
	defer span.End()

	if courseID == "" {
		return nil, domain.ErrCourseIDRequired
	}
	if week <= 0 {
		week = s.CurrentWeek()
	}

	// Idempotent short-circuit: an existing draft (possibly human-edited)
	// is returned unchanged. This check is an optimization to skip
	// generation work; the storage uniqueness constraint is the real guard.
	existing, err := s.announcements.GetByCourseWeek(ctx, courseID, week)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrAnnouncementNotFound) {
		return nil, err
	}

	entry, err := s.schedules.GetByCourseWeek(ctx, courseID, week)
	if err != nil {
		return nil, err
	}

	title, content := s.draft(ctx, entry)

	now := s.now()
	announcement := &domain.Announcement{
		ID:         s.uuidGen.NewString(),
		CourseID:   courseID,
		WeekNumber: week,
		Title:      title,
		Content:    content,
		Status:     domain.AnnouncementStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.announcements.Create(ctx, announcement); err != nil {
		// A concurrent trigger won the check-then-create race; theirs is
		// the announcement for this week.
		if errors.Is(err, domain.ErrAnnouncementExists) {
			return s.announcements.GetByCourseWeek(ctx, courseID, week)
		}
		return nil, fmt.Errorf("failed to create announcement: %w", err)
	}

	return announcement, nil
}

// CourseRunStatus is one course's outcome from a batch run.
type CourseRunStatus struct {
	CourseID     string
	Announcement *domain.Announcement
	Err          error
}

// GenerateAll runs the conductor for every course with a schedule, for the
// current week. Per-course failures are collected, never aborting the batch.
func (s *ConductorService) GenerateAll(ctx context.Context) ([]CourseRunStatus, error) {
	courses, err := s.schedules.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	week := s.CurrentWeek()
	statuses := make([]CourseRunStatus, 0, len(courses))
	for _, courseID := range courses {
		announcement, err := s.Generate(ctx, courseID, week)
		if err != nil {
			log.Printf("conductor: course %s week %d failed: %v", courseID, week, err)
		}
		statuses = append(statuses, CourseRunStatus{
			CourseID:     courseID,
			Announcement: announcement,
			Err:          err,
		})
	}
	return statuses, nil
}

// Publish marks a draft announcement published. Publishing is an external
// human action; the conductor itself never calls this.
func (s *ConductorService) Publish(ctx context.Context, id string) (*domain.Announcement, error) {
	announcement, err := s.announcements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if announcement.Status == domain.AnnouncementStatusPublished {
		return nil, domain.ErrAnnouncementPublished
	}
	return s.announcements.Publish(ctx, id, s.now())
}

// ListByCourse returns all announcements for a course.
func (s *ConductorService) ListByCourse(ctx context.Context, courseID string) ([]*domain.Announcement, error) {
	if courseID == "" {
		return nil, domain.ErrCourseIDRequired
	}
	return s.announcements.ListByCourse(ctx, courseID)
}

// draft produces title and content from a schedule entry, via the
// generation service when available and falling back to the deterministic
// template on any failure. Generation failure never aborts the operation.
func (s *ConductorService) draft(ctx context.Context, entry *domain.ScheduleEntry) (string, string) {
	if s.llm == nil {
		return templateDraft(entry)
	}

	text, err := s.llm.Complete(ctx, conductorSystemPrompt, scheduleSummary(entry))
	if err != nil {
		log.Printf("conductor: generation failed, using template: %v", err)
		telemetry.CaptureError(ctx, err)
		return templateDraft(entry)
	}

	title, content, ok := splitDraft(text)
	if !ok {
		return templateDraft(entry)
	}
	return title, content
}

func scheduleSummary(entry *domain.ScheduleEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week %d topic: %s\n", entry.WeekNumber, entry.Topic)
	if len(entry.Readings) > 0 {
		fmt.Fprintf(&b, "Readings: %s\n", strings.Join(entry.Readings, "; "))
	}
	if len(entry.Assignments) > 0 {
		fmt.Fprintf(&b, "Assignments: %s\n", strings.Join(entry.Assignments, "; "))
	}
	if entry.DueDate != nil {
		fmt.Fprintf(&b, "Due date: %s\n", entry.DueDate.Format("Monday, January 2"))
	}
	return b.String()
}

// splitDraft separates a generated draft into its title line and body.
func splitDraft(text string) (string, string, bool) {
	text = strings.TrimSpace(text)
	title, content, found := strings.Cut(text, "\n")
	title = strings.TrimSpace(strings.TrimPrefix(title, "#"))
	content = strings.TrimSpace(content)
	if !found || title == "" || content == "" {
		return "", "", false
	}
	return title, content, true
}

// templateDraft builds the deterministic fallback announcement directly
// from schedule fields.
func templateDraft(entry *domain.ScheduleEntry) (string, string) {
	title := fmt.Sprintf("Week %d: %s", entry.WeekNumber, entry.Topic)

	var b strings.Builder
	fmt.Fprintf(&b, "This week we're covering %s.\n", entry.Topic)
	if len(entry.Readings) > 0 {
		fmt.Fprintf(&b, "\nReadings: %s.\n", strings.Join(entry.Readings, "; "))
	}
	if len(entry.Assignments) > 0 {
		fmt.Fprintf(&b, "\nAssignments: %s.\n", strings.Join(entry.Assignments, "; "))
	}
	if entry.DueDate != nil {
		fmt.Fprintf(&b, "\nDue date: %s.\n", entry.DueDate.Format("Monday, January 2"))
	}
	return title, strings.TrimSpace(b.String())
}
