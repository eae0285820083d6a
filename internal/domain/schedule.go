package domain

import (
	"fmt"
	"time"
)

// ScheduleEntry describes one week of a course schedule. Entries are
// maintained outside the pipeline and read-only here.
type ScheduleEntry struct {
	ID          string
	CourseID    string
	WeekNumber  int
	Topic       string
	Assignments []string
	Readings    []string
	DueDate     *time.Time
	CreatedAt   time.Time
}

// ValidateScheduleEntry validates a ScheduleEntry instance
func ValidateScheduleEntry(e *ScheduleEntry) error {
	if e == nil {
		return fmt.Errorf("schedule entry cannot be nil")
	}

	if e.ID == "" {
		return fmt.Errorf("schedule entry ID is required")
	}

	if e.CourseID == "" {
		return fmt.Errorf("schedule entry CourseID is required")
	}

	if e.WeekNumber < 1 {
		return fmt.Errorf("schedule entry WeekNumber must be positive")
	}

	if e.Topic == "" {
		return fmt.Errorf("schedule entry Topic is required")
	}

	return nil
}
