package domain

import (
	"fmt"
	"time"
)

// AnnouncementStatus represents the lifecycle state of an announcement draft.
type AnnouncementStatus string

const (
	AnnouncementStatusDraft     AnnouncementStatus = "draft"
	AnnouncementStatusPublished AnnouncementStatus = "published"
)

// Announcement is a weekly announcement draft produced by the conductor.
// At most one exists per (CourseID, WeekNumber); the storage layer enforces
// this with a uniqueness constraint.
type Announcement struct {
	ID          string
	CourseID    string
	WeekNumber  int
	Title       string
	Content     string
	Status      AnnouncementStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt *time.Time
}

// ValidateAnnouncement validates an Announcement instance
func ValidateAnnouncement(a *Announcement) error {
	if a == nil {
		return fmt.Errorf("announcement cannot be nil")
	}

	if a.ID == "" {
		return fmt.Errorf("announcement ID is required")
	}

	if a.CourseID == "" {
		return fmt.Errorf("announcement CourseID is required")
	}

	if a.WeekNumber < 1 {
		return fmt.Errorf("announcement WeekNumber must be positive")
	}

	if a.Title == "" {
		return fmt.Errorf("announcement Title is required")
	}

	if a.Content == "" {
		return fmt.Errorf("announcement Content is required")
	}

	if !isValidAnnouncementStatus(a.Status) {
		return fmt.Errorf("announcement Status is invalid: %s", a.Status)
	}

	if (a.Status == AnnouncementStatusPublished) != (a.PublishedAt != nil) {
		return fmt.Errorf("announcement PublishedAt must be set exactly when Status is published")
	}

	return nil
}

func isValidAnnouncementStatus(s AnnouncementStatus) bool {
	switch s {
	case AnnouncementStatusDraft, AnnouncementStatusPublished:
		return true
	}
	return false
}
