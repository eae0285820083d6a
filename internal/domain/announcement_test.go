package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validAnnouncement() *Announcement {
	now := time.Now().UTC()
	return &Announcement{
		ID:         "ann-1",
		CourseID:   "cs101",
		WeekNumber: 3,
		Title:      "Week 3: Recursion",
		Content:    "This week we're covering recursion.",
		Status:     AnnouncementStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestValidateAnnouncement(t *testing.T) {
	assert.NoError(t, ValidateAnnouncement(validAnnouncement()))
}

func TestValidateAnnouncement_RequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *Announcement)
	}{
		{"missing id", func(a *Announcement) { a.ID = "" }},
		{"missing course", func(a *Announcement) { a.CourseID = "" }},
		{"zero week", func(a *Announcement) { a.WeekNumber = 0 }},
		{"negative week", func(a *Announcement) { a.WeekNumber = -1 }},
		{"missing title", func(a *Announcement) { a.Title = "" }},
		{"missing content", func(a *Announcement) { a.Content = "" }},
		{"bad status", func(a *Announcement) { a.Status = "pending" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := validAnnouncement()
			tt.mutate(a)
			assert.Error(t, ValidateAnnouncement(a))
		})
	}
}

func TestValidateAnnouncement_PublishedAtMatchesStatus(t *testing.T) {
	now := time.Now().UTC()

	t.Run("published requires timestamp", func(t *testing.T) {
		a := validAnnouncement()
		a.Status = AnnouncementStatusPublished
		assert.Error(t, ValidateAnnouncement(a))

		a.PublishedAt = &now
		assert.NoError(t, ValidateAnnouncement(a))
	})

	t.Run("draft forbids timestamp", func(t *testing.T) {
		a := validAnnouncement()
		a.PublishedAt = &now
		assert.Error(t, ValidateAnnouncement(a))
	})
}

func TestValidateChunk(t *testing.T) {
	page := 1
	week := 3
	chunk := &Chunk{
		ID:          "c-1",
		CourseID:    "cs101",
		Source:      "syllabus.txt",
		Content:     "some content",
		ContentType: ContentTypePolicy,
		PageNumber:  &page,
		WeekNumber:  &week,
	}
	assert.NoError(t, ValidateChunk(chunk))

	bad := *chunk
	bad.ContentType = "opinion"
	assert.Error(t, ValidateChunk(&bad))

	zero := 0
	bad = *chunk
	bad.PageNumber = &zero
	assert.Error(t, ValidateChunk(&bad))

	bad = *chunk
	bad.WeekNumber = &zero
	assert.Error(t, ValidateChunk(&bad))

	bad = *chunk
	bad.Content = ""
	assert.Error(t, ValidateChunk(&bad))
}

func TestIsValidContentType(t *testing.T) {
	assert.True(t, IsValidContentType(ContentTypePolicy))
	assert.True(t, IsValidContentType(ContentTypeConcept))
	assert.False(t, IsValidContentType(ContentType("opinion")))
	assert.False(t, IsValidContentType(ContentType("")))
}

func TestValidateScheduleEntry(t *testing.T) {
	entry := &ScheduleEntry{
		ID:         "sched-1",
		CourseID:   "cs101",
		WeekNumber: 1,
		Topic:      "Introductions",
	}
	assert.NoError(t, ValidateScheduleEntry(entry))

	bad := *entry
	bad.WeekNumber = 0
	assert.Error(t, ValidateScheduleEntry(&bad))

	bad = *entry
	bad.Topic = ""
	assert.Error(t, ValidateScheduleEntry(&bad))
}
