package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/coursepilot/coursepilot/internal/service"
)

// AnnouncementConductor runs the weekly draft sweep over all courses.
type AnnouncementConductor interface {
	GenerateAll(ctx context.Context) ([]service.CourseRunStatus, error)
}

// ConductorWorker drives the announcement conductor on a schedule. Draft
// generation is idempotent per (course, week), so sweeping more often than
// weekly is safe and cheap.
type ConductorWorker struct {
	conductor AnnouncementConductor
}

// NewConductorWorker creates a new ConductorWorker instance
func NewConductorWorker(conductor AnnouncementConductor) *ConductorWorker {
	return &ConductorWorker{conductor: conductor}
}

// ProcessJobs implements the JobProcessor interface
func (w *ConductorWorker) ProcessJobs(ctx context.Context) error {
	statuses, err := w.conductor.GenerateAll(ctx)
	if err != nil {
		return fmt.Errorf("conductor sweep failed: %w", err)
	}

	drafted, failed := 0, 0
	for _, status := range statuses {
		if status.Err != nil {
			failed++
			log.Printf("conductor sweep: course %s: %v", status.CourseID, status.Err)
			continue
		}
		drafted++
	}

	if len(statuses) > 0 {
		log.Printf("conductor sweep: %d courses ok, %d failed", drafted, failed)
	}
	return nil
}
