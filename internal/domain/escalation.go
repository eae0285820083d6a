package domain

import (
	"fmt"
	"time"
)

// EscalationCategory classifies why a question needs human attention.
type EscalationCategory string

const (
	CategoryExtensionRequest EscalationCategory = "extension_request"
	CategoryGradeDispute     EscalationCategory = "grade_dispute"
	CategoryPersonalIssue    EscalationCategory = "personal_issue"
	CategoryTechnicalProblem EscalationCategory = "technical_problem"
	CategoryConceptQuestion  EscalationCategory = "concept_question"
	CategoryOther            EscalationCategory = "other"
)

// EscalationStatus represents the lifecycle state of an escalation.
type EscalationStatus string

const (
	EscalationStatusPending  EscalationStatus = "pending"
	EscalationStatusResolved EscalationStatus = "resolved"
)

// Escalation represents a student question routed to a human instructor.
// Invariant: ResolvedAt is non-nil iff Status is resolved.
type Escalation struct {
	ID          string
	CourseID    string
	StudentID   string
	Query       string
	Category    EscalationCategory
	Status      EscalationStatus
	Response    string
	CreatedAt   time.Time
	RespondedAt *time.Time
	ResolvedAt  *time.Time
}

// ValidateEscalation validates an Escalation instance
func ValidateEscalation(e *Escalation) error {
	if e == nil {
		return fmt.Errorf("escalation cannot be nil")
	}

	if e.ID == "" {
		return fmt.Errorf("escalation ID is required")
	}

	if e.CourseID == "" {
		return fmt.Errorf("escalation CourseID is required")
	}

	if e.StudentID == "" {
		return fmt.Errorf("escalation StudentID is required")
	}

	if e.Query == "" {
		return fmt.Errorf("escalation Query is required")
	}

	if !IsValidEscalationCategory(e.Category) {
		return fmt.Errorf("escalation Category is invalid: %s", e.Category)
	}

	if !isValidEscalationStatus(e.Status) {
		return fmt.Errorf("escalation Status is invalid: %s", e.Status)
	}

	if (e.Status == EscalationStatusResolved) != (e.ResolvedAt != nil) {
		return fmt.Errorf("escalation ResolvedAt must be set exactly when Status is resolved")
	}

	return nil
}

// IsValidEscalationCategory checks if an EscalationCategory is valid
func IsValidEscalationCategory(c EscalationCategory) bool {
	switch c {
	case CategoryExtensionRequest, CategoryGradeDispute, CategoryPersonalIssue,
		CategoryTechnicalProblem, CategoryConceptQuestion, CategoryOther:
		return true
	}
	return false
}

func isValidEscalationStatus(s EscalationStatus) bool {
	switch s {
	case EscalationStatusPending, EscalationStatusResolved:
		return true
	}
	return false
}
