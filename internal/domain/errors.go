package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUpstream         = "UPSTREAM_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
	ErrCodeInvalidOperation = "INVALID_OPERATION"
)

// Validation errors
var (
	ErrEmptyQuestion      = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrEmptyDocument      = NewDomainError(ErrCodeValidation, "document produced no ingestable text")
	ErrCourseIDRequired   = NewDomainError(ErrCodeValidation, "course id is required")
	ErrStudentIDRequired  = NewDomainError(ErrCodeValidation, "student id is required")
	ErrInvalidContentType = NewDomainError(ErrCodeValidation, "invalid chunk content type")
	ErrInvalidCategory    = NewDomainError(ErrCodeValidation, "invalid escalation category")
	ErrInvalidWeekNumber  = NewDomainError(ErrCodeValidation, "week number must be positive")
)

// Not found errors
var (
	ErrEscalationNotFound    = NewDomainError(ErrCodeNotFound, "escalation not found")
	ErrAnnouncementNotFound  = NewDomainError(ErrCodeNotFound, "announcement not found")
	ErrScheduleEntryNotFound = NewDomainError(ErrCodeNotFound, "no schedule entry for course and week")
	ErrDocumentNotFound      = NewDomainError(ErrCodeNotFound, "document not found in storage")
)

// Already exists errors
var (
	ErrAnnouncementExists  = NewDomainError(ErrCodeAlreadyExists, "announcement already exists for course and week")
	ErrScheduleEntryExists = NewDomainError(ErrCodeAlreadyExists, "schedule entry already exists for course and week")
)

// Operation errors
var (
	ErrEscalationNotResolved = NewDomainError(ErrCodeInvalidOperation, "escalation is not resolved")
	ErrAnnouncementPublished = NewDomainError(ErrCodeInvalidOperation, "announcement is already published")
)
