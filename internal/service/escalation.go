package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/pagination"
	"github.com/coursepilot/coursepilot/internal/telemetry"
)

const (
	// suggestionTopK and suggestionMinScore govern retrieval for suggested
	// responses. The threshold sits below the Q&A one: partial context
	// beats none when drafting for a human reviewer.
	suggestionTopK     = 3
	suggestionMinScore = 0.5
)

const categorizerSystemPrompt = `You classify a student's escalated question into exactly one category label:
extension_request, grade_dispute, personal_issue, technical_problem, concept_question, other.
Respond with the label only.`

const suggestionSystemPrompt = `You draft a short, empathetic reply an instructor could send to a student's escalated question.
Use the provided course excerpts where they help; acknowledge the student's situation; keep it under 120 words.
This is a draft for human review, so do not promise specific outcomes.`

// categoryKeywords drives the deterministic keyword categorizer. Order
// matters: on tied hit counts the earlier category wins.
var categoryKeywords = []struct {
	category domain.EscalationCategory
	keywords []string
}{
	{domain.CategoryExtensionRequest, []string{"extension", "extend", "more time", "postpone", "deadline", "late submission"}},
	{domain.CategoryGradeDispute, []string{"grade", "regrade", "unfair", "points", "marked wrong", "scored"}},
	{domain.CategoryPersonalIssue, []string{"family", "emergency", "sick", "illness", "hospital", "personal", "mental health", "bereavement"}},
	{domain.CategoryTechnicalProblem, []string{"error", "crash", "bug", "broken", "won't load", "cannot upload", "login", "install"}},
	{domain.CategoryConceptQuestion, []string{"understand", "explain", "confused", "what is", "how does", "concept", "lost on"}},
}

// EscalationRepository persists escalation records.
type EscalationRepository interface {
	Create(ctx context.Context, e *domain.Escalation) error
	GetByID(ctx context.Context, id string) (*domain.Escalation, error)
	Update(ctx context.Context, e *domain.Escalation) error
	ListByCourse(ctx context.Context, courseID string, status domain.EscalationStatus, cursor *pagination.Cursor, limit int) (*EscalationPageResult, error)
}

// EscalationPageResult is one page of escalations.
type EscalationPageResult struct {
	Items      []*domain.Escalation
	NextCursor string
	HasMore    bool
}

// EscalationService owns the lifecycle of human-attention requests:
// created pending, optionally responded, resolved, and possibly reopened.
type EscalationService struct {
	repo      EscalationRepository
	llm       CompletionClient
	retrieval *RetrievalService
	uuidGen   UUIDGenerator
}

// NewEscalationService creates a new EscalationService instance. llm and
// retrieval are optional; without them category inference stays purely
// keyword-based and suggestions are unavailable.
func NewEscalationService(repo EscalationRepository, llm CompletionClient, retrieval *RetrievalService) *EscalationService {
	return &EscalationService{
		repo:      repo,
		llm:       llm,
		retrieval: retrieval,
		uuidGen:   &DefaultUUIDGenerator{},
	}
}

// WithUUIDGenerator overrides ID generation (for testing).
func (s *EscalationService) WithUUIDGenerator(gen UUIDGenerator) *EscalationService {
	s.uuidGen = gen
	return s
}

// CreateEscalationInput describes a new escalation request.
type CreateEscalationInput struct {
	CourseID  string
	StudentID string
	Query     string
	Category  domain.EscalationCategory // optional; inferred when empty
}

// CreateEscalationResult is the persisted record plus the acknowledgment
// text shown to the student.
type CreateEscalationResult struct {
	Escalation     *domain.Escalation
	Acknowledgment string
}

// CreateEscalation persists a pending escalation. When no category is
// supplied, the keyword categorizer decides; the generation service is
// consulted only when keywords are inconclusive.
func (s *EscalationService) CreateEscalation(ctx context.Context, input CreateEscalationInput) (*CreateEscalationResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "EscalationService.CreateEscalation", telemetry.SpanAttributes{
		CourseID:  input.CourseID,
		StudentID: input.StudentID,
		Operation: "create_escalation",
	})
	defer span.End()

	if input.CourseID == "" {
		return nil, domain.ErrCourseIDRequired
	}
	if input.StudentID == "" {
		return nil, domain.ErrStudentIDRequired
	}
	if strings.TrimSpace(input.Query) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	category := input.Category
	if category == "" {
		category = s.inferCategory(ctx, input.Query)
	} else if !domain.IsValidEscalationCategory(category) {
		return nil, domain.ErrInvalidCategory
	}

	escalation := &domain.Escalation{
		ID:        s.uuidGen.NewString(),
		CourseID:  input.CourseID,
		StudentID: input.StudentID,
		Query:     input.Query,
		Category:  category,
		Status:    domain.EscalationStatusPending,
		CreatedAt: time.Now().UTC(),
	}

	if err := domain.ValidateEscalation(escalation); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid escalation", err)
	}

	if err := s.repo.Create(ctx, escalation); err != nil {
		return nil, fmt.Errorf("failed to create escalation: %w", err)
	}

	return &CreateEscalationResult{
		Escalation:     escalation,
		Acknowledgment: "Your question has been forwarded to the instructor. You'll get a reply as soon as they've had a look.",
	}, nil
}

// inferCategory is the canonical category inference path: deterministic
// keyword scoring first, LLM classification only when no keyword hits at
// all, CategoryOther when both are inconclusive.
func (s *EscalationService) inferCategory(ctx context.Context, query string) domain.EscalationCategory {
	lower := strings.ToLower(query)

	best := domain.CategoryOther
	bestHits := 0
	for _, group := range categoryKeywords {
		hits := 0
		for _, kw := range group.keywords {
			hits += strings.Count(lower, kw)
		}
		if hits > bestHits {
			best = group.category
			bestHits = hits
		}
	}
	if bestHits > 0 {
		return best
	}

	if s.llm == nil {
		return domain.CategoryOther
	}

	label, err := s.llm.Complete(ctx, categorizerSystemPrompt, query)
	if err != nil {
		log.Printf("escalation: category classification failed, using other: %v", err)
		return domain.CategoryOther
	}

	category := domain.EscalationCategory(strings.ToLower(firstToken(label)))
	if !domain.IsValidEscalationCategory(category) {
		return domain.CategoryOther
	}
	return category
}

// UpdateResponse attaches an instructor response, stamps RespondedAt, and
// optionally resolves the escalation in the same step.
func (s *EscalationService) UpdateResponse(ctx context.Context, id, responseText string, resolve bool) (*domain.Escalation, error) {
	if strings.TrimSpace(responseText) == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "response text cannot be empty")
	}

	escalation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	escalation.Response = responseText
	escalation.RespondedAt = &now
	if resolve {
		escalation.Status = domain.EscalationStatusResolved
		escalation.ResolvedAt = &now
	}

	if err := s.repo.Update(ctx, escalation); err != nil {
		return nil, fmt.Errorf("failed to update escalation: %w", err)
	}
	return escalation, nil
}

// Resolve marks a pending escalation resolved and stamps ResolvedAt.
func (s *EscalationService) Resolve(ctx context.Context, id string) (*domain.Escalation, error) {
	escalation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if escalation.Status == domain.EscalationStatusResolved {
		return escalation, nil
	}

	now := time.Now().UTC()
	escalation.Status = domain.EscalationStatusResolved
	escalation.ResolvedAt = &now

	if err := s.repo.Update(ctx, escalation); err != nil {
		return nil, fmt.Errorf("failed to resolve escalation: %w", err)
	}
	return escalation, nil
}

// Reopen returns a resolved escalation to pending and clears ResolvedAt.
func (s *EscalationService) Reopen(ctx context.Context, id string) (*domain.Escalation, error) {
	escalation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if escalation.Status != domain.EscalationStatusResolved {
		return nil, domain.ErrEscalationNotResolved
	}

	escalation.Status = domain.EscalationStatusPending
	escalation.ResolvedAt = nil

	if err := s.repo.Update(ctx, escalation); err != nil {
		return nil, fmt.Errorf("failed to reopen escalation: %w", err)
	}
	return escalation, nil
}

// ListByCourse returns a page of escalations for a course, optionally
// filtered by status.
func (s *EscalationService) ListByCourse(ctx context.Context, courseID string, status domain.EscalationStatus, cursorStr string, limit int) (*EscalationPageResult, error) {
	if courseID == "" {
		return nil, domain.ErrCourseIDRequired
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	cursor, err := pagination.DecodeCursor(cursorStr)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}

	return s.repo.ListByCourse(ctx, courseID, status, cursor, limit)
}

// SuggestResponse drafts a reply for an instructor to review. The draft is
// assistive only and never sent automatically.
func (s *EscalationService) SuggestResponse(ctx context.Context, id string) (string, error) {
	if s.llm == nil {
		return "", domain.NewDomainError(domain.ErrCodeInvalidOperation, "suggestion generation not configured")
	}

	escalation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	var results []*ChunkSearchResult
	if s.retrieval != nil {
		results, err = s.retrieval.Search(ctx, escalation.Query, SearchFilters{
			CourseID: escalation.CourseID,
			MinScore: suggestionMinScore,
		}, suggestionTopK)
		if err != nil {
			// A draft without context is still useful.
			log.Printf("escalation: suggestion retrieval failed, drafting without context: %v", err)
			results = nil
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Student question (%s): %s\n", escalation.Category, escalation.Query)
	if len(results) > 0 {
		b.WriteString("\nRelevant course excerpts:\n")
		for _, r := range results {
			b.WriteString("- ")
			b.WriteString(excerpt(r.Chunk.Content, excerptMaxChars))
			b.WriteString("\n")
		}
	}

	draft, err := s.llm.Complete(ctx, suggestionSystemPrompt, b.String())
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeUpstream, "failed to draft suggested response", err)
	}
	return strings.TrimSpace(draft), nil
}
