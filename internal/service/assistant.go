package service

import (
	"context"
	"strings"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/telemetry"
)

// AssistantService composes routing, answering, and escalation for a single
// student question. It is the only place escalation records are created in
// the Q&A path, keeping the agents side-effect-free.
type AssistantService struct {
	router       *RouterService
	policyAgent  *Agent
	conceptAgent *Agent
	escalations  *EscalationService
}

// NewAssistantService creates a new AssistantService instance
func NewAssistantService(
	router *RouterService,
	policyAgent *Agent,
	conceptAgent *Agent,
	escalations *EscalationService,
) *AssistantService {
	return &AssistantService{
		router:       router,
		policyAgent:  policyAgent,
		conceptAgent: conceptAgent,
		escalations:  escalations,
	}
}

// AskInput is one student question.
type AskInput struct {
	CourseID  string
	StudentID string
	Question  string
}

// AskOutput is the structured response to a question. When Escalated is
// true, ResponseText carries the acknowledgment and EscalationID is set.
type AskOutput struct {
	Route        domain.Route
	ResponseText string
	Citations    []Citation
	Escalated    bool
	EscalationID string
}

// Ask answers a question end to end. A well-formed question never
// hard-fails: upstream trouble degrades to an escalation with an
// acknowledgment rather than an error.
func (s *AssistantService) Ask(ctx context.Context, input AskInput) (*AskOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "AssistantService.Ask", telemetry.SpanAttributes{
		CourseID:  input.CourseID,
		StudentID: input.StudentID,
		Operation: "ask",
	})
	defer span.End()

	if input.CourseID == "" {
		return nil, domain.ErrCourseIDRequired
	}
	if input.StudentID == "" {
		return nil, domain.ErrStudentIDRequired
	}
	if strings.TrimSpace(input.Question) == "" {
		return nil, domain.ErrEmptyQuestion
	}

	route, err := s.router.Route(ctx, input.Question)
	if err != nil {
		return nil, err
	}

	if route == domain.RouteEscalate {
		return s.escalate(ctx, route, input)
	}

	agent := s.policyAgent
	if route == domain.RouteConcept {
		agent = s.conceptAgent
	}

	answer, err := agent.Answer(ctx, input.Question, input.CourseID)
	if err != nil {
		return nil, err
	}

	if answer.ShouldEscalate {
		out, err := s.escalate(ctx, route, input)
		if err != nil {
			return nil, err
		}
		out.ResponseText = answer.ResponseText
		return out, nil
	}

	return &AskOutput{
		Route:        route,
		ResponseText: answer.ResponseText,
		Citations:    answer.Citations,
	}, nil
}

func (s *AssistantService) escalate(ctx context.Context, route domain.Route, input AskInput) (*AskOutput, error) {
	created, err := s.escalations.CreateEscalation(ctx, CreateEscalationInput{
		CourseID:  input.CourseID,
		StudentID: input.StudentID,
		Query:     input.Question,
	})
	if err != nil {
		return nil, err
	}

	return &AskOutput{
		Route:        route,
		ResponseText: created.Acknowledgment,
		Citations:    []Citation{},
		Escalated:    true,
		EscalationID: created.Escalation.ID,
	}, nil
}
