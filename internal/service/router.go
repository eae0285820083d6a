package service

import (
	"context"
	"log"
	"strings"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/telemetry"
)

const routerSystemPrompt = `You classify student questions about a course into exactly one label.

POLICY - administrative or logistics questions: deadlines, grading rules, attendance, submission mechanics, syllabus contents.
CONCEPT - technical or subject-matter questions about the course material itself.
ESCALATE - anything needing a human instructor's judgment: personal circumstances, grade disputes, or an explicit request to talk to a person.

Respond with the label only: POLICY, CONCEPT, or ESCALATE.`

// RouterService maps a question to one of the three routes. It is stateless
// per call; the semantic decision is delegated to the text-generation
// service with a constrained prompt.
type RouterService struct {
	llm CompletionClient
}

// NewRouterService creates a new RouterService instance
func NewRouterService(llm CompletionClient) *RouterService {
	return &RouterService{llm: llm}
}

// Route classifies the question. Any output that is not a known label, and
// any upstream failure, resolves to ESCALATE: the failure mode is always
// human attention, never silent mishandling.
func (s *RouterService) Route(ctx context.Context, question string) (domain.Route, error) {
	ctx, span := telemetry.StartSpan(ctx, "RouterService.Route", telemetry.SpanAttributes{
		Operation: "route",
	})
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return "", domain.ErrEmptyQuestion
	}

	label, err := s.llm.Complete(ctx, routerSystemPrompt, question)
	if err != nil {
		log.Printf("router: classification call failed, escalating: %v", err)
		telemetry.CaptureError(ctx, err)
		return domain.RouteEscalate, nil
	}

	route, ok := domain.ParseRoute(firstToken(label))
	if !ok {
		log.Printf("router: unrecognized label %q, escalating", label)
		return domain.RouteEscalate, nil
	}
	return route, nil
}

// firstToken strips everything after the first whitespace run so that a
// chatty model response like "POLICY - this is about deadlines" still parses.
func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
