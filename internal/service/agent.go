package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/telemetry"
)

const (
	// defaultAnswerTopK is how many chunks an agent retrieves per question.
	defaultAnswerTopK = 5
	// defaultAnswerMinScore is the similarity floor for answer retrieval.
	// Scores are 1/(1+distance), so 1.0 is identical and 0.5 orthogonal.
	defaultAnswerMinScore = 0.6

	// insufficientContextMarker is what the generation prompt instructs the
	// model to emit when the retrieved chunks cannot answer the question.
	insufficientContextMarker = "INSUFFICIENT_CONTEXT"

	excerptMaxChars = 200

	apologeticAnswer = "I couldn't find a confident answer to that in the course materials, so I've flagged your question for the instructor."
)

const policyAgentSystem = `You answer course administration questions for students using only the provided excerpts from official course documents.
Quote concrete rules (dates, percentages, counts) exactly as written.
If the excerpts do not contain the answer, reply with exactly ` + insufficientContextMarker + ` and nothing else.`

const conceptAgentSystem = `You explain course concepts to students using only the provided excerpts from course materials.
Be clear and pedagogical; build from the excerpts rather than outside knowledge.
If the excerpts do not contain enough to explain the concept, reply with exactly ` + insufficientContextMarker + ` and nothing else.`

// Citation points at a source chunk backing part of an answer.
type Citation struct {
	Source  string
	Page    *int
	Excerpt string
}

// AgentAnswer is the structured output of an answer agent. Agents never
// create escalation records themselves; the caller acts on ShouldEscalate.
type AgentAnswer struct {
	ResponseText   string
	Citations      []Citation
	ShouldEscalate bool
}

// Agent synthesizes cited answers from retrieved chunks of one content type.
type Agent struct {
	retrieval   *RetrievalService
	llm         CompletionClient
	contentType domain.ContentType
	system      string
	topK        int
	minScore    float32
}

// NewPolicyAgent creates the agent for administrative questions.
func NewPolicyAgent(retrieval *RetrievalService, llm CompletionClient) *Agent {
	return &Agent{
		retrieval:   retrieval,
		llm:         llm,
		contentType: domain.ContentTypePolicy,
		system:      policyAgentSystem,
		topK:        defaultAnswerTopK,
		minScore:    defaultAnswerMinScore,
	}
}

// NewConceptAgent creates the agent for subject-matter questions.
func NewConceptAgent(retrieval *RetrievalService, llm CompletionClient) *Agent {
	return &Agent{
		retrieval:   retrieval,
		llm:         llm,
		contentType: domain.ContentTypeConcept,
		system:      conceptAgentSystem,
		topK:        defaultAnswerTopK,
		minScore:    defaultAnswerMinScore,
	}
}

// ContentType reports which chunk category this agent retrieves.
func (a *Agent) ContentType() domain.ContentType {
	return a.contentType
}

// Answer retrieves matching chunks and synthesizes a cited answer. It
// escalates when nothing clears the similarity threshold or the generator
// signals insufficient context, and degrades to an apologetic escalation on
// upstream failure. Answer itself never hard-fails on upstream errors.
func (a *Agent) Answer(ctx context.Context, question, courseID string) (*AgentAnswer, error) {
	ctx, span := telemetry.StartSpan(ctx, "Agent.Answer", telemetry.SpanAttributes{
		CourseID:  courseID,
		Operation: fmt.Sprintf("answer_%s", a.contentType),
	})
	defer span.End()

	if strings.TrimSpace(question) == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if courseID == "" {
		return nil, domain.ErrCourseIDRequired
	}

	results, err := a.retrieval.Search(ctx, question, SearchFilters{
		CourseID:    courseID,
		ContentType: a.contentType,
		MinScore:    a.minScore,
	}, a.topK)
	if err != nil {
		log.Printf("agent(%s): retrieval failed, escalating: %v", a.contentType, err)
		telemetry.CaptureError(ctx, err)
		return &AgentAnswer{
			ResponseText:   apologeticAnswer,
			Citations:      []Citation{},
			ShouldEscalate: true,
		}, nil
	}

	if len(results) == 0 {
		return &AgentAnswer{
			ResponseText:   apologeticAnswer,
			Citations:      []Citation{},
			ShouldEscalate: true,
		}, nil
	}

	prompt := buildAnswerPrompt(question, results)
	text, err := a.llm.Complete(ctx, a.system, prompt)
	if err != nil {
		log.Printf("agent(%s): generation failed, escalating: %v", a.contentType, err)
		telemetry.CaptureError(ctx, err)
		return &AgentAnswer{
			ResponseText:   apologeticAnswer,
			Citations:      []Citation{},
			ShouldEscalate: true,
		}, nil
	}

	if strings.Contains(text, insufficientContextMarker) {
		return &AgentAnswer{
			ResponseText:   apologeticAnswer,
			Citations:      []Citation{},
			ShouldEscalate: true,
		}, nil
	}

	return &AgentAnswer{
		ResponseText:   strings.TrimSpace(text),
		Citations:      citationsFromResults(results),
		ShouldEscalate: false,
	}, nil
}

func buildAnswerPrompt(question string, results []*ChunkSearchResult) string {
	var b strings.Builder
	b.WriteString("Course material excerpts:\n\n")
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s", i+1, r.Chunk.Source)
		if r.Chunk.PageNumber != nil {
			fmt.Fprintf(&b, " (page %d)", *r.Chunk.PageNumber)
		}
		b.WriteString(":\n")
		b.WriteString(r.Chunk.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func citationsFromResults(results []*ChunkSearchResult) []Citation {
	citations := make([]Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, Citation{
			Source:  r.Chunk.Source,
			Page:    r.Chunk.PageNumber,
			Excerpt: excerpt(r.Chunk.Content, excerptMaxChars),
		})
	}
	return citations
}

func excerpt(s string, maxChars int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= maxChars {
		return string(runes)
	}
	return string(runes[:maxChars]) + "…"
}
