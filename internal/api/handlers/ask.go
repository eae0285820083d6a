package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coursepilot/coursepilot/internal/api"
	"github.com/coursepilot/coursepilot/internal/service"
)

type AssistantService interface {
	Ask(ctx context.Context, input service.AskInput) (*service.AskOutput, error)
}

type AskHandler struct {
	svc AssistantService
}

func NewAskHandler(svc AssistantService) *AskHandler {
	return &AskHandler{svc: svc}
}

type AskRequest struct {
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
	Question  string `json:"question"`
}

type CitationResponse struct {
	Source  string `json:"source"`
	Page    *int   `json:"page,omitempty"`
	Excerpt string `json:"excerpt"`
}

type AskResponse struct {
	Route        string             `json:"route"`
	ResponseText string             `json:"response_text"`
	Citations    []CitationResponse `json:"citations"`
	Escalated    bool               `json:"escalated"`
	EscalationID string             `json:"escalation_id,omitempty"`
}

func citationsToResponse(citations []service.Citation) []CitationResponse {
	out := make([]CitationResponse, len(citations))
	for i, c := range citations {
		out[i] = CitationResponse{
			Source:  c.Source,
			Page:    c.Page,
			Excerpt: c.Excerpt,
		}
	}
	return out
}

func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CourseID == "" {
		api.Error(w, http.StatusBadRequest, "course_id is required")
		return
	}
	if req.StudentID == "" {
		api.Error(w, http.StatusBadRequest, "student_id is required")
		return
	}
	if req.Question == "" {
		api.Error(w, http.StatusBadRequest, "question is required")
		return
	}

	input := service.AskInput{
		CourseID:  req.CourseID,
		StudentID: req.StudentID,
		Question:  req.Question,
	}

	output, err := h.svc.Ask(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, AskResponse{
		Route:        string(output.Route),
		ResponseText: output.ResponseText,
		Citations:    citationsToResponse(output.Citations),
		Escalated:    output.Escalated,
		EscalationID: output.EscalationID,
	})
}
