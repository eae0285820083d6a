package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coursepilot/coursepilot/internal/api"
	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/go-chi/chi/v5"
)

type EscalationService interface {
	CreateEscalation(ctx context.Context, input service.CreateEscalationInput) (*service.CreateEscalationResult, error)
	UpdateResponse(ctx context.Context, id, responseText string, resolve bool) (*domain.Escalation, error)
	Resolve(ctx context.Context, id string) (*domain.Escalation, error)
	Reopen(ctx context.Context, id string) (*domain.Escalation, error)
	ListByCourse(ctx context.Context, courseID string, status domain.EscalationStatus, cursor string, limit int) (*service.EscalationPageResult, error)
	SuggestResponse(ctx context.Context, id string) (string, error)
}

type EscalationHandler struct {
	svc EscalationService
}

func NewEscalationHandler(svc EscalationService) *EscalationHandler {
	return &EscalationHandler{svc: svc}
}

type CreateEscalationRequest struct {
	CourseID  string `json:"course_id"`
	StudentID string `json:"student_id"`
	Query     string `json:"query"`
	Category  string `json:"category,omitempty"`
}

type RespondEscalationRequest struct {
	Response string `json:"response"`
	Resolve  bool   `json:"resolve"`
}

type EscalationResponse struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	StudentID   string `json:"student_id"`
	Query       string `json:"query"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	Response    string `json:"response,omitempty"`
	CreatedAt   string `json:"created_at"`
	RespondedAt string `json:"responded_at,omitempty"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
}

func escalationToResponse(e *domain.Escalation) *EscalationResponse {
	resp := &EscalationResponse{
		ID:        e.ID,
		CourseID:  e.CourseID,
		StudentID: e.StudentID,
		Query:     e.Query,
		Category:  string(e.Category),
		Status:    string(e.Status),
		Response:  e.Response,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
	if e.RespondedAt != nil {
		resp.RespondedAt = e.RespondedAt.Format(time.RFC3339)
	}
	if e.ResolvedAt != nil {
		resp.ResolvedAt = e.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}

type CreateEscalationResponse struct {
	Escalation     *EscalationResponse `json:"escalation"`
	Acknowledgment string              `json:"acknowledgment"`
}

func (h *EscalationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateEscalationRequest
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
	if req.Query == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}

	input := service.CreateEscalationInput{
		CourseID:  req.CourseID,
		StudentID: req.StudentID,
		Query:     req.Query,
		Category:  domain.EscalationCategory(req.Category),
	}

	result, err := h.svc.CreateEscalation(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, CreateEscalationResponse{
		Escalation:     escalationToResponse(result.Escalation),
		Acknowledgment: result.Acknowledgment,
	})
}

func (h *EscalationHandler) Respond(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	var req RespondEscalationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Response == "" {
		api.Error(w, http.StatusBadRequest, "response is required")
		return
	}

	escalation, err := h.svc.UpdateResponse(r.Context(), id, req.Response, req.Resolve)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, escalationToResponse(escalation))
}

func (h *EscalationHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	escalation, err := h.svc.Resolve(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, escalationToResponse(escalation))
}

func (h *EscalationHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	escalation, err := h.svc.Reopen(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, escalationToResponse(escalation))
}

type EscalationListResponse struct {
	Items   []*EscalationResponse `json:"items"`
	Cursor  string                `json:"cursor,omitempty"`
	HasMore bool                  `json:"has_more"`
}

func (h *EscalationHandler) List(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		api.Error(w, http.StatusBadRequest, "courseID is required")
		return
	}

	status := domain.EscalationStatus(r.URL.Query().Get("status"))
	cursor := r.URL.Query().Get("cursor")
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	page, err := h.svc.ListByCourse(r.Context(), courseID, status, cursor, limit)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*EscalationResponse, len(page.Items))
	for i, e := range page.Items {
		responses[i] = escalationToResponse(e)
	}

	api.Success(w, http.StatusOK, EscalationListResponse{
		Items:   responses,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
	})
}

type SuggestionResponse struct {
	Suggestion string `json:"suggestion"`
}

func (h *EscalationHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	suggestion, err := h.svc.SuggestResponse(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SuggestionResponse{Suggestion: suggestion})
}
