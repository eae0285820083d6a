package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coursepilot/coursepilot/internal/api"
	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/go-chi/chi/v5"
)

type ConductorService interface {
	Generate(ctx context.Context, courseID string, week int) (*domain.Announcement, error)
	Publish(ctx context.Context, id string) (*domain.Announcement, error)
	ListByCourse(ctx context.Context, courseID string) ([]*domain.Announcement, error)
}

type AnnouncementHandler struct {
	svc ConductorService
}

func NewAnnouncementHandler(svc ConductorService) *AnnouncementHandler {
	return &AnnouncementHandler{svc: svc}
}

type GenerateAnnouncementRequest struct {
	WeekNumber int `json:"week_number,omitempty"`
}

type AnnouncementResponse struct {
	ID          string `json:"id"`
	CourseID    string `json:"course_id"`
	WeekNumber  int    `json:"week_number"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	PublishedAt string `json:"published_at,omitempty"`
}

func announcementToResponse(a *domain.Announcement) *AnnouncementResponse {
	resp := &AnnouncementResponse{
		ID:         a.ID,
		CourseID:   a.CourseID,
		WeekNumber: a.WeekNumber,
		Title:      a.Title,
		Content:    a.Content,
		Status:     string(a.Status),
		CreatedAt:  a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  a.UpdatedAt.Format(time.RFC3339),
	}
	if a.PublishedAt != nil {
		resp.PublishedAt = a.PublishedAt.Format(time.RFC3339)
	}
	return resp
}

// Generate drafts the announcement for a course week. Re-running for the
// same week returns the existing draft unchanged.
func (h *AnnouncementHandler) Generate(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		api.Error(w, http.StatusBadRequest, "courseID is required")
		return
	}

	var req GenerateAnnouncementRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	announcement, err := h.svc.Generate(r.Context(), courseID, req.WeekNumber)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, announcementToResponse(announcement))
}

func (h *AnnouncementHandler) Publish(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	announcement, err := h.svc.Publish(r.Context(), id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, announcementToResponse(announcement))
}

type AnnouncementListResponse struct {
	Items []*AnnouncementResponse `json:"items"`
}

func (h *AnnouncementHandler) List(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		api.Error(w, http.StatusBadRequest, "courseID is required")
		return
	}

	announcements, err := h.svc.ListByCourse(r.Context(), courseID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*AnnouncementResponse, len(announcements))
	for i, a := range announcements {
		responses[i] = announcementToResponse(a)
	}

	api.Success(w, http.StatusOK, AnnouncementListResponse{Items: responses})
}
