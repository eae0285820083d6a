package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coursepilot/coursepilot/internal/api"
	"github.com/coursepilot/coursepilot/internal/service"
)

type IngestionService interface {
	Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error)
	IngestFromStorage(ctx context.Context, key string, input service.IngestInput) (*service.IngestResult, error)
}

type IngestHandler struct {
	svc IngestionService
}

func NewIngestHandler(svc IngestionService) *IngestHandler {
	return &IngestHandler{svc: svc}
}

type IngestRequest struct {
	CourseID   string `json:"course_id"`
	Title      string `json:"title"`
	Text       string `json:"text,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
	WeekNumber *int   `json:"week_number,omitempty"`
	Topic      string `json:"topic,omitempty"`
}

type IngestResponse struct {
	Source        string `json:"source"`
	Pages         int    `json:"pages"`
	ChunksWritten int    `json:"chunks_written"`
	PolicyChunks  int    `json:"policy_chunks"`
	ConceptChunks int    `json:"concept_chunks"`
}

func ingestResultToResponse(res *service.IngestResult) IngestResponse {
	return IngestResponse{
		Source:        res.Source,
		Pages:         res.Pages,
		ChunksWritten: res.ChunksWritten,
		PolicyChunks:  res.PolicyChunks,
		ConceptChunks: res.ConceptChunks,
	}
}

func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CourseID == "" {
		api.Error(w, http.StatusBadRequest, "course_id is required")
		return
	}
	if req.Title == "" {
		api.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Text == "" && req.StorageKey == "" {
		api.Error(w, http.StatusBadRequest, "text or storage_key is required")
		return
	}
	if req.Text != "" && req.StorageKey != "" {
		api.Error(w, http.StatusBadRequest, "text and storage_key are mutually exclusive")
		return
	}

	input := service.IngestInput{
		CourseID:   req.CourseID,
		Title:      req.Title,
		Data:       []byte(req.Text),
		WeekNumber: req.WeekNumber,
		Topic:      req.Topic,
	}

	var (
		result *service.IngestResult
		err    error
	)
	if req.StorageKey != "" {
		result, err = h.svc.IngestFromStorage(r.Context(), req.StorageKey, input)
	} else {
		result, err = h.svc.Ingest(r.Context(), input)
	}
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, ingestResultToResponse(result))
}
