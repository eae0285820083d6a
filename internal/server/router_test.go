package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coursepilot/coursepilot/internal/api/handlers"
	"github.com/coursepilot/coursepilot/internal/domain"
	"github.com/coursepilot/coursepilot/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Ask(ctx context.Context, input service.AskInput) (*service.AskOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AskOutput), args.Error(1)
}

type MockIngestionService struct {
	mock.Mock
}

func (m *MockIngestionService) Ingest(ctx context.Context, input service.IngestInput) (*service.IngestResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

func (m *MockIngestionService) IngestFromStorage(ctx context.Context, key string, input service.IngestInput) (*service.IngestResult, error) {
	args := m.Called(ctx, key, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.IngestResult), args.Error(1)
}

type MockEscalationService struct {
	mock.Mock
}

func (m *MockEscalationService) CreateEscalation(ctx context.Context, input service.CreateEscalationInput) (*service.CreateEscalationResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreateEscalationResult), args.Error(1)
}

func (m *MockEscalationService) UpdateResponse(ctx context.Context, id, responseText string, resolve bool) (*domain.Escalation, error) {
	args := m.Called(ctx, id, responseText, resolve)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escalation), args.Error(1)
}

func (m *MockEscalationService) Resolve(ctx context.Context, id string) (*domain.Escalation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escalation), args.Error(1)
}

func (m *MockEscalationService) Reopen(ctx context.Context, id string) (*domain.Escalation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Escalation), args.Error(1)
}

func (m *MockEscalationService) ListByCourse(ctx context.Context, courseID string, status domain.EscalationStatus, cursor string, limit int) (*service.EscalationPageResult, error) {
	args := m.Called(ctx, courseID, status, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.EscalationPageResult), args.Error(1)
}

func (m *MockEscalationService) SuggestResponse(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type MockConductorService struct {
	mock.Mock
}

func (m *MockConductorService) Generate(ctx context.Context, courseID string, week int) (*domain.Announcement, error) {
	args := m.Called(ctx, courseID, week)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *MockConductorService) Publish(ctx context.Context, id string) (*domain.Announcement, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Announcement), args.Error(1)
}

func (m *MockConductorService) ListByCourse(ctx context.Context, courseID string) ([]*domain.Announcement, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Announcement), args.Error(1)
}

func setupRouter() (http.Handler, *MockAssistantService, *MockIngestionService, *MockEscalationService, *MockConductorService) {
	assistantSvc := new(MockAssistantService)
	ingestionSvc := new(MockIngestionService)
	escalationSvc := new(MockEscalationService)
	conductorSvc := new(MockConductorService)

	cfg := RouterConfig{
		AskHandler:          handlers.NewAskHandler(assistantSvc),
		IngestHandler:       handlers.NewIngestHandler(ingestionSvc),
		EscalationHandler:   handlers.NewEscalationHandler(escalationSvc),
		AnnouncementHandler: handlers.NewAnnouncementHandler(conductorSvc),
	}

	router := NewRouter(cfg)
	return router, assistantSvc, ingestionSvc, escalationSvc, conductorSvc
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_Ask(t *testing.T) {
	router, assistantSvc, _, _, _ := setupRouter()

	assistantSvc.On("Ask", mock.Anything, service.AskInput{
		CourseID:  "cs101",
		StudentID: "s-42",
		Question:  "When is the midterm?",
	}).Return(&service.AskOutput{
		Route:        domain.RoutePolicy,
		ResponseText: "The midterm is in week 7.",
		Citations: []service.Citation{
			{Source: "syllabus.txt", Excerpt: "Midterm exam in week 7"},
		},
	}, nil)

	body := `{"course_id":"cs101","student_id":"s-42","question":"When is the midterm?"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "POLICY", data["route"])
	assert.Equal(t, "The midterm is in week 7.", data["response_text"])
	assert.Equal(t, false, data["escalated"])
	assistantSvc.AssertExpectations(t)
}

func TestRouter_Ask_MissingFields(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	body := `{"course_id":"cs101","student_id":"s-42"}`
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_IngestDocument(t *testing.T) {
	router, _, ingestionSvc, _, _ := setupRouter()

	ingestionSvc.On("Ingest", mock.Anything, mock.MatchedBy(func(input service.IngestInput) bool {
		return input.CourseID == "cs101" && input.Title == "Syllabus"
	})).Return(&service.IngestResult{
		Source:        "Syllabus",
		Pages:         1,
		ChunksWritten: 3,
		PolicyChunks:  2,
		ConceptChunks: 1,
	}, nil)

	body := `{"course_id":"cs101","title":"Syllabus","text":"Late submissions lose 10 percent per day."}`
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["chunks_written"])
	ingestionSvc.AssertExpectations(t)
}

func TestRouter_IngestDocument_TextAndKeyRejected(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	body := `{"course_id":"cs101","title":"Syllabus","text":"abc","storage_key":"docs/syllabus.txt"}`
	req := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_EscalationLifecycleRoutes(t *testing.T) {
	router, _, _, escalationSvc, _ := setupRouter()

	now := time.Now().UTC()
	resolved := &domain.Escalation{
		ID:         "esc-1",
		CourseID:   "cs101",
		StudentID:  "s-42",
		Query:      "I need an extension",
		Category:   domain.CategoryExtensionRequest,
		Status:     domain.EscalationStatusResolved,
		Response:   "Granted until Friday.",
		CreatedAt:  now,
		ResolvedAt: &now,
	}
	escalationSvc.On("Resolve", mock.Anything, "esc-1").Return(resolved, nil)

	req := httptest.NewRequest(http.MethodPost, "/escalations/esc-1/resolve", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "resolved", data["status"])
	assert.NotEmpty(t, data["resolved_at"])
	escalationSvc.AssertExpectations(t)
}

func TestRouter_EscalationNotFound(t *testing.T) {
	router, _, _, escalationSvc, _ := setupRouter()

	escalationSvc.On("Resolve", mock.Anything, "missing").Return(nil, domain.ErrEscalationNotFound)

	req := httptest.NewRequest(http.MethodPost, "/escalations/missing/resolve", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_ListEscalationsByCourse(t *testing.T) {
	router, _, _, escalationSvc, _ := setupRouter()

	escalationSvc.On("ListByCourse", mock.Anything, "cs101", domain.EscalationStatusPending, "", 20).
		Return(&service.EscalationPageResult{
			Items: []*domain.Escalation{
				{
					ID:        "esc-1",
					CourseID:  "cs101",
					StudentID: "s-42",
					Query:     "grade question",
					Category:  domain.CategoryGradeDispute,
					Status:    domain.EscalationStatusPending,
					CreatedAt: time.Now().UTC(),
				},
			},
			HasMore: false,
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/courses/cs101/escalations?status=pending", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	items := data["items"].([]interface{})
	require.Len(t, items, 1)
	escalationSvc.AssertExpectations(t)
}

func TestRouter_GenerateAnnouncement(t *testing.T) {
	router, _, _, _, conductorSvc := setupRouter()

	now := time.Now().UTC()
	conductorSvc.On("Generate", mock.Anything, "cs101", 3).Return(&domain.Announcement{
		ID:         "ann-1",
		CourseID:   "cs101",
		WeekNumber: 3,
		Title:      "Week 3: Recursion",
		Content:    "This week we cover recursion.",
		Status:     domain.AnnouncementStatusDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil)

	body := `{"week_number":3}`
	req := httptest.NewRequest(http.MethodPost, "/courses/cs101/announcements", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "Week 3: Recursion", data["title"])
	assert.Equal(t, "draft", data["status"])
	conductorSvc.AssertExpectations(t)
}

func TestRouter_PublishAnnouncement(t *testing.T) {
	router, _, _, _, conductorSvc := setupRouter()

	now := time.Now().UTC()
	conductorSvc.On("Publish", mock.Anything, "ann-1").Return(&domain.Announcement{
		ID:          "ann-1",
		CourseID:    "cs101",
		WeekNumber:  3,
		Title:       "Week 3: Recursion",
		Content:     "This week we cover recursion.",
		Status:      domain.AnnouncementStatusPublished,
		CreatedAt:   now,
		UpdatedAt:   now,
		PublishedAt: &now,
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/announcements/ann-1/publish", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "published", data["status"])
	assert.NotEmpty(t, data["published_at"])
	conductorSvc.AssertExpectations(t)
}
