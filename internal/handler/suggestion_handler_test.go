package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/suggestbox-go-api/internal/dto"
	"github.com/noah-isme/suggestbox-go-api/internal/handler"
	"github.com/noah-isme/suggestbox-go-api/internal/middleware"
	"github.com/noah-isme/suggestbox-go-api/internal/service"
)

type mockSuggestionService struct {
	lastKey      string
	lastID       uint
	lastCreate   dto.SuggestionCreateRequest
	lastSince    *time.Time
	lastFilter   dto.SuggestionFilter
	response     dto.SuggestionResponse
	listResponse dto.SuggestionListResponse
	err          error
}

func (m *mockSuggestionService) Create(_ context.Context, studentKey string, req dto.SuggestionCreateRequest) (dto.SuggestionResponse, error) {
	m.lastKey = studentKey
	m.lastCreate = req
	return m.response, m.err
}

func (m *mockSuggestionService) ListForOwner(_ context.Context, studentKey string, answeredSince *time.Time) ([]dto.SuggestionResponse, error) {
	m.lastKey = studentKey
	m.lastSince = answeredSince
	if m.err != nil {
		return nil, m.err
	}
	return []dto.SuggestionResponse{m.response}, nil
}

func (m *mockSuggestionService) ListForAdmin(_ context.Context, filter dto.SuggestionFilter) (dto.SuggestionListResponse, error) {
	m.lastFilter = filter
	return m.listResponse, m.err
}

func (m *mockSuggestionService) UpdateByOwner(_ context.Context, id uint, studentKey string, req dto.SuggestionUpdateRequest) (dto.SuggestionResponse, error) {
	m.lastID = id
	m.lastKey = studentKey
	return m.response, m.err
}

func (m *mockSuggestionService) SetNotificationEmail(_ context.Context, id uint, studentKey, email string) (dto.SuggestionResponse, error) {
	m.lastID = id
	m.lastKey = studentKey
	return m.response, m.err
}

func (m *mockSuggestionService) DeleteByOwner(_ context.Context, id uint, studentKey string) error {
	m.lastID = id
	m.lastKey = studentKey
	return m.err
}

func (m *mockSuggestionService) Answer(_ context.Context, id uint, req dto.SuggestionAnswerRequest) (dto.SuggestionResponse, error) {
	m.lastID = id
	return m.response, m.err
}

func (m *mockSuggestionService) DeleteByAdmin(_ context.Context, id uint) error {
	m.lastID = id
	return m.err
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func newSuggestionApp(svc service.SuggestionService) *fiber.App {
	app := fiber.New()
	h := handler.NewSuggestionHandler(svc, zerolog.New(io.Discard))
	h.RegisterPublic(app.Group("/api/suggestions", middleware.StudentKeyOptional()))
	h.RegisterOwner(app.Group("/api/me/suggestions", middleware.StudentKeyRequired()))
	return app
}

func TestSuggestionHandler_CreateMintsKeyForNewSubmitter(t *testing.T) {
	svc := &mockSuggestionService{response: dto.SuggestionResponse{ID: 1, Status: "pending"}}
	app := newSuggestionApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/suggestions", dto.SuggestionCreateRequest{
		Grade: 2, Title: "Longer lunch break", Content: "Twenty minutes is not enough.",
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(middleware.StudentKeyHeader), "expected a freshly minted key in the response header")
	require.Equal(t, resp.Header.Get(middleware.StudentKeyHeader), svc.lastKey)
}

func TestSuggestionHandler_CreateReusesPresentedKey(t *testing.T) {
	svc := &mockSuggestionService{response: dto.SuggestionResponse{ID: 1}}
	app := newSuggestionApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/suggestions", dto.SuggestionCreateRequest{
		Grade: 2, Title: "Longer lunch break", Content: "Twenty minutes is not enough.",
	})
	req.Header.Set(middleware.StudentKeyHeader, "existing-key")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	require.Equal(t, "existing-key", svc.lastKey)
}

func TestSuggestionHandler_CreateDuplicate(t *testing.T) {
	svc := &mockSuggestionService{err: service.ErrDuplicate}
	app := newSuggestionApp(svc)

	req := jsonRequest(t, http.MethodPost, "/api/suggestions", dto.SuggestionCreateRequest{
		Grade: 2, Title: "Longer lunch break", Content: "Twenty minutes is not enough.",
	})

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestSuggestionHandler_ListRequiresKey(t *testing.T) {
	app := newSuggestionApp(&mockSuggestionService{})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/me/suggestions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestSuggestionHandler_ListAnsweredSince(t *testing.T) {
	svc := &mockSuggestionService{}
	app := newSuggestionApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/me/suggestions?answered_since=2026-08-01T00:00:00Z", nil)
	req.Header.Set(middleware.StudentKeyHeader, "key-a")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.NotNil(t, svc.lastSince)
	require.Equal(t, 2026, svc.lastSince.Year())
}

func TestSuggestionHandler_ListRejectsBadTimestamp(t *testing.T) {
	app := newSuggestionApp(&mockSuggestionService{})

	req := httptest.NewRequest(http.MethodGet, "/api/me/suggestions?answered_since=yesterday", nil)
	req.Header.Set(middleware.StudentKeyHeader, "key-a")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestSuggestionHandler_UpdateErrors(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "not found", err: service.ErrNotFound, statusCode: fiber.StatusNotFound},
		{name: "locked", err: service.ErrLocked, statusCode: fiber.StatusConflict},
		{name: "store down", err: service.ErrStoreUnavailable, statusCode: fiber.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSuggestionService{err: tc.err}
			app := newSuggestionApp(svc)

			title := "Changed my mind"
			req := jsonRequest(t, http.MethodPatch, "/api/me/suggestions/5", dto.SuggestionUpdateRequest{Title: &title})
			req.Header.Set(middleware.StudentKeyHeader, "key-a")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
			require.Equal(t, uint(5), svc.lastID)
		})
	}
}

func TestSuggestionHandler_UpdateRejectsBadID(t *testing.T) {
	svc := &mockSuggestionService{}
	app := newSuggestionApp(svc)

	title := "Changed my mind"
	req := jsonRequest(t, http.MethodPatch, "/api/me/suggestions/abc", dto.SuggestionUpdateRequest{Title: &title})
	req.Header.Set(middleware.StudentKeyHeader, "key-a")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	var response struct {
		Success bool   `json:"success"`
		Code    string `json:"code"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success, "the rejection must be the only response written")
	require.Equal(t, "validation_error", response.Code)
	require.Zero(t, svc.lastID, "service must not be reached with an unparsed id")
}

func TestSuggestionHandler_Delete(t *testing.T) {
	svc := &mockSuggestionService{}
	app := newSuggestionApp(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/me/suggestions/9", nil)
	req.Header.Set(middleware.StudentKeyHeader, "key-a")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	require.Equal(t, uint(9), svc.lastID)
	require.Equal(t, "key-a", svc.lastKey)
}

func TestSuggestionHandler_SetNotificationEmail(t *testing.T) {
	svc := &mockSuggestionService{response: dto.SuggestionResponse{ID: 3}}
	app := newSuggestionApp(svc)

	req := jsonRequest(t, http.MethodPatch, "/api/me/suggestions/3/notification-email", dto.NotificationEmailRequest{Email: "student@example.com"})
	req.Header.Set(middleware.StudentKeyHeader, "key-a")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(3), svc.lastID)
}
