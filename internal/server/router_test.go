package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/askdsa/internal/api/handlers"
)

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Answer(ctx context.Context, sessionID, question string) (string, error) {
	args := m.Called(ctx, sessionID, question)
	return args.String(0), args.Error(1)
}

func newTestRouter(svc handlers.ChatService) http.Handler {
	return NewRouter(RouterConfig{
		ChatHandler: handlers.NewChatHandler(svc),
	})
}

func TestRouterHealth(t *testing.T) {
	router := newTestRouter(new(MockChatService))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Data["status"])
}

func TestRouterChat(t *testing.T) {
	svc := new(MockChatService)
	svc.On("Answer", mock.Anything, "s1", "what is a heap?").
		Return("A heap is a complete binary tree.", nil)

	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"question":"what is a heap?","sessionId":"s1"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "A heap is a complete binary tree.")
	svc.AssertExpectations(t)
}

func TestRouterSetsRequestID(t *testing.T) {
	router := newTestRouter(new(MockChatService))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouterRejectsOversizedBody(t *testing.T) {
	router := newTestRouter(new(MockChatService))

	body := strings.NewReader(`{"question":"q","sessionId":"s"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/chat", body)
	req.ContentLength = 2 * 1024 * 1024
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRouterUnknownRoute(t *testing.T) {
	router := newTestRouter(new(MockChatService))

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
