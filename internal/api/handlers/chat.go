package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/cloo-solutions/askdsa/internal/api"
	"github.com/cloo-solutions/askdsa/internal/telemetry"
)

type ChatService interface {
	Answer(ctx context.Context, sessionID, question string) (string, error)
}

type ChatHandler struct {
	svc ChatService
}

func NewChatHandler(svc ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"sessionId"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	req.SessionID = strings.TrimSpace(req.SessionID)

	answer, err := h.svc.Answer(r.Context(), req.SessionID, req.Question)
	if err != nil {
		// Internals stay in logs and telemetry; HandleError keeps them
		// out of the response.
		if api.DomainErrorToHTTP(err) >= http.StatusInternalServerError {
			log.Printf("chat pipeline failed: %v", err)
			telemetry.CaptureError(r.Context(), err)
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, ChatResponse{Answer: answer})
}
