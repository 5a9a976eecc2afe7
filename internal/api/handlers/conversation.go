package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Harshitk-cp/jungclaude/internal/domain"
	"github.com/Harshitk-cp/jungclaude/internal/service"
)

// Ingester turns a stored conversation into fragments.
type Ingester interface {
	Ingest(ctx context.Context, conv domain.Conversation) (*service.IngestResult, error)
}

type ConversationHandler struct {
	conversations domain.ConversationStore
	ingester      Ingester
	logger        *zap.Logger
}

func NewConversationHandler(conversations domain.ConversationStore, ingester Ingester, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, ingester: ingester, logger: logger}
}

type createConversationRequest struct {
	UserID          string  `json:"user_id"`
	UserInput       string  `json:"user_input"`
	AIResponse      string  `json:"ai_response"`
	TensionLevel    float64 `json:"tension_level"`
	AffectiveCharge float64 `json:"affective_charge"`
	Platform        string  `json:"platform"`
	SessionID       string  `json:"session_id"`
}

type createConversationResponse struct {
	Conversation *domain.Conversation  `json:"conversation"`
	Ingest       *service.IngestResult `json:"ingest,omitempty"`
}

// Create records a conversation from the chat adapter and ingests it.
// Ingest failures do not fail the request; the conversation is already stored.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeError(w, http.StatusBadRequest, "user_input is required")
		return
	}
	if req.TensionLevel < 0 {
		writeError(w, http.StatusBadRequest, "tension_level must be non-negative")
		return
	}

	platform := req.Platform
	if platform == "" {
		platform = domain.PlatformWeb
	}
	if platform == domain.PlatformDream || platform == domain.PlatformProactiveRumination {
		writeError(w, http.StatusBadRequest, "platform is reserved for agent-generated conversations")
		return
	}

	conv := &domain.Conversation{
		UserID:          req.UserID,
		UserInput:       req.UserInput,
		AIResponse:      req.AIResponse,
		TensionLevel:    req.TensionLevel,
		AffectiveCharge: req.AffectiveCharge,
		Platform:        platform,
		SessionID:       req.SessionID,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.conversations.Create(r.Context(), conv); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store conversation")
		return
	}

	resp := createConversationResponse{Conversation: conv}
	res, err := h.ingester.Ingest(r.Context(), *conv)
	if err != nil {
		h.logger.Error("ingest failed", zap.Int64("conversation_id", conv.ID), zap.Error(err))
	} else {
		resp.Ingest = res
	}

	writeJSON(w, http.StatusCreated, resp)
}
