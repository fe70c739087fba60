package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	logpkg "github.com/aromi/coach-api/internal/logger"
	"github.com/aromi/coach-api/internal/middleware"
	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/services/ai"
	"github.com/aromi/coach-api/internal/services/coach"
	"github.com/aromi/coach-api/internal/validation"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const (
	// MaxMessageLength is the maximum length for a chat message
	MaxMessageLength = 8000
	// MaxTitleLength is the maximum length for a conversation title
	MaxTitleLength = 200
	// DefaultConversationTitle is used when a create request has no title
	DefaultConversationTitle = "New conversation"
)

// ConversationStore is the persistence surface conversation handlers need
type ConversationStore interface {
	Create(ctx context.Context, conversation *models.Conversation) error
	GetByID(ctx context.Context, id int64) (*models.Conversation, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Conversation, error)
	Delete(ctx context.Context, id int64) error
	ListMessages(ctx context.Context, conversationID int64) ([]*models.Message, error)
}

// TurnStreamer runs one streaming chat turn
type TurnStreamer interface {
	HandleTurn(ctx context.Context, conversationID int64, userText, model string, emit func(delta string) error) (string, error)
}

// ConversationHandler handles conversation and chat requests
type ConversationHandler struct {
	store    ConversationStore
	streamer TurnStreamer
	logger   *zap.Logger
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(store ConversationStore, streamer TurnStreamer, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{store: store, streamer: streamer, logger: logger}
}

// RegisterRoutes registers conversation routes on the given router.
// The router should already carry the /conversations prefix.
func (h *ConversationHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListConversations).Methods("GET")
	r.HandleFunc("", h.CreateConversation).Methods("POST")
	r.HandleFunc("/{id}", h.GetConversation).Methods("GET")
	r.HandleFunc("/{id}", h.DeleteConversation).Methods("DELETE")
	r.HandleFunc("/{id}/messages", h.StreamMessage).Methods("POST")
}

// CreateConversationRequest represents a create conversation request
type CreateConversationRequest struct {
	Title string `json:"title" validate:"omitempty,max=200"`
}

// StreamMessageRequest represents a chat turn request
type StreamMessageRequest struct {
	Content string `json:"content" validate:"required,min=1,max=8000"`
	Model   string `json:"model" validate:"omitempty,max=200"`
}

// ConversationDetail is a conversation with its message history
type ConversationDetail struct {
	*models.Conversation
	Messages []*models.Message `json:"messages"`
}

// ListConversations lists the authenticated user's conversations
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversations, err := h.store.ListByUserID(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, conversations)
}

// CreateConversation creates a new conversation for the authenticated user
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateConversationRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	title := validation.SanitizeText(req.Title)
	if title == "" {
		title = DefaultConversationTitle
	}

	conversation := &models.Conversation{
		UserID: user.ID,
		Title:  title,
	}
	if err := h.store.Create(r.Context(), conversation); err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, conversation)
}

// GetConversation returns a conversation with its message history
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversation, ok := h.loadOwnedConversation(w, r, user.ID)
	if !ok {
		return
	}

	messages, err := h.store.ListMessages(r.Context(), conversation.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, &ConversationDetail{
		Conversation: conversation,
		Messages:     messages,
	})
}

// DeleteConversation removes a conversation and its messages
func (h *ConversationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversation, ok := h.loadOwnedConversation(w, r, user.ID)
	if !ok {
		return
	}

	if err := h.store.Delete(r.Context(), conversation.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// StreamMessage runs a chat turn and streams the reply as server-sent
// events. Request validation happens before any SSE headers are written
// so early failures stay plain JSON errors.
func (h *ConversationHandler) StreamMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conversation, ok := h.loadOwnedConversation(w, r, user.ID)
	if !ok {
		return
	}

	var req StreamMessageRequest
	if err := decodeJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	content := validation.SanitizeText(req.Content)
	if content == "" {
		respondError(w, http.StatusBadRequest, "Message content is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(delta string) error {
		return writeSSEFrame(w, flusher, map[string]string{"content": delta})
	}

	_, err := h.streamer.HandleTurn(r.Context(), conversation.ID, content, req.Model, emit)
	if err != nil {
		switch {
		case errors.Is(err, coach.ErrEmptyMessage):
			_ = writeSSEFrame(w, flusher, map[string]string{"error": "Message content is required"})
		case errors.Is(err, coach.ErrConversationNotFound):
			_ = writeSSEFrame(w, flusher, map[string]string{"error": "Conversation not found"})
		case ai.IsRateLimitError(err):
			h.logger.Warn("chat_turn_rate_limited",
				zap.Int64("conversation_id", conversation.ID),
			)
			_ = writeSSEFrame(w, flusher, map[string]string{"error": "The coach is busy right now, please try again in a moment"})
		default:
			h.logger.Error("chat_turn_failed",
				zap.Int64("conversation_id", conversation.ID),
				zap.String("error", logpkg.SanitizeError(err)),
			)
			_ = writeSSEFrame(w, flusher, map[string]string{"error": "Failed to generate response"})
		}
		return
	}

	_ = writeSSEFrame(w, flusher, map[string]bool{"done": true})
}

// loadOwnedConversation parses the path ID, loads the conversation, and
// enforces ownership. It writes the error response itself on failure.
func (h *ConversationHandler) loadOwnedConversation(w http.ResponseWriter, r *http.Request, userID uuid.UUID) (*models.Conversation, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid conversation ID")
		return nil, false
	}

	conversation, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(w, http.StatusNotFound, "Conversation not found")
			return nil, false
		}
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}

	if conversation.UserID != userID {
		respondError(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}

	return conversation, true
}

func writeSSEFrame(w http.ResponseWriter, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal SSE payload: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write SSE frame: %w", err)
	}
	flusher.Flush()
	return nil
}
