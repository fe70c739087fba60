// Package coach orchestrates streaming chat turns between users and the
// AI wellness coach.
package coach

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	logpkg "github.com/aromi/coach-api/internal/logger"
	"github.com/aromi/coach-api/internal/models"
	"github.com/aromi/coach-api/internal/services/ai"
	"go.uber.org/zap"
)

// SystemPrompt frames every coaching conversation
const SystemPrompt = "You are Aromi, a supportive personal wellness coach. " +
	"You help users with fitness, nutrition, and healthy habits. " +
	"Be encouraging, practical, and concise. " +
	"If a question requires medical expertise, recommend consulting a professional."

var (
	// ErrEmptyMessage indicates the user message was empty after trimming
	ErrEmptyMessage = errors.New("message content is empty")
	// ErrConversationNotFound indicates the conversation does not exist
	ErrConversationNotFound = errors.New("conversation not found")
)

// ConversationStore is the persistence surface the orchestrator needs
type ConversationStore interface {
	GetByID(ctx context.Context, id int64) (*models.Conversation, error)
	CreateMessage(ctx context.Context, message *models.Message) error
	ListMessages(ctx context.Context, conversationID int64) ([]*models.Message, error)
}

// Orchestrator runs one chat turn at a time per conversation: persist the
// user message, replay history to the model, stream the reply out, then
// persist the full reply.
type Orchestrator struct {
	store   ConversationStore
	gateway ai.Gateway
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[int64]*conversationLock
}

type conversationLock struct {
	mu   sync.Mutex
	refs int
}

// NewOrchestrator creates a new chat turn orchestrator
func NewOrchestrator(store ConversationStore, gateway ai.Gateway, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		store:   store,
		gateway: gateway,
		logger:  logger,
		locks:   make(map[int64]*conversationLock),
	}
}

// lockConversation serializes turns within one conversation. Locks are
// refcounted so the map does not grow with every conversation ever seen.
func (o *Orchestrator) lockConversation(id int64) func() {
	o.mu.Lock()
	l, ok := o.locks[id]
	if !ok {
		l = &conversationLock{}
		o.locks[id] = l
	}
	l.refs++
	o.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		o.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(o.locks, id)
		}
		o.mu.Unlock()
	}
}

// HandleTurn runs a full chat turn. Each non-empty text delta is passed
// to emit as it arrives; the accumulated reply is returned and persisted
// once the stream completes. If emit returns an error the client is gone
// and the assistant reply is discarded.
func (o *Orchestrator) HandleTurn(ctx context.Context, conversationID int64, userText, model string, emit func(delta string) error) (string, error) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return "", ErrEmptyMessage
	}

	unlock := o.lockConversation(conversationID)
	defer unlock()

	conversation, err := o.store.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrConversationNotFound
		}
		return "", fmt.Errorf("failed to load conversation: %w", err)
	}

	userMessage := &models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleUser,
		Content:        userText,
	}
	if err := o.store.CreateMessage(ctx, userMessage); err != nil {
		return "", fmt.Errorf("failed to persist user message: %w", err)
	}

	history, err := o.store.ListMessages(ctx, conversation.ID)
	if err != nil {
		return "", fmt.Errorf("failed to load message history: %w", err)
	}

	prompt := make([]ai.Message, 0, len(history)+1)
	prompt = append(prompt, ai.SystemMessage(SystemPrompt))
	for _, msg := range history {
		switch msg.Role {
		case models.RoleAssistant:
			prompt = append(prompt, ai.AssistantMessage(msg.Content))
		default:
			prompt = append(prompt, ai.UserMessage(msg.Content))
		}
	}

	start := time.Now()
	stream, err := o.gateway.CompleteStreaming(ctx, prompt, model)
	if err != nil {
		return "", fmt.Errorf("failed to start completion: %w", err)
	}
	defer stream.Close()

	var reply strings.Builder
	for stream.Next() {
		delta := stream.Current()
		if err := emit(delta); err != nil {
			// Client disconnected mid-stream. The user message stays,
			// the partial reply is dropped.
			o.logger.Info("chat_stream_client_gone",
				zap.Int64("conversation_id", conversation.ID),
				zap.Int("partial_length", reply.Len()),
				zap.Error(err),
			)
			return "", fmt.Errorf("failed to emit delta: %w", err)
		}
		reply.WriteString(delta)
	}

	if err := stream.Err(); err != nil {
		// Provider errors can embed response body text; sanitize before logging.
		o.logger.Warn("chat_stream_failed",
			zap.Int64("conversation_id", conversation.ID),
			zap.Int("partial_length", reply.Len()),
			zap.String("error", logpkg.SanitizeError(err)),
		)
		return "", fmt.Errorf("completion stream failed: %w", err)
	}

	assistantMessage := &models.Message{
		ConversationID: conversation.ID,
		Role:           models.RoleAssistant,
		Content:        reply.String(),
	}
	if err := o.store.CreateMessage(ctx, assistantMessage); err != nil {
		return "", fmt.Errorf("failed to persist assistant message: %w", err)
	}

	o.logger.Info("chat_turn_completed",
		zap.Int64("conversation_id", conversation.ID),
		zap.Int("reply_length", reply.Len()),
		zap.Duration("duration", time.Since(start)),
	)

	return reply.String(), nil
}
