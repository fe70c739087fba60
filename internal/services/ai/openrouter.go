package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/packages/ssestream"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"
)

const (
	// DefaultModel is the model used when none is configured or requested
	DefaultModel = "meta-llama/llama-3.3-70b-instruct"
	// DefaultBaseURL is the default OpenRouter API base URL
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	// DefaultTimeout is the timeout for non-streaming API calls
	DefaultTimeout = 60 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenRouterGateway implements the Gateway interface against an
// OpenAI-compatible chat completions endpoint.
type OpenRouterGateway struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

// NewOpenRouterGateway creates a new gateway with default logging disabled
func NewOpenRouterGateway(apiKey, baseURL, model string) *OpenRouterGateway {
	return NewOpenRouterGatewayWithLogger(apiKey, baseURL, model, nil, false)
}

// NewOpenRouterGatewayWithLogger creates a new gateway with logger support
func NewOpenRouterGatewayWithLogger(apiKey, baseURL, model string, logger *zap.Logger, debugMode bool) *OpenRouterGateway {
	if model == "" {
		model = DefaultModel
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	// Streaming responses can run well past the non-streaming timeout,
	// so the HTTP client itself carries no deadline. Callers bound
	// requests through context.
	httpClient := &http.Client{}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenRouterGateway{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

func (g *OpenRouterGateway) resolveModel(model string) string {
	if model == "" {
		return g.model
	}
	return model
}

func toParamMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}

// CompleteStreaming starts a streaming chat completion
func (g *OpenRouterGateway) CompleteStreaming(ctx context.Context, messages []Message, model string) (Stream, error) {
	resolved := g.resolveModel(model)

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(resolved),
		Messages: toParamMessages(messages),
		// Temperature omitted - use model default to avoid "unsupported_value" errors
	}

	if g.logger != nil && g.debugMode {
		g.logger.Debug("llm_api_request",
			zap.String("operation", "complete_streaming"),
			zap.String("model", resolved),
			zap.Int("message_count", len(messages)),
		)
	}

	stream := g.client.Chat.Completions.NewStreaming(ctx, req)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return nil, fmt.Errorf("failed to start completion stream: %w", apiErr)
		}
		return nil, fmt.Errorf("failed to start completion stream: %w", err)
	}

	return &chunkStream{inner: stream}, nil
}

// chunkStream adapts the SDK's chunk stream to text deltas, skipping
// chunks that carry no content.
type chunkStream struct {
	inner   *ssestream.Stream[openai.ChatCompletionChunk]
	current string
}

func (s *chunkStream) Next() bool {
	for s.inner.Next() {
		chunk := s.inner.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		s.current = delta
		return true
	}
	return false
}

func (s *chunkStream) Current() string {
	return s.current
}

func (s *chunkStream) Err() error {
	err := s.inner.Err()
	if err == nil {
		return nil
	}
	if apiErr := ExtractAPIError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func (s *chunkStream) Close() error {
	return s.inner.Close()
}

// CompleteStructured requests a single completion constrained to a JSON
// object and returns the raw response text.
func (g *OpenRouterGateway) CompleteStructured(ctx context.Context, messages []Message, model string) (string, error) {
	resolved := g.resolveModel(model)

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(resolved),
		Messages: toParamMessages(messages),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if g.logger != nil && g.debugMode {
		previews := make([]string, 0, len(messages))
		for _, msg := range messages {
			previews = append(previews, SanitizePrompt(msg.Content, false))
		}
		g.logger.Debug("llm_api_request",
			zap.String("operation", "complete_structured"),
			zap.String("model", resolved),
			zap.Int("message_count", len(messages)),
			zap.Strings("message_previews", previews),
		)
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)

	if err != nil {
		if g.logger != nil && g.debugMode {
			g.logger.Debug("llm_api_error",
				zap.String("operation", "complete_structured"),
				zap.String("model", resolved),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("failed to complete: %w", apiErr)
		}
		return "", fmt.Errorf("failed to complete: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content

	if g.logger != nil && g.debugMode {
		g.logger.Debug("llm_api_response",
			zap.String("operation", "complete_structured"),
			zap.String("model", resolved),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}
