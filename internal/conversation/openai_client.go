package conversation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/revgas/gasbot/pkg/logging"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIClient calls an OpenAI-wire-format model gateway.
type OpenAIClient struct {
	client  chatClient
	apiKey  string
	model   string
	timeout time.Duration
	logger  *logging.Logger
}

// NewOpenAIClient builds a gateway client. baseURL overrides the default
// OpenAI endpoint when the deployment fronts a different gateway.
func NewOpenAIClient(apiKey, baseURL, model string, timeout time.Duration, logger *logging.Logger) *OpenAIClient {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(cfg),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}
}

var _ LLMClient = (*OpenAIClient)(nil)

// Complete sends the full message array and returns the first choice's text.
// HTTP 429 responses surface as ErrRateLimited so callers can pick the
// throttling-specific fallback.
func (c *OpenAIClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	if strings.TrimSpace(c.apiKey) == "" {
		return LLMResponse{}, ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = c.model
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return LLMResponse{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return LLMResponse{}, fmt.Errorf("conversation: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return LLMResponse{}, errors.New("conversation: gateway returned no choices")
	}

	return LLMResponse{Text: strings.TrimSpace(resp.Choices[0].Message.Content)}, nil
}
