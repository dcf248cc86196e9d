package conversation

import (
	"context"
	"errors"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ErrRateLimited marks a completion failure caused by upstream throttling.
// Callers pick a different user-facing fallback for this case.
var ErrRateLimited = errors.New("conversation: model gateway rate limited")

// ErrMissingAPIKey is returned when a reply is needed but no gateway key is
// configured. Provider credentials are checked at startup; the gateway key is
// only required once a completion is actually attempted.
var ErrMissingAPIKey = errors.New("conversation: model gateway api key missing")

// ChatMessage is an internal message representation that can include system prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type LLMRequest struct {
	Model    string
	Messages []ChatMessage
}

type LLMResponse struct {
	Text string
}

type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}
