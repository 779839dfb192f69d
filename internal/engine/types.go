package engine

import "context"

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is the provider-agnostic message we pass around.
type ChatMessage struct {
	Role    MessageRole
	Content string
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// LLMResponse is a normalized result of one chat call.
// Content is empty when the provider returned no usable choice.
type LLMResponse struct {
	Content      string
	HasChoice    bool
	Usage        Usage
	FinishReason string
}

// LLMClient abstracts the chat-completion SDK.
type LLMClient interface {
	Chat(ctx context.Context, model string, messages []ChatMessage, opts ChatOptions) (LLMResponse, error)
}

// ClientFactory builds an LLMClient bound to one credential.
// The credential is read per dispatch, so clients are built per call.
type ClientFactory func(apiKey string) (LLMClient, error)

// ChatOptions keeps knobs forwarded to the SDK.
type ChatOptions struct {
	Temperature     *float32 // nil leaves the provider default
	MaxOutputTokens int
}
