package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIClient implements engine.LLMClient by calling the OpenAI SDK directly.
// One client is bound to one API key.
type OpenAIClient struct {
	client  *openai.Client
	baseURL string
}

// NewOpenAIClient creates a new OpenAI client.
// baseURL may be empty to use the default endpoint.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) (*OpenAIClient, error) {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if httpClient != nil {
		config.HTTPClient = httpClient
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(config),
		baseURL: baseURL,
	}, nil
}

// Chat implements engine.LLMClient. It performs a single POST to
// <base>/chat/completions with no retries and no streaming.
func (c *OpenAIClient) Chat(ctx context.Context, modelName string, messages []engine.ChatMessage, opts engine.ChatOptions) (engine.LLMResponse, error) {
	openaiMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var role string
		switch msg.Role {
		case engine.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case engine.RoleUser:
			role = openai.ChatMessageRoleUser
		case engine.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		default:
			continue
		}
		openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		})
	}

	req := openai.ChatCompletionRequest{
		Model:    modelName,
		Messages: openaiMsgs,
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}
	if opts.Temperature != nil {
		temp := *opts.Temperature
		req.Temperature = &temp
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return engine.LLMResponse{}, wrapError(err)
	}

	out := engine.LLMResponse{
		Usage: engine.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
	}
	if len(resp.Choices) == 0 {
		return out, nil
	}

	choice := resp.Choices[0]
	out.HasChoice = true
	out.Content = choice.Message.Content
	out.FinishReason = "stop"
	if choice.FinishReason == openai.FinishReasonLength {
		out.FinishReason = "length"
	} else if choice.FinishReason == openai.FinishReasonContentFilter {
		out.FinishReason = "content_filter"
	}
	return out, nil
}

// wrapError converts SDK errors into engine endpoint failures.
// The provider's error.message is kept verbatim; bodies without one fall
// back to the generic message.
func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return engine.EndpointError(apiErr.Message, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return engine.EndpointError("", reqErr.HTTPStatusCode, err)
	}

	return engine.EndpointError(err.Error(), 0, err)
}
