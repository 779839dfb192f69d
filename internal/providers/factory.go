package providers

import (
	"fmt"
	"net/http"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
)

// NewClientFactory returns an engine.ClientFactory for the named provider.
// Every provider speaks the OpenAI chat-completions contract; they differ
// only in base URL. An explicit baseURL overrides the provider default.
func NewClientFactory(provider, baseURL string, httpClient *http.Client) (engine.ClientFactory, error) {
	if provider == "" {
		// Default to OpenAI if not set
		provider = "openai"
	}

	switch provider {
	case "openai":
		// Empty base URL keeps the SDK default (https://api.openai.com/v1).
	case "lmstudio":
		// LM Studio local server (OpenAI-compatible)
		if baseURL == "" {
			baseURL = "http://localhost:1234/v1"
		}
	case "ollama":
		// Ollama local server (OpenAI-compatible)
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
	default:
		return nil, fmt.Errorf("unknown provider: %s (supported: openai, lmstudio, ollama)", provider)
	}

	return func(apiKey string) (engine.LLMClient, error) {
		client, err := NewOpenAIClient(apiKey, baseURL, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
		}
		return client, nil
	}, nil
}
