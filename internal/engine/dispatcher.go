package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// CredentialSource yields the stored API credential.
// An empty string with a nil error means no credential is set.
type CredentialSource interface {
	Get(ctx context.Context) (string, error)
}

// Request is one user turn handed to the dispatcher.
type Request struct {
	Context     string // prior history joined with fresh page content
	UserMessage string
}

// Dispatcher builds the outbound completion request and interprets the reply.
// It makes at most one network call per Dispatch and never retries.
type Dispatcher struct {
	creds     CredentialSource
	newClient ClientFactory
	hook      Hook

	mu  sync.RWMutex
	cfg DispatchConfig
}

// NewDispatcher creates a Dispatcher. A nil hook disables dispatch logging.
func NewDispatcher(creds CredentialSource, newClient ClientFactory, cfg DispatchConfig, hook Hook) *Dispatcher {
	if hook == nil {
		hook = NopHook{}
	}
	return &Dispatcher{
		creds:     creds,
		newClient: newClient,
		hook:      hook,
		cfg:       cfg.withDefaults(),
	}
}

// Config returns the current dispatch parameters.
func (d *Dispatcher) Config() DispatchConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// SetConfig swaps the dispatch parameters; in-flight calls keep the old ones.
func (d *Dispatcher) SetConfig(cfg DispatchConfig) {
	d.mu.Lock()
	d.cfg = cfg.withDefaults()
	d.mu.Unlock()
}

// Dispatch submits the request and returns the assistant reply.
//
// A missing credential fails with KindMissingCredential before any network
// call. Endpoint failures carry the provider's error message. A success
// response without a first choice yields NoResponseSentinel, not an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (string, error) {
	cfg := d.Config()

	apiKey, err := d.creds.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("read credential: %w", err)
	}
	if strings.TrimSpace(apiKey) == "" {
		d.hook.OnMissingCredential(ctx)
		return "", NewError(KindMissingCredential, MsgMissingCredential, nil)
	}

	truncated := IsOverBudget(req.Context, cfg.ContextBudget)
	contextText := TruncateContext(req.Context, cfg.ContextBudget)
	msgs := BuildMessages(contextText, req.UserMessage)

	client, err := d.newClient(apiKey)
	if err != nil {
		return "", fmt.Errorf("failed to create completion client: %w", err)
	}

	info := DispatchInfo{
		Model:        cfg.Model,
		ContextChars: len([]rune(contextText)),
		Truncated:    truncated,
		Messages:     msgs,
		Started:      time.Now(),
	}
	d.hook.OnBeforeDispatch(ctx, info)

	resp, err := client.Chat(ctx, cfg.Model, msgs, ChatOptions{
		Temperature:     cfg.Temperature,
		MaxOutputTokens: cfg.MaxTokens,
	})
	d.hook.OnAfterDispatch(ctx, info, resp, err)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return "", e
		}
		return "", EndpointError(err.Error(), 0, err)
	}

	if !resp.HasChoice || resp.Content == "" {
		return NoResponseSentinel, nil
	}
	return resp.Content, nil
}
