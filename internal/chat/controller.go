// Package chat drives one conversation: it records turns, asks the page
// side for a snapshot and the background side for a reply, and keeps the
// transcript shown to the user.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ChamsBouzaiene/pagechat/internal/engine"
	"github.com/ChamsBouzaiene/pagechat/internal/engine/protocol"
	"github.com/ChamsBouzaiene/pagechat/internal/session"
)

// Fallback messages shown when a reply carries no error text.
const (
	MsgNoPage         = "Unable to locate the active tab."
	MsgReplyFailed    = "Failed to fetch response from GPT."
	errorBubblePrefix = "Error: "
)

// Bubble is one entry of the visible transcript.
type Bubble struct {
	Role  engine.MessageRole `json:"role"`
	Text  string             `json:"text"`
	Error bool               `json:"error,omitempty"`
	Kind  engine.ErrorKind   `json:"kind,omitempty"`
}

// Controller is the user-facing chain. It never returns errors from Send:
// every failure becomes an error bubble and the controller stays usable.
type Controller struct {
	sessions   *session.Manager
	creds      *session.Credentials
	page       protocol.Requester
	background protocol.Requester
	budget     atomic.Int64
	logger     *log.Logger

	mu         sync.Mutex
	state      session.State
	transcript []Bubble
}

// Config wires a Controller.
type Config struct {
	Sessions    *session.Manager
	Credentials *session.Credentials
	Page        protocol.Requester // nil means no page is available
	Background  protocol.Requester
	Budget      int // history budget; zero means engine.ContextBudget
	Logger      *log.Logger
}

// NewController creates a Controller. Call Open before the first Send.
func NewController(cfg Config) *Controller {
	if cfg.Budget <= 0 {
		cfg.Budget = engine.ContextBudget
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	c := &Controller{
		sessions:   cfg.Sessions,
		creds:      cfg.Credentials,
		page:       cfg.Page,
		background: cfg.Background,
		logger:     cfg.Logger,
	}
	c.budget.Store(int64(cfg.Budget))
	return c
}

// SetBudget changes the history budget for later sends. Zero or less
// restores engine.ContextBudget.
func (c *Controller) SetBudget(n int) {
	if n <= 0 {
		n = engine.ContextBudget
	}
	c.budget.Store(int64(n))
}

// Open resumes the stored session or creates one.
func (c *Controller) Open(ctx context.Context) (session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openLocked(ctx)
}

func (c *Controller) openLocked(ctx context.Context) (session.State, error) {
	if c.state.Valid() {
		return c.state, nil
	}
	st, err := c.sessions.Resume(ctx)
	if err != nil {
		return session.State{}, err
	}
	c.state = st
	c.logger.Printf("📂 Session resumed: %s", st.ID)
	return st, nil
}

// State returns the active session.
func (c *Controller) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Send runs one user turn. It reports false when the trimmed utterance is
// empty and nothing happened; otherwise it returns the final bubble.
func (c *Controller) Send(ctx context.Context, utterance string) (Bubble, bool) {
	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return Bubble{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.add(Bubble{Role: engine.RoleUser, Text: utterance})

	st, err := c.openLocked(ctx)
	if err != nil {
		c.logger.Printf("⚠️  Session unavailable: %v", err)
	} else if _, err := c.sessions.Append(ctx, st, engine.RoleUser, utterance); err != nil {
		c.logger.Printf("⚠️  Failed to save user turn: %v", err)
	}

	if c.page == nil {
		return c.fail(MsgNoPage), true
	}

	scraped, err := c.page.Request(ctx, protocol.Message{Type: protocol.TypeScrapeRequest})
	if err != nil {
		err = engine.NewError(engine.KindScrapeChannel, engine.MsgScrapeFailed, err)
		c.logger.Printf("❌ Scrape request failed: %v", errors.Unwrap(err))
		return c.failErr(err), true
	}
	if !scraped.Success {
		return c.fail(orDefault(scraped.Error, engine.MsgScrapeFailed)), true
	}

	var history string
	if st.Valid() {
		if history, err = c.sessions.History(ctx, st, int(c.budget.Load())); err != nil {
			c.logger.Printf("⚠️  Failed to read history: %v", err)
		}
	}

	reply, err := c.background.Request(ctx, protocol.Message{
		Type:        protocol.TypeScrapedContent,
		Content:     engine.CombineContext(history, scraped.Content),
		UserMessage: utterance,
	})
	if err != nil {
		c.logger.Printf("❌ Completion request failed: %v", err)
		return c.fail(MsgReplyFailed), true
	}
	if !reply.Success || reply.GPTResponse == "" {
		return c.fail(orDefault(reply.Error, MsgReplyFailed)), true
	}

	b := Bubble{Role: engine.RoleAssistant, Text: reply.GPTResponse}
	c.add(b)
	if st.Valid() {
		if _, err := c.sessions.Append(ctx, st, engine.RoleAssistant, reply.GPTResponse); err != nil {
			c.logger.Printf("⚠️  Failed to save assistant turn: %v", err)
		}
	}
	return b, true
}

// Reset clears the transcript and starts a new session.
func (c *Controller) Reset(ctx context.Context) (session.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transcript = nil
	st, err := c.sessions.Reset(ctx, c.state)
	if err != nil {
		return session.State{}, fmt.Errorf("reset session: %w", err)
	}
	c.state = st
	return st, nil
}

// SaveCredential stores the API key. Blank keys are rejected.
func (c *Controller) SaveCredential(ctx context.Context, key string) error {
	return c.creds.Set(ctx, key)
}

// CredentialSaved reports whether an API key is stored.
func (c *Controller) CredentialSaved(ctx context.Context) bool {
	return c.creds.Saved(ctx)
}

// Transcript returns a copy of the visible bubbles.
func (c *Controller) Transcript() []Bubble {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Bubble, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Controller) add(b Bubble) {
	c.transcript = append(c.transcript, b)
}

func (c *Controller) fail(msg string) Bubble {
	b := Bubble{Role: engine.RoleAssistant, Text: errorBubblePrefix + msg, Error: true}
	c.add(b)
	return b
}

// failErr shows err's display message and keeps its kind on the bubble.
func (c *Controller) failErr(err error) Bubble {
	b := Bubble{
		Role:  engine.RoleAssistant,
		Text:  errorBubblePrefix + engine.Message(err),
		Error: true,
		Kind:  engine.KindOf(err),
	}
	c.add(b)
	return b
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
